// Package query orders and filters catalog documents.
package query

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/lehigh-university-libraries/docbrowser/internal/models"
)

type timestampLayout struct {
	layout string
	local  bool
}

// timestampLayouts are tried in order when parsing feed dates. Date-only
// values are UTC; date-times without a zone are local time.
var timestampLayouts = []timestampLayout{
	{time.RFC3339Nano, false},
	{"2006-01-02T15:04Z07:00", false},
	{"2006-01-02T15:04:05", true},
	{"2006-01-02T15:04", true},
	{"2006-01-02 15:04:05", true},
	{"2006-01-02", false},
	{"2006-01", false},
	{"2006", false},
}

// ParseTimestamp converts an ISO-8601 date or timestamp to epoch milliseconds.
func ParseTimestamp(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, l := range timestampLayouts {
		loc := time.UTC
		if l.local {
			loc = time.Local
		}
		if t, err := time.ParseInLocation(l.layout, s, loc); err == nil {
			return t.UnixMilli(), true
		}
	}
	return 0, false
}

type sortKey struct {
	date, edited     int64
	hasDate, hasEdit bool
}

func keyFor(doc *models.Document) sortKey {
	var k sortKey
	if doc.Date != nil {
		k.date, k.hasDate = ParseTimestamp(doc.Date.Start)
	}
	k.edited, k.hasEdit = ParseTimestamp(doc.LastEditedTime)
	return k
}

// compareNewestFirst orders two optional timestamps descending with missing
// values last. The second result is false when neither side has a value, in
// which case the caller falls through to the next tier.
func compareNewestFirst(a int64, aok bool, b int64, bok bool) (int, bool) {
	switch {
	case !aok && !bok:
		return 0, false
	case !aok:
		return 1, true
	case !bok:
		return -1, true
	case a > b:
		return -1, true
	case a < b:
		return 1, true
	default:
		return 0, true
	}
}

// Sort returns docs ordered by date start (newest first), then last edited
// time (newest first), then title in Japanese collation order. The tier used
// is chosen separately for every compared pair. The input is not modified and
// equal documents keep their input order.
func Sort(docs []models.Document) []models.Document {
	sorted := make([]models.Document, len(docs))
	copy(sorted, docs)

	keys := make([]sortKey, len(sorted))
	for i := range sorted {
		keys[i] = keyFor(&sorted[i])
	}

	col := collate.New(language.Japanese)
	order := make([]int, len(sorted))
	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		ka, kb := keys[a], keys[b]
		if c, ok := compareNewestFirst(ka.date, ka.hasDate, kb.date, kb.hasDate); ok {
			return c < 0
		}
		if c, ok := compareNewestFirst(ka.edited, ka.hasEdit, kb.edited, kb.hasEdit); ok {
			return c < 0
		}
		return col.CompareString(sorted[a].Title, sorted[b].Title) < 0
	})

	result := make([]models.Document, len(sorted))
	for i, idx := range order {
		result[i] = sorted[idx]
	}
	return result
}

// Categories returns the distinct non-blank categories in docs, in Japanese
// collation order.
func Categories(docs []models.Document) []string {
	seen := make(map[string]struct{})
	var categories []string
	for _, doc := range docs {
		if strings.TrimSpace(doc.Category) == "" {
			continue
		}
		if _, ok := seen[doc.Category]; ok {
			continue
		}
		seen[doc.Category] = struct{}{}
		categories = append(categories, doc.Category)
	}

	col := collate.New(language.Japanese)
	col.SortStrings(categories)
	return categories
}
