package query

import (
	"strings"

	"github.com/lehigh-university-libraries/docbrowser/internal/models"
	"github.com/lehigh-university-libraries/docbrowser/internal/normalize"
)

// IsMatch reports whether doc passes the category constraint and contains
// normalizedQuery in its title, category or description. The query must
// already be normalized with normalize.Text.
func IsMatch(doc *models.Document, normalizedQuery, category string) bool {
	if category != "" && doc.Category != category {
		return false
	}
	if normalizedQuery == "" {
		return true
	}
	haystack := strings.Join([]string{doc.Title, doc.Category, doc.Description}, " ")
	return strings.Contains(normalize.Text(haystack), normalizedQuery)
}

// Filter returns the documents matching query and category, preserving order.
func Filter(docs []models.Document, query, category string) []models.Document {
	q := normalize.Text(query)
	visible := make([]models.Document, 0, len(docs))
	for i := range docs {
		if IsMatch(&docs[i], q, category) {
			visible = append(visible, docs[i])
		}
	}
	return visible
}
