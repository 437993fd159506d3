// Package render draws catalog views for a terminal.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/mattn/go-runewidth"

	"github.com/lehigh-university-libraries/docbrowser/internal/models"
	"github.com/lehigh-university-libraries/docbrowser/internal/normalize"
	"github.com/lehigh-university-libraries/docbrowser/internal/selection"
)

const (
	// DefaultCategory labels documents without a category
	DefaultCategory = "Uncategorized"
	// DefaultTitle labels documents without a title
	DefaultTitle = "(untitled)"

	// MaxProperties caps the rows of the properties table
	MaxProperties = 50

	titleWidth = 48
	cellWidth  = 72
	none       = "-"
	selected   = "▶"
)

var (
	badge   = color.New(color.FgCyan)
	marker  = color.New(color.FgGreen, color.Bold)
	heading = color.New(color.Bold)
	muted   = color.New(color.Faint)
)

// CategoryLabel returns the badge text for doc
func CategoryLabel(doc *models.Document) string {
	if doc.Category == "" {
		return DefaultCategory
	}
	return doc.Category
}

// TitleLabel returns the display title for doc
func TitleLabel(doc *models.Document) string {
	if doc.Title == "" {
		return DefaultTitle
	}
	return doc.Title
}

// Subtitle is the date range when there is one, else the description
func Subtitle(doc *models.Document) string {
	if s, ok := normalize.DateRange(doc.Date); ok {
		return s
	}
	return doc.Description
}

// Truncate shortens s to at most width terminal cells
func Truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.Truncate(s, width, "…")
}

// Count formats the number of visible documents
func Count(n int) string {
	if n == 1 {
		return "1 document"
	}
	return fmt.Sprintf("%d documents", n)
}

// List writes one row per document. The row whose id equals selectedID is
// marked.
func List(w io.Writer, docs []models.Document, selectedID string) {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("", heading.Sprint("#"), heading.Sprint("Category"), heading.Sprint("Title"), heading.Sprint("Date"), heading.Sprint("ID"))
	for i := range docs {
		doc := &docs[i]
		mark := ""
		if selectedID != "" && doc.ID == selectedID {
			mark = marker.Sprint(selected)
		}
		date, _ := normalize.DateRange(doc.Date)
		tbl.AddRow(
			mark,
			i+1,
			badge.Sprint(CategoryLabel(doc)),
			Truncate(TitleLabel(doc), titleWidth),
			date,
			doc.ID,
		)
	}
	_, _ = fmt.Fprintln(w, tbl)
}

// Detail writes every field of doc, its links, its image in the given mode
// and a table of its extra properties.
func Detail(w io.Writer, doc *models.Document, mode selection.ImageMode) {
	_, _ = fmt.Fprintf(w, "%s  %s\n", badge.Sprint("["+CategoryLabel(doc)+"]"), muted.Sprint(doc.ID))
	_, _ = fmt.Fprintln(w, heading.Sprint(TitleLabel(doc)))
	_, _ = fmt.Fprintln(w)

	date, ok := normalize.DateRange(doc.Date)
	if !ok {
		date = none
	}
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.Wrap = true
	tbl.MaxColWidth = cellWidth
	tbl.AddRow("Date", date)
	if doc.LastEditedTime != "" {
		tbl.AddRow("Last edited", doc.LastEditedTime)
	}

	links := 0
	if doc.SourceURL != "" {
		tbl.AddRow("Source", doc.SourceURL)
		links++
	}
	if doc.URL != "" {
		tbl.AddRow("Original page", doc.URL)
		links++
	}
	if links == 0 {
		tbl.AddRow("Links", none)
	}

	description := doc.Description
	if description == "" {
		description = none
	}
	tbl.AddRow("Description", description)
	_, _ = fmt.Fprintln(w, tbl)
	_, _ = fmt.Fprintln(w)

	Image(w, doc, mode)
	Properties(w, doc.Properties)
}

// Image writes the image reference of doc with its display mode
func Image(w io.Writer, doc *models.Document, mode selection.ImageMode) {
	if !doc.HasImage() {
		_, _ = fmt.Fprintln(w, muted.Sprint("No image registered."))
		return
	}
	label := "fit"
	if mode == selection.ImageActual {
		label = "actual size"
	}
	_, _ = fmt.Fprintf(w, "Image (%s): %s\n", label, doc.ImageURL)
}

// Properties writes the non-empty extra properties in key order, at most
// MaxProperties of them.
func Properties(w io.Writer, props map[string]any) {
	keys := make([]string, 0, len(props))
	for k, v := range props {
		if !isBlank(v) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return
	}
	sort.Strings(keys)

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, heading.Sprint("Other properties"))
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.Wrap = true
	tbl.MaxColWidth = cellWidth
	for _, k := range keys[:min(len(keys), MaxProperties)] {
		tbl.AddRow(k, propertyValue(props[k]))
	}
	_, _ = fmt.Fprintln(w, tbl)
	if len(keys) > MaxProperties {
		_, _ = fmt.Fprintf(w, "%s\n", muted.Sprintf("Showing the first %d properties.", MaxProperties))
	}
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	}
	return false
}

func propertyValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// Cards writes the first n documents as compact cards. A negative n is
// treated as zero.
func Cards(w io.Writer, docs []models.Document, n int) {
	if len(docs) == 0 {
		_, _ = fmt.Fprintln(w, muted.Sprint("No documents yet."))
		return
	}
	for i := range docs[:min(len(docs), max(n, 0))] {
		doc := &docs[i]
		thumb := muted.Sprint("[no image]")
		if doc.HasImage() {
			thumb = "[image]"
		}
		_, _ = fmt.Fprintf(w, "%s %s\n", badge.Sprint("["+CategoryLabel(doc)+"]"), thumb)
		_, _ = fmt.Fprintf(w, "  %s\n", heading.Sprint(Truncate(TitleLabel(doc), titleWidth)))
		if sub := Subtitle(doc); sub != "" {
			_, _ = fmt.Fprintf(w, "  %s\n", Truncate(sub, cellWidth))
		}
		_, _ = fmt.Fprintf(w, "  ?%s=%s\n\n", selection.QueryParam, doc.ID)
	}
}

// View writes a full browsing view: provenance, count, list and the
// selected document.
func View(w io.Writer, v selection.View) {
	if v.Provenance != "" {
		_, _ = fmt.Fprintln(w, muted.Sprint(v.Provenance))
	}
	filters := ""
	if v.Query != "" {
		filters += fmt.Sprintf(" query=%q", v.Query)
	}
	if v.Category != "" {
		filters += fmt.Sprintf(" category=%q", v.Category)
	}
	_, _ = fmt.Fprintf(w, "%s%s\n\n", Count(v.Count()), filters)

	selectedID := ""
	if v.Found() {
		selectedID = v.Selected.ID
	}
	if v.Count() > 0 {
		List(w, v.Documents, selectedID)
		_, _ = fmt.Fprintln(w)
	}

	if !v.Found() {
		_, _ = fmt.Fprintln(w, muted.Sprint("No documents found."))
		return
	}
	Detail(w, v.Selected, v.ImageMode)
}
