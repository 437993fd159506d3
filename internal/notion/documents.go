// Package notion turns a Notion database into a documents feed.
package notion

import (
	"time"

	"github.com/lehigh-university-libraries/docbrowser/internal/models"
)

// PropertyNames maps document fields to Notion property names
type PropertyNames struct {
	Title       string `yaml:"title" json:"title"`
	Category    string `yaml:"category" json:"category"`
	Description string `yaml:"description" json:"description"`
	Date        string `yaml:"date" json:"date"`
	Image       string `yaml:"image" json:"image"`
	SourceURL   string `yaml:"source_url" json:"source_url"`
}

// DefaultPropertyNames matches the archive's Notion database
func DefaultPropertyNames() PropertyNames {
	return PropertyNames{
		Title:       "名前",
		Category:    "カテゴリ",
		Description: "説明",
		Date:        "日付",
		Image:       "画像",
		SourceURL:   "出典URL",
	}
}

// BuildDocuments converts pages to documents. Every property is kept in
// Properties; the mapped ones also populate the document fields.
func BuildDocuments(pages []Page, names PropertyNames) []models.Document {
	docs := make([]models.Document, 0, len(pages))
	for _, page := range pages {
		computed := make(map[string]any, len(page.Properties))
		for key, prop := range page.Properties {
			computed[key] = prop.Value()
		}

		title, _ := computed[names.Title].(string)
		category, _ := computed[names.Category].(string)
		description, _ := computed[names.Description].(string)
		sourceURL, _ := computed[names.SourceURL].(string)

		docs = append(docs, models.Document{
			ID:             page.ID,
			URL:            page.URL,
			Title:          title,
			Category:       category,
			Description:    description,
			Date:           dateRange(computed[names.Date]),
			ImageURL:       firstFileURL(computed[names.Image]),
			SourceURL:      sourceURL,
			Properties:     computed,
			LastEditedTime: page.LastEditedTime,
		})
	}
	return docs
}

func dateRange(v any) *models.DateRange {
	d, ok := v.(*DateValue)
	if !ok || d == nil {
		return nil
	}
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	return &models.DateRange{Start: deref(d.Start), End: deref(d.End), TimeZone: deref(d.TimeZone)}
}

func firstFileURL(v any) string {
	files, ok := v.([]FileRef)
	if !ok || len(files) == 0 {
		return ""
	}
	return files[0].URL
}

// BuildFeed wraps documents in the feed envelope
func BuildFeed(docs []models.Document, version, databaseID string, now time.Time) models.Feed {
	return models.Feed{
		GeneratedAt:   now.UTC().Truncate(time.Second).Format("2006-01-02T15:04:05Z"),
		NotionVersion: version,
		DatabaseID:    databaseID,
		Count:         len(docs),
		Documents:     docs,
	}
}
