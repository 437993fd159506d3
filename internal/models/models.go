package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

var errNotObject = errors.New("document is not a JSON object")

// Document represents a single record in a documents feed
type Document struct {
	ID             string         `json:"id" yaml:"id"`
	Title          string         `json:"title" yaml:"title"`
	Category       string         `json:"category,omitempty" yaml:"category,omitempty"`
	Description    string         `json:"description,omitempty" yaml:"description,omitempty"`
	Date           *DateRange     `json:"date,omitempty" yaml:"date,omitempty"`
	LastEditedTime string         `json:"last_edited_time,omitempty" yaml:"last_edited_time,omitempty"`
	ImageURL       string         `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	SourceURL      string         `json:"source_url,omitempty" yaml:"source_url,omitempty"`
	URL            string         `json:"url,omitempty" yaml:"url,omitempty"`
	Properties     map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// DateRange is a structured date with optional ISO-8601 bounds
type DateRange struct {
	Start    string `json:"start,omitempty" yaml:"start,omitempty"`
	End      string `json:"end,omitempty" yaml:"end,omitempty"`
	TimeZone string `json:"time_zone,omitempty" yaml:"time_zone,omitempty"`
}

// UnmarshalJSON decodes a document leniently. Fields holding the wrong JSON
// type decode as empty instead of failing the whole record.
func (d *Document) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errNotObject
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}

	*d = Document{
		ID:             identity(raw["id"]),
		Title:          stringField(raw["title"]),
		Category:       stringField(raw["category"]),
		Description:    stringField(raw["description"]),
		Date:           dateField(raw["date"]),
		LastEditedTime: stringField(raw["last_edited_time"]),
		ImageURL:       stringField(raw["image_url"]),
		SourceURL:      stringField(raw["source_url"]),
		URL:            stringField(raw["url"]),
		Properties:     propertiesField(raw["properties"]),
	}
	return nil
}

// HasImage reports whether the document carries an image reference
func (d *Document) HasImage() bool {
	return d.ImageURL != ""
}

func stringField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// identity accepts string ids and numeric ids, keeping numbers in their text form
func identity(raw json.RawMessage) string {
	if s := stringField(raw); s != "" {
		return s
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return ""
	}
	return n.String()
}

func dateField(raw json.RawMessage) *DateRange {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil
	}
	return &DateRange{
		Start:    stringField(fields["start"]),
		End:      stringField(fields["end"]),
		TimeZone: stringField(fields["time_zone"]),
	}
}

func propertiesField(raw json.RawMessage) map[string]any {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var props map[string]any
	if err := json.Unmarshal(trimmed, &props); err != nil {
		return nil
	}
	return props
}

// Catalog is an ordered set of documents loaded from one source
type Catalog struct {
	Documents  []Document     `json:"documents" yaml:"documents"`
	Meta       map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
	SourceUsed string         `json:"source_used" yaml:"source_used"`
}

// GeneratedAt returns the feed's generated_at metadata, if present
func (c *Catalog) GeneratedAt() string {
	if c == nil || c.Meta == nil {
		return ""
	}
	if s, ok := c.Meta["generated_at"].(string); ok {
		return s
	}
	return ""
}

// Provenance describes where the catalog came from for display
func (c *Catalog) Provenance() string {
	if c == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(c.SourceUsed)
	if ts := c.GeneratedAt(); ts != "" {
		b.WriteString(" / generated_at: ")
		b.WriteString(ts)
	}
	return b.String()
}

// Feed is the on-disk documents feed produced by sync and export
type Feed struct {
	GeneratedAt   string     `json:"generated_at" yaml:"generated_at"`
	NotionVersion string     `json:"notion_version,omitempty" yaml:"notion_version,omitempty"`
	DatabaseID    string     `json:"database_id,omitempty" yaml:"database_id,omitempty"`
	Count         int        `json:"count" yaml:"count"`
	Documents     []Document `json:"documents" yaml:"documents"`
}
