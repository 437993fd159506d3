package notion

import (
	"encoding/json"
	"strings"
)

// Property is one typed property value on a page. The payload lives under
// a key named after the type.
type Property struct {
	Type   string
	fields map[string]json.RawMessage
}

func (p *Property) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var typ string
	if raw, ok := fields["type"]; ok {
		_ = json.Unmarshal(raw, &typ)
	}
	p.Type = typ
	p.fields = fields
	return nil
}

func (p Property) decode(v any) bool {
	raw, ok := p.fields[p.Type]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

// DateValue is the plain form of a date property
type DateValue struct {
	Start    *string `json:"start"`
	End      *string `json:"end"`
	TimeZone *string `json:"time_zone"`
}

// FileRef is the plain form of one entry in a files property
type FileRef struct {
	Name       string  `json:"name"`
	URL        string  `json:"url"`
	ExpiryTime *string `json:"expiry_time,omitempty"`
}

type richText struct {
	PlainText string `json:"plain_text"`
}

type named struct {
	Name string `json:"name"`
}

type fileObject struct {
	Name     string        `json:"name"`
	Type     string        `json:"type"`
	File     *hostedFile   `json:"file"`
	External *externalFile `json:"external"`
}

type hostedFile struct {
	URL        string  `json:"url"`
	ExpiryTime *string `json:"expiry_time"`
}

type externalFile struct {
	URL string `json:"url"`
}

// Value converts the property to a plain JSON-friendly value. Unsupported
// types and empty values yield nil.
func (p Property) Value() any {
	switch p.Type {
	case "title", "rich_text":
		var parts []richText
		if !p.decode(&parts) {
			return ""
		}
		return plainText(parts)
	case "number":
		var n *float64
		if !p.decode(&n) || n == nil {
			return nil
		}
		return *n
	case "select":
		var sel *named
		if !p.decode(&sel) || sel == nil {
			return nil
		}
		return sel.Name
	case "multi_select":
		var options []named
		p.decode(&options)
		names := make([]string, 0, len(options))
		for _, o := range options {
			if o.Name != "" {
				names = append(names, o.Name)
			}
		}
		return names
	case "date":
		var d *DateValue
		if !p.decode(&d) || d == nil {
			return nil
		}
		return d
	case "url", "email", "phone_number", "created_time", "last_edited_time":
		var s *string
		if !p.decode(&s) || s == nil {
			return nil
		}
		return *s
	case "files":
		var files []fileObject
		p.decode(&files)
		refs := make([]FileRef, 0, len(files))
		for _, f := range files {
			switch {
			case f.Type == "file" && f.File != nil:
				refs = append(refs, FileRef{Name: f.Name, URL: f.File.URL, ExpiryTime: f.File.ExpiryTime})
			case f.Type == "external" && f.External != nil:
				refs = append(refs, FileRef{Name: f.Name, URL: f.External.URL})
			}
		}
		return refs
	case "checkbox":
		var b bool
		p.decode(&b)
		return b
	}
	return nil
}

func plainText(parts []richText) string {
	var b strings.Builder
	for _, part := range parts {
		b.WriteString(strings.TrimSpace(part.PlainText))
	}
	return strings.TrimSpace(b.String())
}
