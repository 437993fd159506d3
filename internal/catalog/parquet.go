package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/parquet-go/parquet-go"

	"github.com/lehigh-university-libraries/docbrowser/internal/models"
)

// parquetMetaKey holds the feed metadata, JSON encoded, in the file's
// key/value metadata.
const parquetMetaKey = "docbrowser.meta"

// snapshotRow is one document in a parquet feed snapshot
type snapshotRow struct {
	ID             string `parquet:"id"`
	Title          string `parquet:"title"`
	Category       string `parquet:"category"`
	Description    string `parquet:"description"`
	DateStart      string `parquet:"date_start"`
	DateEnd        string `parquet:"date_end"`
	LastEditedTime string `parquet:"last_edited_time"`
	ImageURL       string `parquet:"image_url"`
	SourceURL      string `parquet:"source_url"`
	URL            string `parquet:"url"`
	Properties     string `parquet:"properties"`
}

func rowFromDocument(doc models.Document) (snapshotRow, error) {
	row := snapshotRow{
		ID:             doc.ID,
		Title:          doc.Title,
		Category:       doc.Category,
		Description:    doc.Description,
		LastEditedTime: doc.LastEditedTime,
		ImageURL:       doc.ImageURL,
		SourceURL:      doc.SourceURL,
		URL:            doc.URL,
	}
	if doc.Date != nil {
		row.DateStart = doc.Date.Start
		row.DateEnd = doc.Date.End
	}
	if len(doc.Properties) > 0 {
		props, err := json.Marshal(doc.Properties)
		if err != nil {
			return row, fmt.Errorf("failed to encode properties of %s: %w", doc.ID, err)
		}
		row.Properties = string(props)
	}
	return row, nil
}

func (r snapshotRow) document() models.Document {
	doc := models.Document{
		ID:             r.ID,
		Title:          r.Title,
		Category:       r.Category,
		Description:    r.Description,
		LastEditedTime: r.LastEditedTime,
		ImageURL:       r.ImageURL,
		SourceURL:      r.SourceURL,
		URL:            r.URL,
	}
	if r.DateStart != "" || r.DateEnd != "" {
		doc.Date = &models.DateRange{Start: r.DateStart, End: r.DateEnd}
	}
	if r.Properties != "" {
		var props map[string]any
		if err := json.Unmarshal([]byte(r.Properties), &props); err != nil {
			slog.Debug("Dropping unreadable properties", "id", r.ID, "err", err)
		} else {
			doc.Properties = props
		}
	}
	return doc
}

// DecodeParquet reads a parquet feed snapshot written by EncodeParquet
func DecodeParquet(data []byte) (*models.Catalog, error) {
	pf, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet snapshot opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	meta := map[string]any{}
	if encoded, ok := pf.Lookup(parquetMetaKey); ok && encoded != "" {
		if err := json.Unmarshal([]byte(encoded), &meta); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot metadata: %w", err)
		}
		if meta == nil {
			meta = map[string]any{}
		}
	}

	reader := parquet.NewGenericReader[snapshotRow](pf)
	defer reader.Close()

	docs := make([]models.Document, 0, pf.NumRows())
	rows := make([]snapshotRow, 128)
	for {
		n, err := reader.Read(rows)
		for _, row := range rows[:n] {
			docs = append(docs, row.document())
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	return &models.Catalog{Documents: docs, Meta: meta}, nil
}

// EncodeParquet writes catalog as a parquet feed snapshot
func EncodeParquet(w io.Writer, catalog *models.Catalog) error {
	meta := catalog.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	encodedMeta, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot metadata: %w", err)
	}

	rows := make([]snapshotRow, 0, len(catalog.Documents))
	for _, doc := range catalog.Documents {
		row, err := rowFromDocument(doc)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	writer := parquet.NewGenericWriter[snapshotRow](w, parquet.KeyValueMetadata(parquetMetaKey, string(encodedMeta)))
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet: %w", err)
	}
	return nil
}
