package catalog

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/lehigh-university-libraries/docbrowser/internal/models"
)

// WriteAtomic renders a file with encode and swaps it into place, so readers
// never observe a half-written feed.
func WriteAtomic(path string, encode func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := encode(&buf); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// WriteSnapshot saves catalog to path as parquet when the path ends in
// .parquet and as a JSON feed otherwise.
func WriteSnapshot(path string, catalog *models.Catalog) error {
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		return WriteAtomic(path, func(w io.Writer) error {
			return EncodeParquet(w, catalog)
		})
	}
	return WriteAtomic(path, func(w io.Writer) error {
		return EncodeFeed(w, catalog)
	})
}
