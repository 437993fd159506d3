package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/docbrowser/internal/catalog"
	"github.com/lehigh-university-libraries/docbrowser/internal/models"
)

// WriteFeed saves feed as indented UTF-8 JSON, replacing path atomically
func WriteFeed(path string, feed models.Feed) error {
	return catalog.WriteAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(feed); err != nil {
			return fmt.Errorf("failed to encode feed: %w", err)
		}
		return nil
	})
}

// Sync queries the database and writes the resulting feed to outPath
func Sync(ctx context.Context, client *Client, databaseID string, names PropertyNames, outPath string) (models.Feed, error) {
	pages, err := client.QueryDatabase(ctx, databaseID)
	if err != nil {
		return models.Feed{}, err
	}

	docs := BuildDocuments(pages, names)
	feed := BuildFeed(docs, client.Version, databaseID, time.Now())
	if err := WriteFeed(outPath, feed); err != nil {
		return models.Feed{}, err
	}

	slog.Info("Feed written", "path", outPath, "documents", feed.Count)
	return feed, nil
}
