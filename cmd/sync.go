package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/docbrowser/internal/notion"
)

var errNotionConfig = errors.New("missing Notion configuration")

func newSyncCmd(a *app) *cobra.Command {
	var databaseID string
	var output string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Generate the documents feed from a Notion database",
		Long: `Queries every page of a Notion database and writes the documents feed
that the other commands read.

Requires NOTION_TOKEN and NOTION_DATABASE_ID (environment, .env or config file).
Property names default to 名前, カテゴリ, 説明, 日付, 画像 and 出典URL and can be
overridden with the NOTION_PROP_* variables.`,
		Example: `  # Write the default feed path
  docbrowser sync

  # Write somewhere else
  docbrowser sync --output data/notion_documents.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n := a.cfg.Notion
			if databaseID != "" {
				n.DatabaseID = databaseID
			}
			if output != "" {
				n.OutPath = output
			}
			if n.Token == "" {
				return fmt.Errorf("%w: NOTION_TOKEN is not set", errNotionConfig)
			}
			if n.DatabaseID == "" {
				return fmt.Errorf("%w: NOTION_DATABASE_ID is not set", errNotionConfig)
			}

			client := notion.NewClient(n.Token, n.Version)
			feed, err := notion.Sync(cmd.Context(), client, n.DatabaseID, n.Properties, n.OutPath)
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d documents to %s\n", feed.Count, n.OutPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&databaseID, "database", "", "Notion database id (overrides NOTION_DATABASE_ID)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Feed path (overrides NOTION_OUT_PATH)")

	return cmd
}
