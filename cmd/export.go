package cmd

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/docbrowser/internal/catalog"
)

var errOutputRequired = errors.New("--output is required")

func newExportCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Snapshot the loaded catalog to a JSON feed or parquet file",
		Long: `Loads the catalog from the first usable source and writes it back out.
A path ending in .parquet produces a parquet snapshot that can itself be
used as a source; anything else is written as a JSON feed.`,
		Example: `  docbrowser export --output data/documents.json
  docbrowser export --source https://example.org/data/documents.json --output snapshot.parquet`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return errOutputRequired
			}
			c, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			if err := catalog.WriteSnapshot(output, c); err != nil {
				return err
			}
			slog.Info("Snapshot written", "path", output, "source", c.SourceUsed, "documents", len(c.Documents))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination path (.json or .parquet)")

	return cmd
}
