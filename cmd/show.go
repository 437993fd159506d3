package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/docbrowser/internal/models"
	"github.com/lehigh-university-libraries/docbrowser/internal/render"
	"github.com/lehigh-university-libraries/docbrowser/internal/selection"
)

var errDocumentNotFound = errors.New("document not found")

func newShowCmd(a *app) *cobra.Command {
	var actual bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show every field of one document",
		Example: `  docbrowser show 1a2b3c
  docbrowser show 1a2b3c --actual-size`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			doc := findDocument(c.Documents, args[0])
			if doc == nil {
				return fmt.Errorf("%w: %s", errDocumentNotFound, args[0])
			}

			mode := selection.ImageFit
			if actual {
				mode = selection.ImageActual
			}
			render.Detail(cmd.OutOrStdout(), doc, mode)
			return nil
		},
	}

	cmd.Flags().BoolVar(&actual, "actual-size", false, "Describe the image at actual size instead of fitted")

	return cmd
}

func findDocument(docs []models.Document, id string) *models.Document {
	if id == "" {
		return nil
	}
	for i := range docs {
		if docs[i].ID == id {
			return &docs[i]
		}
	}
	return nil
}
