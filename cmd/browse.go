package cmd

import (
	"net/url"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/docbrowser/internal/browse"
	"github.com/lehigh-university-libraries/docbrowser/internal/selection"
)

func newBrowseCmd(a *app) *cobra.Command {
	var id string
	var location string
	var q string
	var category string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the catalog interactively",
		Long: `Opens an interactive session over the catalog. Filters narrow the list,
the selection always stays on a visible document, and back/forward walk
the selection history.`,
		Example: `  # Start at a specific document
  docbrowser browse --id 1a2b3c

  # Resume a saved location
  docbrowser browse --location "documents.html?id=1a2b3c"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.load(cmd.Context())
			if err != nil {
				return err
			}

			if id != "" {
				location = "?" + url.Values{selection.QueryParam: {id}}.Encode()
			}
			session := browse.NewSession(c, location, cmd.OutOrStdout())
			defer session.Close()

			session.Filter(q, category)
			return session.Run()
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Document to select first")
	cmd.Flags().StringVar(&location, "location", "", "Starting location carrying ?id=")
	cmd.Flags().StringVarP(&q, "query", "q", "", "Initial free-text filter")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Initial category filter")

	return cmd
}
