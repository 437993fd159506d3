package cmd

import (
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/docbrowser/internal/query"
)

func newCategoriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List category options with document counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.load(cmd.Context())
			if err != nil {
				return err
			}

			counts := make(map[string]int)
			for _, doc := range c.Documents {
				counts[doc.Category]++
			}

			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.AddRow("CATEGORY", "DOCUMENTS")
			for _, category := range query.Categories(c.Documents) {
				tbl.AddRow(category, counts[category])
			}
			fmt.Fprintln(cmd.OutOrStdout(), tbl)
			return nil
		},
	}
}
