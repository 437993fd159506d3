package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/docbrowser/internal/query"
	"github.com/lehigh-university-libraries/docbrowser/internal/render"
)

var errNegativeLimit = errors.New("--limit must not be negative")

func newRecentCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the newest documents as cards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("%w: %d", errNegativeLimit, limit)
			}
			c, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			render.Cards(cmd.OutOrStdout(), query.Sort(c.Documents), limit)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 8, "Number of cards to show")

	return cmd
}
