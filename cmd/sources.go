package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lehigh-university-libraries/docbrowser/internal/catalog"
)

// probe is the outcome of fetching one candidate source
type probe struct {
	Locator   string
	Resolved  string
	Status    string
	Documents int
	Elapsed   time.Duration
	Err       error
}

func newSourcesCmd(a *app) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Check every candidate source and report which one would be used",
		Long: `Fetches all candidate sources concurrently and reports whether each is
reachable and well-formed. The first usable source in priority order is the
one the other commands load.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l := a.loader()
			defer l.Close()

			results := probeSources(cmd.Context(), l, a.cfg.Sources, concurrency)

			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.MaxColWidth = 80
			tbl.AddRow("", "#", "SOURCE", "STATUS", "DOCUMENTS", "TIME", "DETAIL")
			used := false
			for i, r := range results {
				mark := ""
				if r.Err == nil && !used {
					mark = "*"
					used = true
				}
				detail := ""
				if r.Err != nil {
					detail = r.Err.Error()
				}
				tbl.AddRow(mark, i+1, r.Resolved, r.Status, r.Documents, r.Elapsed.Round(time.Millisecond), detail)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tbl)

			if !used {
				return fmt.Errorf("%w: %d candidates tried", catalog.ErrNoSourceAvailable, len(results))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Maximum sources fetched at once")

	return cmd
}

// probeSources fetches every locator, keeping results in priority order.
// A failing source never cancels the others.
func probeSources(ctx context.Context, l *catalog.Loader, locators []string, concurrency int) []probe {
	results := make([]probe, len(locators))

	var g errgroup.Group
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, locator := range locators {
		g.Go(func() error {
			start := time.Now()
			c, err := l.Fetch(ctx, locator)
			r := probe{
				Locator:  locator,
				Resolved: l.Resolve(locator),
				Elapsed:  time.Since(start),
				Err:      err,
			}
			switch {
			case err == nil:
				r.Status = "ok"
				r.Documents = len(c.Documents)
			case errors.Is(err, catalog.ErrSourceMalformed):
				r.Status = "malformed"
			default:
				r.Status = "unreachable"
			}
			results[i] = r
			return nil
		})
	}
	_ = g.Wait()

	return results
}
