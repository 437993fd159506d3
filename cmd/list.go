package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/docbrowser/internal/models"
	"github.com/lehigh-university-libraries/docbrowser/internal/query"
	"github.com/lehigh-university-libraries/docbrowser/internal/render"
)

// listing is the machine-readable form of a filtered list
type listing struct {
	Source      string            `json:"source" yaml:"source"`
	GeneratedAt string            `json:"generated_at,omitempty" yaml:"generated_at,omitempty"`
	Query       string            `json:"query,omitempty" yaml:"query,omitempty"`
	Category    string            `json:"category,omitempty" yaml:"category,omitempty"`
	Count       int               `json:"count" yaml:"count"`
	Documents   []models.Document `json:"documents" yaml:"documents"`
}

func newListCmd(a *app) *cobra.Command {
	var q string
	var category string
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents newest first",
		Long: `Lists the catalog newest first, optionally narrowed by a free-text query
and an exact category. The query matches title, category and description,
ignoring case and full-width/half-width differences.`,
		Example: `  # Everything
  docbrowser list

  # Letters mentioning "harbor" as YAML
  docbrowser list --category Letters --query harbor --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			docs := query.Filter(query.Sort(c.Documents), q, category)
			return writeListing(cmd.OutOrStdout(), format, listing{
				Source:      c.SourceUsed,
				GeneratedAt: c.GeneratedAt(),
				Query:       q,
				Category:    category,
				Count:       len(docs),
				Documents:   docs,
			}, c.Provenance())
		},
	}

	cmd.Flags().StringVarP(&q, "query", "q", "", "Free-text filter")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Exact category filter")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json, or yaml)")

	return cmd
}

func writeListing(w io.Writer, format string, l listing, provenance string) error {
	switch format {
	case "text":
		fmt.Fprintln(w, provenance)
		fmt.Fprintln(w, render.Count(l.Count))
		if l.Count > 0 {
			fmt.Fprintln(w)
			render.List(w, l.Documents, "")
		}
		return nil
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetEscapeHTML(false)
		encoder.SetIndent("", "  ")
		return encoder.Encode(l)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(l); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
