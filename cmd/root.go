package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/docbrowser/internal/catalog"
	"github.com/lehigh-university-libraries/docbrowser/internal/config"
	"github.com/lehigh-university-libraries/docbrowser/internal/models"
)

// app carries the persistent flags and the resolved configuration
type app struct {
	configPath string
	sources    []string
	base       string
	verbose    bool

	cfg config.Config
}

func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "docbrowser",
		Short: "Browse a documents catalog from JSON feeds",
		Long: `Docbrowser loads a documents feed from the first reachable candidate source,
orders it newest first and lets you search, filter and inspect documents.

Sources may be local paths, http(s) URLs, gs:// objects or parquet snapshots.
The feed itself can be produced from a Notion database with the sync command.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return a.setup()
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a YAML or JSONC config file")
	cmd.PersistentFlags().StringArrayVar(&a.sources, "source", nil, "Candidate feed locator, in priority order (repeatable)")
	cmd.PersistentFlags().StringVar(&a.base, "base", "", "Base URL or directory for relative sources")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Verbose logging")

	// Add subcommands
	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newShowCmd(a))
	cmd.AddCommand(newCategoriesCmd(a))
	cmd.AddCommand(newRecentCmd(a))
	cmd.AddCommand(newBrowseCmd(a))
	cmd.AddCommand(newSourcesCmd(a))
	cmd.AddCommand(newExportCmd(a))
	cmd.AddCommand(newSyncCmd(a))

	return cmd
}

func (a *app) setup() error {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load(a.configPath, os.LookupEnv)
	if err != nil {
		return err
	}
	if len(a.sources) > 0 {
		cfg.Sources = a.sources
	}
	if a.base != "" {
		cfg.Base = a.base
	}
	a.cfg = cfg
	return nil
}

func (a *app) loader() *catalog.Loader {
	l := catalog.NewLoader(a.cfg.Base)
	l.HTTPClient.Timeout = a.cfg.HTTPTimeout()
	return l
}

// load reads the catalog from the first usable source
func (a *app) load(ctx context.Context) (*models.Catalog, error) {
	l := a.loader()
	defer l.Close()

	c, err := l.Load(ctx, a.cfg.Sources)
	if err != nil {
		slog.Error("Unable to load document data", "sources", a.cfg.Sources, "err", err)
		return nil, fmt.Errorf("failed to load document data: %w", err)
	}
	slog.Debug("Using source", "source", c.SourceUsed, "documents", len(c.Documents))
	return c, nil
}
