// Package config resolves docbrowser settings from defaults, an optional
// config file and the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/docbrowser/internal/catalog"
	"github.com/lehigh-university-libraries/docbrowser/internal/notion"
)

var (
	errConfigRead    = errors.New("failed to read config file")
	errConfigInvalid = errors.New("invalid config file")
	errUnknownFormat = errors.New("unsupported config format")
)

// Config holds all configuration options
type Config struct {
	// Sources are candidate feed locators, tried in order.
	Sources []string `yaml:"sources" json:"sources"`
	// Base resolves relative sources; a URL, bucket URL or directory.
	Base    string `yaml:"base" json:"base"`
	Timeout string `yaml:"timeout" json:"timeout"`
	Notion  Notion `yaml:"notion" json:"notion"`
}

// Notion configures the sync command
type Notion struct {
	Token      string               `yaml:"token" json:"token"`
	DatabaseID string               `yaml:"database_id" json:"database_id"`
	Version    string               `yaml:"version" json:"version"`
	OutPath    string               `yaml:"out_path" json:"out_path"`
	Properties notion.PropertyNames `yaml:"properties" json:"properties"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Sources: append([]string(nil), catalog.DefaultSources...),
		Timeout: "30s",
		Notion: Notion{
			Version:    notion.DefaultVersion,
			OutPath:    "5_output/web/data/notion_documents.json",
			Properties: notion.DefaultPropertyNames(),
		},
	}
}

// HTTPTimeout parses Timeout, falling back to 30 seconds
func (c Config) HTTPTimeout() time.Duration {
	if d, err := time.ParseDuration(c.Timeout); err == nil && d > 0 {
		return d
	}
	return 30 * time.Second
}

// Load builds the configuration with this precedence (highest wins):
// defaults, the file at path (when non-empty), then environment variables
// read through lookup.
func Load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if path != "" {
		fileCfg, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = merge(cfg, fileCfg)
	}

	if lookup != nil {
		cfg = applyEnv(cfg, lookup)
	}
	return cfg, nil
}

func readFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w %s: %w", errConfigRead, path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
		}
	case ".json", ".jsonc", ".hujson":
		standardized, err := hujson.Standardize(data)
		if err != nil {
			return Config{}, fmt.Errorf("%w %s: invalid JSONC: %w", errConfigInvalid, path, err)
		}
		if err := json.Unmarshal(standardized, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
		}
	default:
		return Config{}, fmt.Errorf("%w: %s", errUnknownFormat, path)
	}
	return cfg, nil
}

func merge(base, overlay Config) Config {
	if len(overlay.Sources) > 0 {
		base.Sources = overlay.Sources
	}
	if overlay.Base != "" {
		base.Base = overlay.Base
	}
	if overlay.Timeout != "" {
		base.Timeout = overlay.Timeout
	}

	n := overlay.Notion
	if n.Token != "" {
		base.Notion.Token = n.Token
	}
	if n.DatabaseID != "" {
		base.Notion.DatabaseID = n.DatabaseID
	}
	if n.Version != "" {
		base.Notion.Version = n.Version
	}
	if n.OutPath != "" {
		base.Notion.OutPath = n.OutPath
	}
	base.Notion.Properties = mergeNames(base.Notion.Properties, n.Properties)
	return base
}

func mergeNames(base, overlay notion.PropertyNames) notion.PropertyNames {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&base.Title, overlay.Title)
	set(&base.Category, overlay.Category)
	set(&base.Description, overlay.Description)
	set(&base.Date, overlay.Date)
	set(&base.Image, overlay.Image)
	set(&base.SourceURL, overlay.SourceURL)
	return base
}

func applyEnv(cfg Config, lookup func(string) (string, bool)) Config {
	get := func(key string) string {
		v, ok := lookup(key)
		if !ok {
			return ""
		}
		return strings.TrimSpace(v)
	}

	var env Config
	if sources := get("DOCBROWSER_SOURCES"); sources != "" {
		env.Sources = SplitList(sources)
	}
	env.Base = get("DOCBROWSER_BASE")
	env.Timeout = get("DOCBROWSER_TIMEOUT")
	env.Notion = Notion{
		Token:      get("NOTION_TOKEN"),
		DatabaseID: get("NOTION_DATABASE_ID"),
		Version:    get("NOTION_VERSION"),
		OutPath:    get("NOTION_OUT_PATH"),
		Properties: notion.PropertyNames{
			Title:       get("NOTION_PROP_TITLE"),
			Category:    get("NOTION_PROP_CATEGORY"),
			Description: get("NOTION_PROP_DESCRIPTION"),
			Date:        get("NOTION_PROP_DATE"),
			Image:       get("NOTION_PROP_IMAGE"),
			SourceURL:   get("NOTION_PROP_SOURCE_URL"),
		},
	}
	return merge(cfg, env)
}

// SplitList splits a comma-separated list, dropping blanks
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
