package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/storage"

	"github.com/lehigh-university-libraries/docbrowser/internal/models"
)

var (
	// ErrSourceUnreachable marks a candidate that could not be fetched.
	ErrSourceUnreachable = errors.New("source unreachable")
	// ErrSourceMalformed marks a candidate whose content could not be parsed.
	ErrSourceMalformed = errors.New("source malformed")
	// ErrNoSourceAvailable is returned when every candidate failed.
	ErrNoSourceAvailable = errors.New("no documents source available")
)

// DefaultSources is the candidate order used when none is configured: live
// feeds before their samples so a deployment without data still has content.
var DefaultSources = []string{
	"./data/documents.json",
	"./data/documents.sample.json",
	"./data/notion_documents.json",
	"./data/notion_documents.sample.json",
}

// Attempt records one failed candidate
type Attempt struct {
	Locator string
	Err     error
}

// NoSourceError reports that no candidate produced a catalog
type NoSourceError struct {
	Attempts []Attempt
}

func (e *NoSourceError) Error() string {
	if len(e.Attempts) == 0 {
		return ErrNoSourceAvailable.Error() + ": no candidates configured"
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, a.Err.Error())
	}
	return fmt.Sprintf("%s (tried %d): %s", ErrNoSourceAvailable, len(e.Attempts), strings.Join(parts, "; "))
}

// Is makes errors.Is(err, ErrNoSourceAvailable) hold
func (e *NoSourceError) Is(target error) bool {
	return target == ErrNoSourceAvailable
}

// Loader fetches a catalog from the first working candidate source
type Loader struct {
	// Base resolves relative locators. It may be a URL or a directory.
	Base       string
	HTTPClient *http.Client

	gcsOnce sync.Once
	gcs     *storage.Client
	gcsErr  error
}

// NewLoader creates a new loader resolving relative locators against base
func NewLoader(base string) *Loader {
	return &Loader{
		Base:       base,
		HTTPClient: newHTTPClient(),
	}
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
	}
}

// Close releases the object storage client, if one was opened
func (l *Loader) Close() error {
	if l.gcs != nil {
		return l.gcs.Close()
	}
	return nil
}

// Load tries each locator in order and returns the first catalog that
// parses. Individual failures are logged and skipped; only when every
// candidate fails is a *NoSourceError returned.
func (l *Loader) Load(ctx context.Context, locators []string) (*models.Catalog, error) {
	attempts := make([]Attempt, 0, len(locators))
	for _, locator := range locators {
		catalog, err := l.Fetch(ctx, locator)
		if err != nil {
			slog.Debug("Candidate source failed", "source", locator, "err", err)
			attempts = append(attempts, Attempt{Locator: locator, Err: err})
			continue
		}
		slog.Debug("Catalog loaded", "source", locator, "documents", len(catalog.Documents))
		return catalog, nil
	}
	return nil, &NoSourceError{Attempts: attempts}
}

// Fetch loads a single candidate. Errors wrap ErrSourceUnreachable or
// ErrSourceMalformed.
func (l *Loader) Fetch(ctx context.Context, locator string) (*models.Catalog, error) {
	resolved := l.Resolve(locator)
	data, err := l.read(ctx, resolved)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnreachable, resolved, err)
	}

	var catalog *models.Catalog
	if isParquet(resolved) {
		catalog, err = DecodeParquet(data)
	} else {
		catalog, err = DecodeFeed(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceMalformed, resolved, err)
	}
	catalog.SourceUsed = locator
	return catalog, nil
}

// Resolve turns a relative locator into one rooted at the loader's base
func (l *Loader) Resolve(locator string) string {
	if l.Base == "" || isAbsolute(locator) {
		return locator
	}
	if base, err := url.Parse(l.Base); err == nil && isRemoteScheme(base.Scheme) {
		ref, err := url.Parse(locator)
		if err != nil {
			return locator
		}
		return base.ResolveReference(ref).String()
	}
	return filepath.Join(l.Base, locator)
}

func isRemoteScheme(scheme string) bool {
	switch scheme {
	case "http", "https", "gs":
		return true
	}
	return false
}

func isAbsolute(locator string) bool {
	if filepath.IsAbs(locator) {
		return true
	}
	u, err := url.Parse(locator)
	if err != nil {
		return false
	}
	return isRemoteScheme(u.Scheme) || u.Scheme == "file"
}

func isParquet(locator string) bool {
	if u, err := url.Parse(locator); err == nil && u.Path != "" {
		locator = u.Path
	}
	return strings.EqualFold(filepath.Ext(locator), ".parquet")
}

func (l *Loader) read(ctx context.Context, locator string) ([]byte, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return os.ReadFile(locator)
	}
	switch u.Scheme {
	case "http", "https":
		return l.readHTTP(ctx, locator)
	case "gs":
		return l.readGCS(ctx, u.Host, strings.TrimPrefix(u.Path, "/"))
	case "file":
		return os.ReadFile(u.Path)
	default:
		return os.ReadFile(locator)
	}
}

func (l *Loader) readHTTP(ctx context.Context, locator string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	// Feeds are regenerated in place; never serve a cached copy.
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Accept", "application/json")

	client := l.HTTPClient
	if client == nil {
		client = newHTTPClient()
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return data, nil
}

func (l *Loader) readGCS(ctx context.Context, bucket, object string) ([]byte, error) {
	l.gcsOnce.Do(func() {
		l.gcs, l.gcsErr = storage.NewClient(ctx)
	})
	if l.gcsErr != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", l.gcsErr)
	}

	rc, err := l.gcs.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open gs://%s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", bucket, object, err)
	}
	return data, nil
}

var utf8BOM = []byte("\xef\xbb\xbf")

// DecodeFeed parses a JSON documents feed. The feed must be a JSON object;
// a missing or non-array documents field yields an empty catalog, and records
// that are not objects are skipped.
func DecodeFeed(data []byte) (*models.Catalog, error) {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.New("feed is not a JSON object")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode feed: %w", err)
	}

	meta := make(map[string]any, len(raw))
	for key, value := range raw {
		if key == "documents" {
			continue
		}
		var v any
		if err := json.Unmarshal(value, &v); err == nil {
			meta[key] = v
		}
	}

	return &models.Catalog{
		Documents: decodeDocuments(raw["documents"]),
		Meta:      meta,
	}, nil
}

func decodeDocuments(raw json.RawMessage) []models.Document {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		if len(raw) > 0 {
			slog.Debug("Feed documents field is not an array")
		}
		return []models.Document{}
	}

	docs := make([]models.Document, 0, len(items))
	for i, item := range items {
		var doc models.Document
		if err := json.Unmarshal(item, &doc); err != nil {
			slog.Debug("Skipping malformed document", "index", i, "err", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs
}

// EncodeFeed writes catalog as a JSON feed: its metadata at the top level
// plus the documents array.
func EncodeFeed(w io.Writer, catalog *models.Catalog) error {
	out := make(map[string]any, len(catalog.Meta)+1)
	for k, v := range catalog.Meta {
		out[k] = v
	}
	docs := catalog.Documents
	if docs == nil {
		docs = []models.Document{}
	}
	out["documents"] = docs

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode feed: %w", err)
	}
	return nil
}
