package catalog

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lehigh-university-libraries/docbrowser/internal/models"
)

const sampleFeed = `{
  "generated_at": "2024-05-01T00:00:00Z",
  "count": 2,
  "documents": [
    {"id": "a", "title": "Alpha", "category": "X", "date": {"start": "2024-01-01"}},
    {"id": "b", "title": "Beta", "category": "Y", "last_edited_time": "2023-01-01T00:00:00Z"}
  ]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	return path
}

func docIDs(docs []models.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}

func TestLoadFallsBackInOrder(t *testing.T) {
	var mu sync.Mutex
	var requested []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requested = append(requested, r.URL.Path)
		mu.Unlock()
		switch r.URL.Path {
		case "/data/documents.json":
			http.NotFound(w, r)
		case "/data/documents.sample.json":
			_, _ = w.Write([]byte("{not json"))
		case "/data/notion_documents.json":
			_, _ = w.Write([]byte(sampleFeed))
		default:
			t.Errorf("unexpected request for %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	loader := NewLoader(srv.URL + "/")
	catalog, err := loader.Load(context.Background(), DefaultSources)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if catalog.SourceUsed != "./data/notion_documents.json" {
		t.Errorf("Expected source ./data/notion_documents.json, got %s", catalog.SourceUsed)
	}
	if diff := cmp.Diff([]string{"a", "b"}, docIDs(catalog.Documents)); diff != "" {
		t.Errorf("documents mismatch (-want +got):\n%s", diff)
	}
	if catalog.GeneratedAt() != "2024-05-01T00:00:00Z" {
		t.Errorf("Expected generated_at metadata, got %q", catalog.GeneratedAt())
	}
	if _, ok := catalog.Meta["documents"]; ok {
		t.Error("Expected documents to be excluded from metadata")
	}

	wantOrder := []string{"/data/documents.json", "/data/documents.sample.json", "/data/notion_documents.json"}
	if diff := cmp.Diff(wantOrder, requested); diff != "" {
		t.Errorf("request order mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadDisablesCaching(t *testing.T) {
	var cacheControl, pragma string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cacheControl = r.Header.Get("Cache-Control")
		pragma = r.Header.Get("Pragma")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	loader := NewLoader("")
	if _, err := loader.Load(context.Background(), []string{srv.URL + "/feed.json"}); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cacheControl != "no-store" {
		t.Errorf("Expected Cache-Control no-store, got %q", cacheControl)
	}
	if pragma != "no-cache" {
		t.Errorf("Expected Pragma no-cache, got %q", pragma)
	}
}

func TestZeroLoaderFetchesHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	var loader Loader
	catalog, err := loader.Load(context.Background(), []string{srv.URL + "/feed.json"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(catalog.Documents) == 0 {
		t.Error("Expected documents from a zero-value loader")
	}
}

func TestLoadNoSourceAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	loader := NewLoader(srv.URL)
	catalog, err := loader.Load(context.Background(), DefaultSources)
	if err == nil {
		t.Fatal("Expected error when every source fails, got nil")
	}
	if catalog != nil {
		t.Errorf("Expected no catalog, got %+v", catalog)
	}
	if !errors.Is(err, ErrNoSourceAvailable) {
		t.Errorf("Expected ErrNoSourceAvailable, got %v", err)
	}

	var noSource *NoSourceError
	if !errors.As(err, &noSource) {
		t.Fatalf("Expected *NoSourceError, got %T", err)
	}
	if len(noSource.Attempts) != len(DefaultSources) {
		t.Fatalf("Expected %d attempts, got %d", len(DefaultSources), len(noSource.Attempts))
	}
	for _, attempt := range noSource.Attempts {
		if !errors.Is(attempt.Err, ErrSourceUnreachable) {
			t.Errorf("Expected unreachable error for %s, got %v", attempt.Locator, attempt.Err)
		}
	}
}

func TestLoadNoCandidates(t *testing.T) {
	_, err := NewLoader("").Load(context.Background(), nil)
	if !errors.Is(err, ErrNoSourceAvailable) {
		t.Errorf("Expected ErrNoSourceAvailable, got %v", err)
	}
}

func TestLoadLocalFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "data/documents.sample.json", sampleFeed)

	loader := NewLoader(dir)
	catalog, err := loader.Load(context.Background(), DefaultSources)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if catalog.SourceUsed != "./data/documents.sample.json" {
		t.Errorf("Expected sample source, got %s", catalog.SourceUsed)
	}
	if len(catalog.Documents) != 2 {
		t.Errorf("Expected 2 documents, got %d", len(catalog.Documents))
	}
}

func TestFetchClassifiesFailures(t *testing.T) {
	dir := t.TempDir()
	broken := writeFile(t, dir, "broken.json", `[1, 2, 3]`)

	loader := NewLoader("")
	_, err := loader.Fetch(context.Background(), broken)
	if !errors.Is(err, ErrSourceMalformed) {
		t.Errorf("Expected ErrSourceMalformed for top-level array, got %v", err)
	}

	_, err = loader.Fetch(context.Background(), filepath.Join(dir, "missing.json"))
	if !errors.Is(err, ErrSourceUnreachable) {
		t.Errorf("Expected ErrSourceUnreachable for missing file, got %v", err)
	}
}

func TestDecodeFeed(t *testing.T) {
	tests := []struct {
		name     string
		feed     string
		expected []string
	}{
		{name: "missing documents field", feed: `{"generated_at": "x"}`, expected: []string{}},
		{name: "documents is not an array", feed: `{"documents": {"id": "a"}}`, expected: []string{}},
		{name: "documents is null", feed: `{"documents": null}`, expected: []string{}},
		{name: "leading byte order mark", feed: "\xef\xbb\xbf" + `{"documents": [{"id": "a"}]}`, expected: []string{"a"}},
		{
			name:     "skips records that are not objects",
			feed:     `{"documents": [{"id": "a"}, "junk", null, 7, {"id": "b"}]}`,
			expected: []string{"a", "b"},
		},
		{
			name:     "tolerates wrong field types",
			feed:     `{"documents": [{"id": 42, "title": ["x"], "date": "2024-01-01", "properties": "none"}]}`,
			expected: []string{"42"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog, err := DecodeFeed([]byte(tt.feed))
			if err != nil {
				t.Fatalf("DecodeFeed failed: %v", err)
			}
			if diff := cmp.Diff(tt.expected, docIDs(catalog.Documents)); diff != "" {
				t.Errorf("documents mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeFeedLenientFields(t *testing.T) {
	catalog, err := DecodeFeed([]byte(`{"documents": [{"id": "a", "title": 5, "date": "soon", "category": null, "properties": {"k": [1, 2]}}]}`))
	if err != nil {
		t.Fatalf("DecodeFeed failed: %v", err)
	}
	doc := catalog.Documents[0]
	if doc.Title != "" || doc.Category != "" {
		t.Errorf("Expected wrongly typed fields to be empty, got title=%q category=%q", doc.Title, doc.Category)
	}
	if doc.Date != nil {
		t.Errorf("Expected non-object date to be absent, got %+v", doc.Date)
	}
	if _, ok := doc.Properties["k"]; !ok {
		t.Errorf("Expected properties to be kept, got %v", doc.Properties)
	}
}

func TestDecodeFeedRejectsNonObjects(t *testing.T) {
	for _, feed := range []string{"", "null", "[]", `"documents"`, "{broken"} {
		if _, err := DecodeFeed([]byte(feed)); err == nil {
			t.Errorf("Expected error for feed %q, got nil", feed)
		}
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		locator  string
		expected string
	}{
		{name: "no base", base: "", locator: "./data/documents.json", expected: "./data/documents.json"},
		{name: "url base", base: "https://example.org/site/", locator: "./data/documents.json", expected: "https://example.org/site/data/documents.json"},
		{name: "bucket base", base: "gs://feeds/site/", locator: "data/documents.json", expected: "gs://feeds/site/data/documents.json"},
		{name: "directory base", base: "/srv/site", locator: "./data/documents.json", expected: filepath.Join("/srv/site", "data/documents.json")},
		{name: "absolute url ignores base", base: "/srv/site", locator: "https://cdn.example.org/feed.json", expected: "https://cdn.example.org/feed.json"},
		{name: "absolute path ignores base", base: "https://example.org/", locator: "/tmp/feed.json", expected: "/tmp/feed.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewLoader(tt.base).Resolve(tt.locator); got != tt.expected {
				t.Errorf("Resolve(%q) = %q, expected %q", tt.locator, got, tt.expected)
			}
		})
	}
}

func TestParquetSnapshot(t *testing.T) {
	source := &models.Catalog{
		Documents: []models.Document{
			{ID: "a", Title: "Alpha", Category: "X", Date: &models.DateRange{Start: "2024-01-01", End: "2024-02-01"}, Properties: map[string]any{"pages": float64(12)}},
			{ID: "b", Title: "Beta", LastEditedTime: "2023-01-01T00:00:00Z", ImageURL: "https://example.org/b.png"},
		},
		Meta: map[string]any{"generated_at": "2024-05-01T00:00:00Z"},
	}

	var buf bytes.Buffer
	if err := EncodeParquet(&buf, source); err != nil {
		t.Fatalf("EncodeParquet failed: %v", err)
	}

	dir := t.TempDir()
	path := writeFile(t, dir, "snapshot.parquet", buf.String())

	catalog, err := NewLoader("").Load(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(source.Documents, catalog.Documents); diff != "" {
		t.Errorf("documents mismatch (-want +got):\n%s", diff)
	}
	if catalog.GeneratedAt() != "2024-05-01T00:00:00Z" {
		t.Errorf("Expected metadata to survive, got %v", catalog.Meta)
	}
}

func TestEncodeFeed(t *testing.T) {
	source := &models.Catalog{
		Documents: []models.Document{{ID: "a", Title: "会議 <資料>"}},
		Meta:      map[string]any{"generated_at": "2024-05-01T00:00:00Z"},
	}

	var buf bytes.Buffer
	if err := EncodeFeed(&buf, source); err != nil {
		t.Fatalf("EncodeFeed failed: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("会議 <資料>")) {
		t.Errorf("Expected unescaped UTF-8 output, got %s", buf.String())
	}

	decoded, err := DecodeFeed(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeFeed failed: %v", err)
	}
	if decoded.GeneratedAt() != "2024-05-01T00:00:00Z" || len(decoded.Documents) != 1 {
		t.Errorf("Unexpected decoded feed: %+v", decoded)
	}
}
