package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/docbrowser/internal/catalog"
)

const feed = `{
  "generated_at": "2024-05-01T00:00:00Z",
  "documents": [
    {"id": "old", "title": "Harbor letter", "category": "Letters", "date": {"start": "1900-01-01"}},
    {"id": "new", "title": "City map", "category": "Maps", "date": {"start": "2001-01-01"}, "image_url": "https://example.org/map.png"},
    {"id": "mid", "title": "Mill letter", "category": "Letters", "date": {"start": "1950-01-01"}}
  ]
}`

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func writeFeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "documents.json")
	if err := os.WriteFile(path, []byte(feed), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DOCBROWSER_SOURCES", "")
	t.Setenv("DOCBROWSER_BASE", "")
	t.Setenv("NOTION_TOKEN", "")
	t.Setenv("NOTION_DATABASE_ID", "")

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestListJSON(t *testing.T) {
	src := writeFeed(t)
	out, err := run(t, "list", "--source", src, "--format", "json", "--category", "Letters")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	var got listing
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if got.Source != src || got.GeneratedAt != "2024-05-01T00:00:00Z" || got.Count != 2 {
		t.Errorf("unexpected listing header: %+v", got)
	}
	var ids []string
	for _, doc := range got.Documents {
		ids = append(ids, doc.ID)
	}
	if diff := cmp.Diff([]string{"mid", "old"}, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestListYAMLAndText(t *testing.T) {
	src := writeFeed(t)

	out, err := run(t, "list", "--source", src, "--format", "yaml", "-q", "ＨＡＲＢＯＲ")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	var got listing
	if err := yaml.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid YAML output: %v\n%s", err, out)
	}
	if got.Count != 1 || got.Documents[0].ID != "old" {
		t.Errorf("Expected only the harbor letter, got %+v", got)
	}

	out, err = run(t, "list", "--source", src)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "3 documents") || !strings.Contains(out, "generated_at: 2024-05-01T00:00:00Z") {
		t.Errorf("unexpected text output:\n%s", out)
	}
	if strings.Index(out, "City map") > strings.Index(out, "Harbor letter") {
		t.Errorf("Expected newest first:\n%s", out)
	}

	if _, err := run(t, "list", "--source", src, "--format", "xml"); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestListFallsBackToNextSource(t *testing.T) {
	src := writeFeed(t)
	missing := filepath.Join(t.TempDir(), "missing.json")

	out, err := run(t, "list", "--source", missing, "--source", src, "--format", "json")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, `"source": "`+src+`"`) {
		t.Errorf("Expected second source to be used:\n%s", out)
	}
}

func TestLoadFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.json")
	_, err := run(t, "list", "--source", missing)
	if !errors.Is(err, catalog.ErrNoSourceAvailable) {
		t.Errorf("Expected ErrNoSourceAvailable, got %v", err)
	}
}

func TestShow(t *testing.T) {
	src := writeFeed(t)
	out, err := run(t, "show", "new", "--source", src, "--actual-size")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(out, "City map") || !strings.Contains(out, "Image (actual size)") {
		t.Errorf("unexpected detail:\n%s", out)
	}

	if _, err := run(t, "show", "nope", "--source", src); !errors.Is(err, errDocumentNotFound) {
		t.Errorf("Expected errDocumentNotFound, got %v", err)
	}
}

func TestCategoriesAndRecent(t *testing.T) {
	src := writeFeed(t)
	out, err := run(t, "categories", "--source", src)
	if err != nil {
		t.Fatalf("categories failed: %v", err)
	}
	if !strings.Contains(out, "Letters") || !strings.Contains(out, "Maps") {
		t.Errorf("unexpected categories:\n%s", out)
	}

	out, err = run(t, "recent", "--source", src, "-n", "1")
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if !strings.Contains(out, "City map") || strings.Contains(out, "Mill letter") {
		t.Errorf("Expected only the newest card:\n%s", out)
	}
}

func TestSources(t *testing.T) {
	src := writeFeed(t)
	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("[1, 2"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	missing := filepath.Join(t.TempDir(), "missing.json")

	out, err := run(t, "sources", "--source", missing, "--source", bad, "--source", src)
	if err != nil {
		t.Fatalf("sources failed: %v", err)
	}
	for _, want := range []string{"unreachable", "malformed", "ok"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}

	if _, err := run(t, "sources", "--source", missing); !errors.Is(err, catalog.ErrNoSourceAvailable) {
		t.Errorf("Expected ErrNoSourceAvailable, got %v", err)
	}
}

func TestExport(t *testing.T) {
	src := writeFeed(t)
	dst := filepath.Join(t.TempDir(), "snapshot.parquet")

	if _, err := run(t, "export", "--source", src, "--output", dst); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	out, err := run(t, "list", "--source", dst, "--format", "json")
	if err != nil {
		t.Fatalf("list from snapshot failed: %v", err)
	}
	if !strings.Contains(out, `"count": 3`) || !strings.Contains(out, "2024-05-01T00:00:00Z") {
		t.Errorf("unexpected snapshot listing:\n%s", out)
	}

	if _, err := run(t, "export", "--source", src); !errors.Is(err, errOutputRequired) {
		t.Errorf("Expected errOutputRequired, got %v", err)
	}
}

func TestSyncRequiresCredentials(t *testing.T) {
	if _, err := run(t, "sync"); !errors.Is(err, errNotionConfig) {
		t.Errorf("Expected errNotionConfig, got %v", err)
	}
}

func TestRecentRejectsNegativeLimit(t *testing.T) {
	src := writeFeed(t)
	if _, err := run(t, "recent", "--source", src, "--limit", "-1"); !errors.Is(err, errNegativeLimit) {
		t.Errorf("Expected errNegativeLimit, got %v", err)
	}
	out, err := run(t, "recent", "--source", src, "--limit", "0")
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if strings.Contains(out, "City map") {
		t.Errorf("Expected no cards for --limit 0:\n%s", out)
	}
}
