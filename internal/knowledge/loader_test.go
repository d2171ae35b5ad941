package knowledge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deskd-io/deskd/pkg/protocol"
)

func TestYAMLLoader(t *testing.T) {
	dir := t.TempDir()
	pack := `articles:
  - id: ext001
    title: Monitor flickering fix
    category: Hardware
    keywords: [monitor, flicker, display]
    body: Reseat the display cable and update graphics drivers.
`
	if err := os.WriteFile(filepath.Join(dir, "hardware.yaml"), []byte(pack), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	articles, err := YAMLLoader{Dir: dir}.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("Load: got %d articles, want 1", len(articles))
	}
	a := articles[0]
	if a.ID != "ext001" || a.Category != protocol.CategoryHardware {
		t.Errorf("Load: got %+v", a)
	}
	if len(a.Keywords) != 3 {
		t.Errorf("Load: got %d keywords, want 3", len(a.Keywords))
	}
}

func TestYAMLLoaderMissingDir(t *testing.T) {
	articles, err := YAMLLoader{Dir: filepath.Join(t.TempDir(), "absent")}.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if articles != nil {
		t.Errorf("Load: got %v, want nil for missing dir", articles)
	}
}

func TestHTMLLoader(t *testing.T) {
	page := `<html><head><title>Restoring deleted files</title></head><body>
<article><h1>Restoring deleted files</h1>
<p>Deleted files land in the Recycle Bin first. Right-click the file and
choose Restore to put it back in its original folder. Files removed from
the Recycle Bin can still be recovered from the nightly backup share, so
open a request with the date the file was last seen.</p>
</article></body></html>`

	articles, err := HTMLLoader{
		ID:      "ext-restore",
		Source:  strings.NewReader(page),
		BaseURL: "https://intranet.example.com/kb/restore",
	}.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("Load: got %d articles, want 1", len(articles))
	}
	a := articles[0]
	if a.ID != "ext-restore" {
		t.Errorf("Load: ID = %s", a.ID)
	}
	if a.Category != protocol.CategoryGeneral {
		t.Errorf("Load: category = %s, want General default", a.Category)
	}
	if !strings.Contains(a.Body, "Recycle Bin") {
		t.Errorf("Load: body missing extracted text: %q", a.Body)
	}
}

func TestIndexMergesLoaders(t *testing.T) {
	extra := StaticLoader{{ID: "zz900", Title: "Extra", Category: protocol.CategoryGeneral, Body: "extra article"}}
	idx, err := New(Default(), extra)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if idx.Len() != len(defaultArticles)+1 {
		t.Errorf("Len: got %d, want %d", idx.Len(), len(defaultArticles)+1)
	}
	if _, ok := idx.Get("zz900"); !ok {
		t.Error("Get: merged article missing")
	}
}
