package knowledge

import (
	"strings"
	"testing"

	"github.com/deskd-io/deskd/pkg/protocol"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := New(Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return idx
}

func TestSearchPasswordReset(t *testing.T) {
	idx := newTestIndex(t)

	results := idx.Search("how do I reset my password", 3, "")
	if len(results) == 0 {
		t.Fatal("Search: no results for password reset query")
	}
	top := results[0].Article
	if top.ID != "faq001" && top.ID != "kb001" {
		t.Errorf("Search: top result = %s, want faq001 or kb001", top.ID)
	}
}

func TestSearchVPN(t *testing.T) {
	idx := newTestIndex(t)

	results := idx.Search("vpn keeps disconnecting", 3, "")
	if len(results) == 0 {
		t.Fatal("Search: no results for vpn query")
	}
	found := false
	for _, r := range results {
		if r.Article.ID == "kb002" || r.Article.ID == "faq002" {
			found = true
		}
	}
	if !found {
		t.Errorf("Search: vpn query did not surface a VPN article, got %v", resultIDs(results))
	}
}

func TestSearchDeterministic(t *testing.T) {
	idx := newTestIndex(t)

	first := resultIDs(idx.Search("email not syncing in outlook", 5, ""))
	for i := 0; i < 10; i++ {
		got := resultIDs(idx.Search("email not syncing in outlook", 5, ""))
		if strings.Join(got, ",") != strings.Join(first, ",") {
			t.Fatalf("Search: run %d returned %v, want %v", i, got, first)
		}
	}
}

func TestSearchTieBreakAscendingID(t *testing.T) {
	idx, err := New(StaticLoader{
		{ID: "b2", Title: "widget guide", Category: protocol.CategoryGeneral, Body: "widget"},
		{ID: "a1", Title: "widget guide", Category: protocol.CategoryGeneral, Body: "widget"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	results := idx.Search("widget", 10, "")
	if len(results) != 2 {
		t.Fatalf("Search: got %d results, want 2", len(results))
	}
	if results[0].Article.ID != "a1" || results[1].Article.ID != "b2" {
		t.Errorf("Search: tie order = %v, want [a1 b2]", resultIDs(results))
	}
}

func TestSearchTopicBoost(t *testing.T) {
	idx := newTestIndex(t)

	// "connection" matches both the VPN and Wi-Fi guides; a Hardware
	// topic should not invent matches, but a Network topic must keep
	// network articles on top.
	results := idx.Search("connection problems", 3, protocol.CategoryNetwork)
	if len(results) == 0 {
		t.Fatal("Search: no results")
	}
	if results[0].Article.Category != protocol.CategoryNetwork {
		t.Errorf("Search: top category = %s, want Network", results[0].Article.Category)
	}
}

func TestSearchNoMatch(t *testing.T) {
	idx := newTestIndex(t)

	if results := idx.Search("xylophone quantum zebra", 5, ""); len(results) != 0 {
		t.Errorf("Search: got %d results for nonsense query, want 0", len(results))
	}
}

func TestPinnedFallback(t *testing.T) {
	idx := newTestIndex(t)

	pinned := idx.Pinned(3)
	if len(pinned) != 3 {
		t.Fatalf("Pinned: got %d articles, want 3", len(pinned))
	}
	for _, a := range pinned {
		if !a.Pinned {
			t.Errorf("Pinned: article %s is not pinned", a.ID)
		}
	}
	// Deterministic: always the lowest-ID pinned articles.
	if pinned[0].ID != "faq001" {
		t.Errorf("Pinned: first = %s, want faq001", pinned[0].ID)
	}
}

func TestRelated(t *testing.T) {
	idx := newTestIndex(t)

	a, ok := idx.Get("kb001")
	if !ok {
		t.Fatal("Get: kb001 missing")
	}
	related := idx.Related(a, true)
	ids := make([]string, 0, len(related))
	for _, r := range related {
		ids = append(ids, r.ID)
	}
	if len(ids) != 2 || ids[0] != "faq001" || ids[1] != "faq010" {
		t.Errorf("Related: got %v, want [faq001 faq010]", ids)
	}
}

func TestDuplicateIDRejected(t *testing.T) {
	_, err := New(StaticLoader{
		{ID: "dup", Title: "one", Body: "x"},
		{ID: "dup", Title: "two", Body: "y"},
	})
	if err == nil {
		t.Fatal("New: expected error for duplicate article ID")
	}
}

func TestSnippet(t *testing.T) {
	a := protocol.KnowledgeArticle{Body: "line one\nline two with   extra  spaces"}
	got := Snippet(a, 12)
	if got != "line one lin..." {
		t.Errorf("Snippet: got %q", got)
	}
	if s := Snippet(a, 500); strings.HasSuffix(s, "...") {
		t.Errorf("Snippet: short body should not be truncated, got %q", s)
	}
}

func resultIDs(results []Result) []string {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.Article.ID)
	}
	return ids
}
