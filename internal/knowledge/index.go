// Package knowledge holds the helpdesk article corpus and its lexical
// relevance ranking. The index is read-only after construction and is
// shared across sessions without locking.
package knowledge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/deskd-io/deskd/pkg/protocol"
)

const (
	titleWeight    = 3
	keywordWeight  = 2
	categoryWeight = 2
	bodyWeight     = 1
	topicBoost     = 2
	pinnedWeight   = 1
)

// Result pairs an article with its relevance score.
type Result struct {
	Article protocol.KnowledgeArticle
	Score   float64
}

// Index is the searchable article corpus.
type Index struct {
	articles []protocol.KnowledgeArticle // sorted by ID
	byID     map[string]int
}

// New builds an index from the given loaders, applied in order. Later
// loaders may not redefine an article ID already loaded.
func New(loaders ...Loader) (*Index, error) {
	idx := &Index{byID: make(map[string]int)}
	for _, l := range loaders {
		articles, err := l.Load()
		if err != nil {
			return nil, fmt.Errorf("knowledge: load: %w", err)
		}
		for _, a := range articles {
			if a.ID == "" {
				return nil, fmt.Errorf("knowledge: article %q has no id", a.Title)
			}
			if _, dup := idx.byID[a.ID]; dup {
				return nil, fmt.Errorf("knowledge: duplicate article id %q", a.ID)
			}
			idx.byID[a.ID] = len(idx.articles)
			idx.articles = append(idx.articles, a)
		}
	}
	sort.Slice(idx.articles, func(i, j int) bool {
		return idx.articles[i].ID < idx.articles[j].ID
	})
	for i, a := range idx.articles {
		idx.byID[a.ID] = i
	}
	return idx, nil
}

// Len returns the number of articles in the corpus.
func (idx *Index) Len() int { return len(idx.articles) }

// Get returns an article by ID.
func (idx *Index) Get(id string) (protocol.KnowledgeArticle, bool) {
	i, ok := idx.byID[id]
	if !ok {
		return protocol.KnowledgeArticle{}, false
	}
	return idx.articles[i], true
}

// Search ranks articles against query. topic, when non-empty, boosts
// articles in that category (the session's last topic). Ties break by
// ascending article ID, so identical queries always return identical
// orderings. An empty result is a valid outcome, not an error.
func (idx *Index) Search(query string, topK int, topic protocol.TicketCategory) []Result {
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	var results []Result
	for _, a := range idx.articles {
		score := scoreArticle(a, terms)
		if score == 0 {
			continue
		}
		if topic != "" && a.Category == topic {
			score += topicBoost
		}
		if a.Pinned {
			score += pinnedWeight
		}
		results = append(results, Result{Article: a, Score: float64(score)})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Article.ID < results[j].Article.ID
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}

// Related resolves the article's cross-reference IDs. Articles without
// explicit references fall back to same-category neighbours in ascending
// ID order.
func (idx *Index) Related(article protocol.KnowledgeArticle, excludeSelf bool) []protocol.KnowledgeArticle {
	var out []protocol.KnowledgeArticle
	if len(article.Related) > 0 {
		for _, id := range article.Related {
			if excludeSelf && id == article.ID {
				continue
			}
			if a, ok := idx.Get(id); ok {
				out = append(out, a)
			}
		}
		return out
	}
	for _, a := range idx.articles {
		if a.Category != article.Category {
			continue
		}
		if excludeSelf && a.ID == article.ID {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Pinned returns the curated pinned articles, used as the generic-FAQ
// fallback when a search comes up empty.
func (idx *Index) Pinned(limit int) []protocol.KnowledgeArticle {
	var out []protocol.KnowledgeArticle
	for _, a := range idx.articles {
		if a.Pinned {
			out = append(out, a)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func scoreArticle(a protocol.KnowledgeArticle, terms []string) int {
	title := strings.ToLower(a.Title)
	body := strings.ToLower(a.Body)
	category := strings.ToLower(string(a.Category))

	score := 0
	for _, term := range terms {
		if strings.Contains(title, term) {
			score += titleWeight
		}
		for _, kw := range a.Keywords {
			if strings.Contains(strings.ToLower(kw), term) {
				score += keywordWeight
			}
		}
		if strings.Contains(category, term) {
			score += categoryWeight
		}
		if strings.Contains(body, term) {
			score += bodyWeight
		}
	}
	return score
}

// tokenize lowercases and strips punctuation, dropping single-character
// leftovers and common stop words that carry no ranking signal.
func tokenize(query string) []string {
	var terms []string
	for _, f := range strings.Fields(strings.ToLower(query)) {
		f = strings.Trim(f, ".,;:!?\"'()")
		if len(f) < 2 || stopWords[f] {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true,
	"to": true, "my": true, "how": true, "do": true, "i": true,
	"can": true, "of": true, "in": true, "on": true, "for": true,
	"and": true, "with": true, "it": true, "me": true, "at": true,
}

// Snippet returns the first n runes of an article body, flattened to a
// single line for inclusion in a citation.
func Snippet(a protocol.KnowledgeArticle, n int) string {
	body := strings.Join(strings.Fields(a.Body), " ")
	runes := []rune(body)
	if len(runes) <= n {
		return body
	}
	return string(runes[:n]) + "..."
}
