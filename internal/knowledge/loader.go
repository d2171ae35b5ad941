package knowledge

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	readability "codeberg.org/readeck/go-readability/v2"
	"gopkg.in/yaml.v3"

	"github.com/deskd-io/deskd/pkg/protocol"
)

// Loader supplies articles to the index. Loaders decouple corpus updates
// from ranking logic: the built-in set, YAML packs, and ingested HTML
// pages all feed the same index.
type Loader interface {
	Load() ([]protocol.KnowledgeArticle, error)
}

// StaticLoader serves a fixed article slice.
type StaticLoader []protocol.KnowledgeArticle

func (l StaticLoader) Load() ([]protocol.KnowledgeArticle, error) {
	return []protocol.KnowledgeArticle(l), nil
}

// yamlPack is the on-disk shape of an article pack file.
type yamlPack struct {
	Articles []protocol.KnowledgeArticle `yaml:"articles"`
}

// YAMLLoader reads every *.yaml / *.yml pack in a directory, in filename
// order so loading is deterministic.
type YAMLLoader struct {
	Dir string
}

func (l YAMLLoader) Load() ([]protocol.KnowledgeArticle, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read pack dir %s: %w", l.Dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ext := filepath.Ext(e.Name()); ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var articles []protocol.KnowledgeArticle
	for _, name := range names {
		path := filepath.Join(l.Dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read pack %s: %w", path, err)
		}
		var pack yamlPack
		if err := yaml.Unmarshal(data, &pack); err != nil {
			return nil, fmt.Errorf("parse pack %s: %w", path, err)
		}
		articles = append(articles, pack.Articles...)
	}
	return articles, nil
}

// HTMLLoader ingests a saved HTML document as a single article, using
// readability extraction to strip boilerplate. Keywords are seeded from
// the title; curators refine them in a YAML pack afterwards.
type HTMLLoader struct {
	ID       string
	Category protocol.TicketCategory
	Source   io.Reader
	// BaseURL resolves relative links during extraction; optional.
	BaseURL string
}

func (l HTMLLoader) Load() ([]protocol.KnowledgeArticle, error) {
	var base *url.URL
	if l.BaseURL != "" {
		var err error
		base, err = url.Parse(l.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("html %s: invalid base url: %w", l.ID, err)
		}
	}

	doc, err := readability.FromReader(l.Source, base)
	if err != nil {
		return nil, fmt.Errorf("html %s: parse: %w", l.ID, err)
	}

	var text strings.Builder
	if err := doc.RenderText(&text); err != nil {
		return nil, fmt.Errorf("html %s: render: %w", l.ID, err)
	}

	category := l.Category
	if category == "" {
		category = protocol.CategoryGeneral
	}

	return []protocol.KnowledgeArticle{{
		ID:       l.ID,
		Title:    doc.Title(),
		Category: category,
		Body:     text.String(),
		Keywords: tokenize(doc.Title()),
	}}, nil
}
