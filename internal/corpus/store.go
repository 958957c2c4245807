package corpus

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/caira/backend/pkg/logger"
)

// ErrLoad marks a corpus that could not be loaded in full. The server must not
// serve queries when Load fails; a partial corpus is never returned.
var ErrLoad = errors.New("corpus load failed")

type Category string

const (
	CategoryIncident Category = "incident"
	CategoryRunbook  Category = "runbook"
	CategoryLog      Category = "log"
)

var categoryByDir = map[string]Category{
	"incidents": CategoryIncident,
	"runbooks":  CategoryRunbook,
	"logs":      CategoryLog,
}

type Document struct {
	ID       string
	Category Category
	Title    string
	Content  string
}

// Store holds the full document corpus, loaded once at startup and read-only
// afterwards. Document order is the load order and is stable across restarts.
type Store struct {
	docs []Document
	byID map[string]int
}

// Load reads every document under root/<category> for the declared categories.
// All declared directories must exist and every eligible file must be readable.
func Load(root string, categories []string) (*Store, error) {
	store := &Store{byID: make(map[string]int)}

	for _, dir := range categories {
		category, ok := categoryByDir[dir]
		if !ok {
			category = Category(strings.TrimSuffix(dir, "s"))
		}

		dirPath := filepath.Join(root, dir)
		entries, err := os.ReadDir(dirPath)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrLoad, dirPath, err)
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}

			ext := strings.ToLower(filepath.Ext(entry.Name()))
			if ext != ".txt" && ext != ".md" && ext != ".html" && ext != ".htm" {
				continue
			}

			path := filepath.Join(dirPath, entry.Name())
			raw, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("%w: reading %s: %v", ErrLoad, path, err)
			}

			content := string(raw)
			if ext == ".html" || ext == ".htm" {
				content = stripHTML(content)
			}

			doc := Document{
				ID:       entry.Name(),
				Category: category,
				Title:    titleFromFilename(entry.Name()),
				Content:  content,
			}

			if _, exists := store.byID[doc.ID]; exists {
				return nil, fmt.Errorf("%w: duplicate document id %q", ErrLoad, doc.ID)
			}

			store.byID[doc.ID] = len(store.docs)
			store.docs = append(store.docs, doc)
		}
	}

	logger.Info("Corpus loaded",
		zap.String("root", root),
		zap.Int("documents", len(store.docs)),
	)

	return store, nil
}

// NewStore builds a store from an in-memory document set, preserving slice
// order. Used for synthetic corpora in tests and evaluation runs.
func NewStore(docs []Document) *Store {
	store := &Store{byID: make(map[string]int, len(docs))}
	for _, doc := range docs {
		store.byID[doc.ID] = len(store.docs)
		store.docs = append(store.docs, doc)
	}
	return store
}

// Documents returns the corpus in load order. Callers must not mutate it.
func (s *Store) Documents() []Document {
	return s.docs
}

func (s *Store) Get(id string) (Document, bool) {
	idx, ok := s.byID[id]
	if !ok {
		return Document{}, false
	}
	return s.docs[idx], true
}

func (s *Store) Len() int {
	return len(s.docs)
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func stripHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	doc.Find("script, style, nav, footer, header, aside").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	text := doc.Find("body").Text()
	text = whitespaceRun.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}

func titleFromFilename(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return strings.ReplaceAll(base, "_", " ")
}
