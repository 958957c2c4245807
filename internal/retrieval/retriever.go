package retrieval

import (
	"sort"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/caira/backend/internal/corpus"
	"github.com/caira/backend/pkg/logger"
)

// stopwords that carry no signal for incident queries. The list is fixed;
// scoring must stay reproducible across releases.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "do": {}, "for": {}, "from": {}, "how": {}, "i": {}, "in": {},
	"is": {}, "it": {}, "my": {}, "of": {}, "on": {}, "or": {}, "our": {},
	"the": {}, "to": {}, "was": {}, "we": {}, "were": {}, "what": {},
	"when": {}, "why": {}, "with": {},
}

type ScoredDocument struct {
	Document corpus.Document
	Score    int
}

// Tokenize lowercases, strips punctuation, splits on whitespace and drops
// stopwords. Retrieval and historical matching share this exact normalization.
func Tokenize(text string) []string {
	lowered := strings.ToLower(text)

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, lowered)

	var tokens []string
	for _, tok := range strings.Fields(cleaned) {
		if _, stop := stopwords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// TokenSet returns the deduplicated token set of a text.
func TokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range Tokenize(text) {
		set[tok] = struct{}{}
	}
	return set
}

// Retriever ranks corpus documents by lexical overlap with a query. Document
// token sets are computed once because the corpus never changes after load.
type Retriever struct {
	docs      []corpus.Document
	tokenSets []map[string]struct{}
	topK      int
}

func New(store *corpus.Store, topK int) *Retriever {
	docs := store.Documents()

	tokenSets := make([]map[string]struct{}, len(docs))
	for i, doc := range docs {
		tokenSets[i] = TokenSet(doc.Title + " " + doc.Content)
	}

	return &Retriever{
		docs:      docs,
		tokenSets: tokenSets,
		topK:      topK,
	}
}

// Retrieve returns up to topK documents scored by token overlap, highest
// first. Zero-score documents are never returned. An empty or all-stopword
// query yields an empty result, not an error.
func (r *Retriever) Retrieve(query string) []ScoredDocument {
	return r.RetrieveK(query, r.topK)
}

func (r *Retriever) RetrieveK(query string, k int) []ScoredDocument {
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		logger.Debug("Empty query after normalization, skipping retrieval")
		return nil
	}

	querySet := make(map[string]struct{}, len(queryTokens))
	for _, tok := range queryTokens {
		querySet[tok] = struct{}{}
	}

	var scored []ScoredDocument
	for i, doc := range r.docs {
		score := overlap(querySet, r.tokenSets[i])
		if score == 0 {
			continue
		}
		scored = append(scored, ScoredDocument{Document: doc, Score: score})
	}

	// Stable sort keeps corpus load order for equal scores, so identical
	// queries always return identical rankings.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}

	logger.Debug("Documents retrieved",
		zap.Int("query_tokens", len(querySet)),
		zap.Int("results", len(scored)),
	)

	return scored
}

func overlap(query, doc map[string]struct{}) int {
	// Iterate the smaller set.
	if len(doc) < len(query) {
		query, doc = doc, query
	}

	count := 0
	for tok := range query {
		if _, ok := doc[tok]; ok {
			count++
		}
	}
	return count
}
