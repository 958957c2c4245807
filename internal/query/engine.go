package query

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/caira/backend/internal/assembly"
	"github.com/caira/backend/internal/cache/redis"
	"github.com/caira/backend/internal/history"
	"github.com/caira/backend/internal/llm"
	"github.com/caira/backend/internal/metrics"
	"github.com/caira/backend/internal/retrieval"
	"github.com/caira/backend/internal/storage/models"
	"github.com/caira/backend/internal/storage/sqlite"
	"github.com/caira/backend/pkg/logger"
	"github.com/caira/backend/pkg/utils"
)

const noContextAnswer = "I could not find relevant documentation or historical incidents for this question. " +
	"Please rephrase with the affected service or error message, or escalate to the on-call engineer."

// Generator is the opaque response-generation boundary. *llm.Client satisfies
// it; tests substitute fakes.
type Generator interface {
	GenerateAnswer(ctx context.Context, query, context string) (string, error)
}

// Engine orchestrates one query: retrieve documents, match historical
// incidents, assemble context, generate the answer. db and cache may be nil;
// persistence and caching are optional layers.
type Engine struct {
	retriever *retrieval.Retriever
	matcher   *history.Matcher
	generator Generator
	db        *sqlite.Client
	cache     *redis.Client

	maxContextChars int
}

type Request struct {
	Query  string
	UserID string
}

type Source struct {
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
	Category   string `json:"category"`
	Score      int    `json:"score"`
}

type Response struct {
	ID         string            `json:"id"`
	Query      string            `json:"query"`
	Answer     string            `json:"answer"`
	Sources    []Source          `json:"sources"`
	Historical []history.Summary `json:"historical,omitempty"`
	Confidence float64           `json:"confidence"`
	Grounded   bool              `json:"grounded"`
	Degraded   bool              `json:"degraded"`
	LatencyMS  int               `json:"latency_ms"`
	CacheHit   bool              `json:"cache_hit"`
}

func NewEngine(retriever *retrieval.Retriever, matcher *history.Matcher, generator Generator, db *sqlite.Client, cache *redis.Client, maxContextChars int) *Engine {
	return &Engine{
		retriever:       retriever,
		matcher:         matcher,
		generator:       generator,
		db:              db,
		cache:           cache,
		maxContextChars: maxContextChars,
	}
}

// Process answers one query. Generation failure degrades the response: the
// retrieved sources and historical stats are still returned with
// Degraded=true so the client can retry generation later.
func (e *Engine) Process(ctx context.Context, req Request) (*Response, error) {
	startTime := time.Now()
	queryID := uuid.New().String()

	logger.Info("Processing query",
		zap.String("query_id", queryID),
		zap.String("query", req.Query),
	)

	queryHash := utils.HashString(req.Query)

	if cached := e.cacheLookup(ctx, queryHash); cached != nil {
		cached.CacheHit = true
		cached.LatencyMS = int(time.Since(startTime).Milliseconds())
		return cached, nil
	}

	docs := e.retriever.Retrieve(req.Query)
	summaries := e.matcher.Match(req.Query)

	metrics.RecordRetrievedDocs(len(docs))
	metrics.RecordHistoricalMatches(len(summaries))

	assembled := assembly.Assemble(req.Query, docs, summaries, e.maxContextChars)

	resp := &Response{
		ID:         queryID,
		Query:      req.Query,
		Sources:    sourcesFromCitations(assembled.Citations),
		Historical: summaries,
		Confidence: confidence(len(assembled.Citations), len(summaries)),
	}

	if assembled.Empty() {
		// Nothing to ground an answer on; skip generation entirely rather
		// than let the model invent one.
		resp.Answer = noContextAnswer
		resp.Grounded = false
	} else {
		answer, err := e.generator.GenerateAnswer(ctx, req.Query, assembled.Text)
		switch {
		case err == nil:
			resp.Answer = answer
			resp.Grounded = true
		case errors.Is(err, llm.ErrGeneration):
			logger.Warn("Generation failed, returning degraded response",
				zap.String("query_id", queryID),
				zap.Error(err),
			)
			metrics.RecordGenerationFailure()
			resp.Answer = "Answer generation is temporarily unavailable. The sources below were retrieved for your question; please retry shortly."
			resp.Grounded = false
			resp.Degraded = true
		default:
			return nil, err
		}
	}

	resp.LatencyMS = int(time.Since(startTime).Milliseconds())

	e.persist(req, resp)

	if !resp.Degraded {
		e.cacheStore(ctx, queryHash, resp)
	}

	logger.Info("Query processed",
		zap.String("query_id", queryID),
		zap.Int("sources", len(resp.Sources)),
		zap.Int("historical_matches", len(summaries)),
		zap.Float64("confidence", resp.Confidence),
		zap.Bool("degraded", resp.Degraded),
		zap.Int("latency_ms", resp.LatencyMS),
	)

	return resp, nil
}

// confidence follows min(100, 25*docs + 15*matches), normalized to [0, 1].
func confidence(docs, matches int) float64 {
	score := 25*docs + 15*matches
	if score > 100 {
		score = 100
	}
	return float64(score) / 100
}

func sourcesFromCitations(citations []assembly.Citation) []Source {
	sources := make([]Source, 0, len(citations))
	for _, c := range citations {
		sources = append(sources, Source{
			DocumentID: c.DocumentID,
			Title:      c.Title,
			Category:   c.Category,
			Score:      c.Score,
		})
	}
	return sources
}

func (e *Engine) cacheLookup(ctx context.Context, queryHash string) *Response {
	if e.cache == nil {
		return nil
	}

	var cached Response
	found, err := e.cache.GetResponse(ctx, queryHash, &cached)
	if err != nil {
		logger.Warn("Cache lookup failed", zap.Error(err))
		metrics.RecordCacheMiss()
		return nil
	}
	if !found {
		metrics.RecordCacheMiss()
		return nil
	}

	metrics.RecordCacheHit()
	return &cached
}

func (e *Engine) cacheStore(ctx context.Context, queryHash string, resp *Response) {
	if e.cache == nil {
		return
	}

	if err := e.cache.SetResponse(ctx, queryHash, resp); err != nil {
		logger.Warn("Cache store failed", zap.Error(err))
	}
}

func (e *Engine) persist(req Request, resp *Response) {
	if e.db == nil {
		return
	}

	record := &models.QueryRecord{
		ID:                resp.ID,
		UserID:            req.UserID,
		QueryText:         req.Query,
		Response:          resp.Answer,
		Confidence:        resp.Confidence,
		DocsRetrieved:     len(resp.Sources),
		HistoricalMatches: len(resp.Historical),
		Degraded:          resp.Degraded,
		LatencyMS:         resp.LatencyMS,
		CreatedAt:         time.Now(),
	}

	if err := e.db.InsertQueryRecord(record); err != nil {
		logger.Warn("Failed to persist query record", zap.Error(err))
		return
	}

	for _, source := range resp.Sources {
		err := e.db.InsertQuerySource(&models.QuerySource{
			QueryID:    resp.ID,
			DocumentID: source.DocumentID,
			Title:      source.Title,
			Category:   source.Category,
			Score:      source.Score,
		})
		if err != nil {
			logger.Warn("Failed to persist query source", zap.Error(err))
		}
	}
}
