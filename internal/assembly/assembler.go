package assembly

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/caira/backend/internal/history"
	"github.com/caira/backend/internal/retrieval"
	"github.com/caira/backend/pkg/logger"
)

// NoContextMarker is returned as the assembled text when neither documents
// nor historical data matched. Callers must treat answers produced without
// context as ungrounded.
const NoContextMarker = "NO RELEVANT CONTEXT FOUND"

const DefaultMaxContextChars = 4000

type Citation struct {
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
	Category   string `json:"category"`
	Score      int    `json:"score"`
}

// Context is the immutable per-query bundle passed to the response
// generator. Citations list exactly the documents whose full content made it
// into Text, never a superset.
type Context struct {
	Query       string
	Text        string
	Citations   []Citation
	Historical  []history.Summary
	DroppedDocs int
}

func (c *Context) Empty() bool {
	return len(c.Citations) == 0 && len(c.Historical) == 0
}

// Assemble builds the generation context. Documents are added whole, in rank
// order, while they fit the budget; a document that would overflow is dropped
// entirely so the citation list never points at truncated content. The
// historical block is appended after the document budget.
func Assemble(query string, docs []retrieval.ScoredDocument, summaries []history.Summary, maxChars int) *Context {
	if maxChars <= 0 {
		maxChars = DefaultMaxContextChars
	}

	ctx := &Context{
		Query:      query,
		Historical: summaries,
	}

	var b strings.Builder

	for _, scored := range docs {
		block := documentBlock(scored)
		if b.Len()+len(block) > maxChars {
			ctx.DroppedDocs++
			continue
		}

		b.WriteString(block)
		ctx.Citations = append(ctx.Citations, Citation{
			DocumentID: scored.Document.ID,
			Title:      scored.Document.Title,
			Category:   string(scored.Document.Category),
			Score:      scored.Score,
		})
	}

	if len(summaries) > 0 {
		b.WriteString(historicalBlock(summaries))
	}

	if b.Len() == 0 {
		ctx.Text = NoContextMarker
		return ctx
	}

	ctx.Text = strings.TrimRight(b.String(), "\n")

	if ctx.DroppedDocs > 0 {
		logger.Debug("Documents dropped from context budget",
			zap.Int("dropped", ctx.DroppedDocs),
			zap.Int("included", len(ctx.Citations)),
		)
	}

	return ctx
}

func documentBlock(scored retrieval.ScoredDocument) string {
	doc := scored.Document
	return fmt.Sprintf("[Source: %s] (%s) %s\n%s\n\n", doc.ID, doc.Category, doc.Title, doc.Content)
}

// historicalBlock renders a fixed machine-parseable summary, one line per
// matched incident type.
func historicalBlock(summaries []history.Summary) string {
	var b strings.Builder
	b.WriteString("HISTORICAL INCIDENT DATA\n")
	for _, s := range summaries {
		fmt.Fprintf(&b, "type=%s count=%d avg_resolution_hours=%.2f dominant_severity=%s open_ratio=%.2f\n",
			s.IncidentType, s.TotalCount, s.AvgResolutionHours, s.DominantSeverity, s.OpenRatio)
	}
	return b.String()
}
