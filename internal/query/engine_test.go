package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/caira/backend/internal/corpus"
	"github.com/caira/backend/internal/history"
	"github.com/caira/backend/internal/llm"
	"github.com/caira/backend/internal/retrieval"
)

type fakeGenerator struct {
	answer string
	err    error
	calls  int
}

func (f *fakeGenerator) GenerateAnswer(ctx context.Context, query, context string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func testEngine(t *testing.T, gen Generator) *Engine {
	t.Helper()

	store := corpus.NewStore([]corpus.Document{
		{ID: "runbook_db_timeout.txt", Category: corpus.CategoryRunbook, Title: "runbook db timeout",
			Content: "Database connection timeout remediation. Check the connection pool and restart the replica."},
		{ID: "incident_disk_full.txt", Category: corpus.CategoryIncident, Title: "incident disk full",
			Content: "Disk space exhausted on log volume. Rotated logs and expanded the partition."},
	})

	dataset := &history.Dataset{Records: []history.Record{
		{IncidentType: "database_timeout", Month: "2025-01", Count: 10, AvgResolutionHours: 4.0, Severity: "high", Status: "resolved"},
	}}
	keywords := history.KeywordMap{"database": "database_timeout", "timeout": "database_timeout"}

	return NewEngine(
		retrieval.New(store, 3),
		history.NewMatcher(dataset, keywords),
		gen,
		nil, nil,
		4000,
	)
}

func TestProcessGroundedAnswer(t *testing.T) {
	gen := &fakeGenerator{answer: "Restart the replica. [Source: runbook_db_timeout.txt]"}
	engine := testEngine(t, gen)

	resp, err := engine.Process(context.Background(), Request{Query: "database connection timeout", UserID: "alice"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if !resp.Grounded || resp.Degraded {
		t.Errorf("grounded=%v degraded=%v, want grounded undegraded", resp.Grounded, resp.Degraded)
	}
	if resp.Answer != gen.answer {
		t.Errorf("answer = %q", resp.Answer)
	}
	if len(resp.Sources) == 0 || resp.Sources[0].DocumentID != "runbook_db_timeout.txt" {
		t.Errorf("sources = %+v", resp.Sources)
	}
	if len(resp.Historical) != 1 || resp.Historical[0].IncidentType != "database_timeout" {
		t.Errorf("historical = %+v", resp.Historical)
	}
	if resp.ID == "" {
		t.Error("missing query id")
	}
}

func TestProcessConfidenceFormula(t *testing.T) {
	gen := &fakeGenerator{answer: "ok"}
	engine := testEngine(t, gen)

	// 1 doc and 1 historical match: 25 + 15 = 40.
	resp, err := engine.Process(context.Background(), Request{Query: "database timeout"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if resp.Confidence != 0.40 {
		t.Errorf("confidence = %v, want 0.40", resp.Confidence)
	}

	if got := confidence(4, 2); got != 1.0 {
		t.Errorf("confidence(4, 2) = %v, want capped at 1.0", got)
	}
	if got := confidence(0, 0); got != 0 {
		t.Errorf("confidence(0, 0) = %v, want 0", got)
	}
}

func TestProcessNoContextSkipsGeneration(t *testing.T) {
	gen := &fakeGenerator{answer: "should never be used"}
	engine := testEngine(t, gen)

	resp, err := engine.Process(context.Background(), Request{Query: "kubernetes ingress flapping"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if gen.calls != 0 {
		t.Errorf("generator called %d times for no-context query", gen.calls)
	}
	if resp.Grounded {
		t.Error("no-context response must not claim grounding")
	}
	if !strings.Contains(resp.Answer, "could not find relevant") {
		t.Errorf("answer = %q", resp.Answer)
	}
	if len(resp.Sources) != 0 {
		t.Errorf("sources = %+v, want none", resp.Sources)
	}
}

func TestProcessDegradesOnGenerationError(t *testing.T) {
	gen := &fakeGenerator{err: fmt.Errorf("%w: upstream 500", llm.ErrGeneration)}
	engine := testEngine(t, gen)

	resp, err := engine.Process(context.Background(), Request{Query: "database connection timeout"})
	if err != nil {
		t.Fatalf("Process must not fail on generation error, got %v", err)
	}

	if !resp.Degraded {
		t.Error("expected Degraded=true")
	}
	if resp.Grounded {
		t.Error("degraded response must not claim grounding")
	}
	if len(resp.Sources) == 0 {
		t.Error("sources must survive generation failure")
	}
	if len(resp.Historical) == 0 {
		t.Error("historical stats must survive generation failure")
	}
}

func TestProcessPropagatesUnexpectedError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("programming error")}
	engine := testEngine(t, gen)

	_, err := engine.Process(context.Background(), Request{Query: "database timeout"})
	if err == nil {
		t.Fatal("expected unexpected generator error to propagate")
	}
}
