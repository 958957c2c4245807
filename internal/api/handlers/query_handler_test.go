package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/caira/backend/internal/corpus"
	"github.com/caira/backend/internal/history"
	"github.com/caira/backend/internal/query"
	"github.com/caira/backend/internal/retrieval"
)

type staticGenerator struct{ answer string }

func (g staticGenerator) GenerateAnswer(ctx context.Context, q, c string) (string, error) {
	return g.answer, nil
}

func testApp(t *testing.T) *fiber.App {
	t.Helper()

	store := corpus.NewStore([]corpus.Document{
		{ID: "runbook_db_timeout.txt", Category: corpus.CategoryRunbook, Title: "runbook db timeout",
			Content: "Database connection timeout remediation steps."},
	})
	dataset := &history.Dataset{Records: []history.Record{
		{IncidentType: "database_timeout", Month: "2026-01", Count: 5, AvgResolutionHours: 4.0, Severity: "high", Status: "resolved"},
	}}
	keywords := history.KeywordMap{"database": "database_timeout"}

	engine := query.NewEngine(
		retrieval.New(store, 3),
		history.NewMatcher(dataset, keywords),
		staticGenerator{answer: "Check the pool. [Source: runbook_db_timeout.txt]"},
		nil, nil,
		4000,
	)

	handler := NewQueryHandler(engine, nil)

	app := fiber.New()
	app.Post("/api/v1/query", handler.HandleQuery)
	app.Get("/api/v1/query/history", handler.GetQueryHistory)
	return app
}

func TestHandleQuery(t *testing.T) {
	app := testApp(t)

	req := httptest.NewRequest("POST", "/api/v1/query",
		strings.NewReader(`{"query": "database connection timeout", "user_id": "alice"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var got query.Response
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !got.Grounded || got.Degraded {
		t.Errorf("grounded=%v degraded=%v", got.Grounded, got.Degraded)
	}
	if len(got.Sources) != 1 || got.Sources[0].DocumentID != "runbook_db_timeout.txt" {
		t.Errorf("sources = %+v", got.Sources)
	}
}

func TestHandleQueryRejectsEmptyQuery(t *testing.T) {
	app := testApp(t)

	req := httptest.NewRequest("POST", "/api/v1/query", strings.NewReader(`{"query": ""}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGetQueryHistoryRequiresUserID(t *testing.T) {
	app := testApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/query/history", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
