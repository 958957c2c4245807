package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/caira/backend/internal/storage/models"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	if err := client.InitSchema(); err != nil {
		t.Fatalf("InitSchema: %v", err)
	}
	return client
}

func TestInsertAndGetQueryHistory(t *testing.T) {
	client := testClient(t)

	record := &models.QueryRecord{
		ID:                "q-1",
		UserID:            "alice",
		QueryText:         "database timeout",
		Response:          "restart the replica",
		Confidence:        0.65,
		DocsRetrieved:     2,
		HistoricalMatches: 1,
		Degraded:          false,
		LatencyMS:         120,
		CreatedAt:         time.Now(),
	}

	if err := client.InsertQueryRecord(record); err != nil {
		t.Fatalf("InsertQueryRecord: %v", err)
	}

	records, err := client.GetQueryHistory("alice", 10)
	if err != nil {
		t.Fatalf("GetQueryHistory: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	got := records[0]
	if got.QueryText != "database timeout" || got.Confidence != 0.65 || got.DocsRetrieved != 2 {
		t.Errorf("record = %+v", got)
	}
}

func TestQuerySourcesRoundTrip(t *testing.T) {
	client := testClient(t)

	record := &models.QueryRecord{ID: "q-2", UserID: "bob", QueryText: "disk full", CreatedAt: time.Now()}
	if err := client.InsertQueryRecord(record); err != nil {
		t.Fatalf("InsertQueryRecord: %v", err)
	}

	source := &models.QuerySource{
		QueryID:    "q-2",
		DocumentID: "runbook_disk_space.txt",
		Title:      "runbook disk space",
		Category:   "runbook",
		Score:      3,
	}
	if err := client.InsertQuerySource(source); err != nil {
		t.Fatalf("InsertQuerySource: %v", err)
	}

	sources, err := client.GetQuerySources("q-2")
	if err != nil {
		t.Fatalf("GetQuerySources: %v", err)
	}
	if len(sources) != 1 || sources[0].DocumentID != "runbook_disk_space.txt" || sources[0].Score != 3 {
		t.Errorf("sources = %+v", sources)
	}
}

func TestStoreFeedback(t *testing.T) {
	client := testClient(t)

	record := &models.QueryRecord{ID: "q-3", QueryText: "auth failure", CreatedAt: time.Now()}
	if err := client.InsertQueryRecord(record); err != nil {
		t.Fatalf("InsertQueryRecord: %v", err)
	}

	err := client.StoreFeedback(&models.Feedback{
		QueryID: "q-3",
		Helpful: true,
		Comment: "solved it",
	})
	if err != nil {
		t.Fatalf("StoreFeedback: %v", err)
	}
}

func TestFeedbackForeignKeyEnforced(t *testing.T) {
	client := testClient(t)

	err := client.StoreFeedback(&models.Feedback{QueryID: "missing", Helpful: false})
	if err == nil {
		t.Error("feedback for unknown query must fail")
	}
}

func TestHistoryLimitAndOrder(t *testing.T) {
	client := testClient(t)

	for i, ts := range []time.Time{
		time.Unix(1000, 0), time.Unix(2000, 0), time.Unix(3000, 0),
	} {
		record := &models.QueryRecord{
			ID:        "q-" + string(rune('a'+i)),
			UserID:    "carol",
			QueryText: "q",
			CreatedAt: ts,
		}
		if err := client.InsertQueryRecord(record); err != nil {
			t.Fatalf("InsertQueryRecord: %v", err)
		}
	}

	records, err := client.GetQueryHistory("carol", 2)
	if err != nil {
		t.Fatalf("GetQueryHistory: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if !records[0].CreatedAt.After(records[1].CreatedAt) {
		t.Error("history not ordered newest first")
	}
}
