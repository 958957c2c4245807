package history

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "incident_stats.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeCSV(t, strings.Join([]string{
		"incident_type,month,count,avg_resolution_hours,severity,status",
		"database_timeout,2025-01,12,4.5,high,resolved",
		"auth_failure,2025-01,7,1.25,medium,resolved",
	}, "\n"))

	dataset, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dataset.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(dataset.Records))
	}
	if dataset.SkippedRows != 0 {
		t.Errorf("skipped = %d, want 0", dataset.SkippedRows)
	}

	rec := dataset.Records[0]
	if rec.IncidentType != "database_timeout" || rec.Count != 12 || rec.AvgResolutionHours != 4.5 {
		t.Errorf("unexpected first record: %+v", rec)
	}
}

func TestLoadCSVSkipsBadRows(t *testing.T) {
	path := writeCSV(t, strings.Join([]string{
		"incident_type,month,count,avg_resolution_hours,severity,status",
		"database_timeout,2025-01,not_a_number,4.5,high,resolved",
		"disk_space,2025-01,3,oops,low,open",
		"auth_failure,2025-01,-2,1.0,medium,resolved",
		"network_latency,2025-01,5,2.0,medium,resolved",
	}, "\n"))

	dataset, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dataset.Records) != 1 {
		t.Errorf("records = %d, want 1", len(dataset.Records))
	}
	if dataset.SkippedRows != 3 {
		t.Errorf("skipped = %d, want 3", dataset.SkippedRows)
	}
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "absent.csv"))
	if !errors.Is(err, ErrLoad) {
		t.Fatalf("err = %v, want ErrLoad", err)
	}
}

func TestLoadCSVMissingColumn(t *testing.T) {
	path := writeCSV(t, "incident_type,month,count\nx,2025-01,1")
	_, err := LoadCSV(path)
	if !errors.Is(err, ErrLoad) {
		t.Fatalf("err = %v, want ErrLoad for missing columns", err)
	}
}

func TestBuildKeywordMapFirstOwnerWins(t *testing.T) {
	km := buildKeywordMap(map[string][]string{
		"auth_failure":     {"token", "login"},
		"database_timeout": {"token", "timeout"},
	})

	// auth_failure sorts before database_timeout and keeps the keyword.
	if km["token"] != "auth_failure" {
		t.Errorf("token -> %s, want auth_failure", km["token"])
	}
	if km["timeout"] != "database_timeout" {
		t.Errorf("timeout -> %s, want database_timeout", km["timeout"])
	}
}
