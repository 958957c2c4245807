package history

import (
	"math"
	"testing"
)

func testKeywords() KeywordMap {
	return buildKeywordMap(map[string][]string{
		"database_timeout": {"timeout", "database", "connection", "db"},
		"auth_failure":     {"login", "auth", "token", "401"},
		"disk_space":       {"disk", "space", "storage"},
	})
}

func testDataset() *Dataset {
	return &Dataset{Records: []Record{
		{IncidentType: "database_timeout", Month: "2025-01", Count: 10, AvgResolutionHours: 2.0, Severity: "high", Status: "resolved"},
		{IncidentType: "database_timeout", Month: "2025-02", Count: 90, AvgResolutionHours: 10.0, Severity: "critical", Status: "resolved"},
		{IncidentType: "auth_failure", Month: "2025-01", Count: 4, AvgResolutionHours: 1.0, Severity: "medium", Status: "open"},
		{IncidentType: "disk_space", Month: "2025-02", Count: 6, AvgResolutionHours: 3.0, Severity: "low", Status: "resolved"},
	}}
}

func TestMatchAggregatesSingleType(t *testing.T) {
	m := NewMatcher(testDataset(), testKeywords())

	summaries := m.Match("database connection timeout errors in production")
	if len(summaries) != 1 {
		t.Fatalf("summaries = %d, want 1", len(summaries))
	}

	s := summaries[0]
	if s.IncidentType != "database_timeout" {
		t.Errorf("type = %s, want database_timeout", s.IncidentType)
	}
	if s.TotalCount != 100 {
		t.Errorf("total_count = %d, want 100", s.TotalCount)
	}
	if s.MonthsObserved != 2 {
		t.Errorf("months = %d, want 2", s.MonthsObserved)
	}
}

func TestMatchWeightedAverage(t *testing.T) {
	// (10*2.0 + 90*10.0) / 100 = 9.2, not the unweighted 6.0.
	m := NewMatcher(testDataset(), testKeywords())

	summaries := m.Match("timeout")
	if len(summaries) != 1 {
		t.Fatalf("summaries = %d, want 1", len(summaries))
	}
	if got := summaries[0].AvgResolutionHours; math.Abs(got-9.2) > 1e-9 {
		t.Errorf("avg_resolution_hours = %f, want 9.2 (count-weighted)", got)
	}
}

func TestMatchDominantSeverityWeightedByCount(t *testing.T) {
	m := NewMatcher(testDataset(), testKeywords())

	summaries := m.Match("timeout")
	if summaries[0].DominantSeverity != "critical" {
		t.Errorf("dominant_severity = %s, want critical", summaries[0].DominantSeverity)
	}
}

func TestMatchOpenRatio(t *testing.T) {
	m := NewMatcher(testDataset(), testKeywords())

	summaries := m.Match("login 401")
	if len(summaries) != 1 {
		t.Fatalf("summaries = %d, want 1", len(summaries))
	}
	if summaries[0].OpenRatio != 1.0 {
		t.Errorf("open_ratio = %f, want 1.0", summaries[0].OpenRatio)
	}
}

func TestMatchMultipleTypesStaySeparate(t *testing.T) {
	m := NewMatcher(testDataset(), testKeywords())

	summaries := m.Match("database timeout after disk space alerts")
	if len(summaries) != 2 {
		t.Fatalf("summaries = %d, want 2 (types must not be merged)", len(summaries))
	}
	// Ordered by total count.
	if summaries[0].IncidentType != "database_timeout" || summaries[1].IncidentType != "disk_space" {
		t.Errorf("order = [%s %s], want [database_timeout disk_space]",
			summaries[0].IncidentType, summaries[1].IncidentType)
	}
}

func TestMatchUnknownKeywordsReturnEmpty(t *testing.T) {
	m := NewMatcher(testDataset(), testKeywords())

	if summaries := m.Match("xyzzy plugh"); summaries != nil {
		t.Errorf("summaries = %v, want nil", summaries)
	}
	if summaries := m.Match(""); summaries != nil {
		t.Errorf("summaries = %v, want nil for empty query", summaries)
	}
}

func TestMatchTypeWithoutRecords(t *testing.T) {
	dataset := &Dataset{Records: []Record{
		{IncidentType: "auth_failure", Month: "2025-01", Count: 1, AvgResolutionHours: 1, Severity: "low", Status: "resolved"},
	}}
	m := NewMatcher(dataset, testKeywords())

	if summaries := m.Match("disk space full"); len(summaries) != 0 {
		t.Errorf("summaries = %v, want empty when the matched type has no rows", summaries)
	}
}

func TestDominantSeverityTieBreak(t *testing.T) {
	got := dominantSeverity(map[string]int{"high": 5, "critical": 5, "low": 2})
	if got != "critical" {
		t.Errorf("dominant = %s, want critical on count tie", got)
	}
}
