package history

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/caira/backend/internal/retrieval"
	"github.com/caira/backend/pkg/logger"
)

// severityRank breaks count ties when picking the dominant severity; the more
// severe label wins so the summary never understates risk.
var severityRank = map[string]int{
	"critical": 4,
	"high":     3,
	"medium":   2,
	"low":      1,
}

// Summary is the aggregate for one matched incident type. Each source row is
// a monthly aggregate, so averages are weighted by row count.
type Summary struct {
	IncidentType       string  `json:"incident_type"`
	TotalCount         int     `json:"total_count"`
	AvgResolutionHours float64 `json:"avg_resolution_hours"`
	DominantSeverity   string  `json:"dominant_severity"`
	OpenRatio          float64 `json:"open_ratio"`
	MonthsObserved     int     `json:"months_observed"`
	Insight            string  `json:"insight"`
}

// Matcher maps query tokens onto incident types and aggregates their history.
type Matcher struct {
	dataset  *Dataset
	keywords KeywordMap
}

func NewMatcher(dataset *Dataset, keywords KeywordMap) *Matcher {
	return &Matcher{dataset: dataset, keywords: keywords}
}

// Match tokenizes the query exactly like the retriever and returns one
// summary per matched incident type. No recognized keyword means an empty
// result; historical data is never synthesized.
func (m *Matcher) Match(query string) []Summary {
	matched := make(map[string]bool)
	for _, tok := range retrieval.Tokenize(query) {
		if incidentType, ok := m.keywords[tok]; ok {
			matched[incidentType] = true
		}
	}

	if len(matched) == 0 {
		return nil
	}

	var summaries []Summary
	for incidentType := range matched {
		if summary, ok := m.aggregate(incidentType); ok {
			summaries = append(summaries, summary)
		}
	}

	// Largest incident classes first; type name breaks ties so output is
	// reproducible.
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].TotalCount != summaries[j].TotalCount {
			return summaries[i].TotalCount > summaries[j].TotalCount
		}
		return summaries[i].IncidentType < summaries[j].IncidentType
	})

	logger.Debug("Historical matches aggregated",
		zap.Int("matched_types", len(summaries)),
	)

	return summaries
}

func (m *Matcher) aggregate(incidentType string) (Summary, bool) {
	var (
		totalCount    int
		weightedHours float64
		openCount     int
		months        = make(map[string]bool)
		bySeverity    = make(map[string]int)
	)

	for _, rec := range m.dataset.Records {
		if rec.IncidentType != incidentType {
			continue
		}

		totalCount += rec.Count
		weightedHours += float64(rec.Count) * rec.AvgResolutionHours
		bySeverity[rec.Severity] += rec.Count
		months[rec.Month] = true

		if rec.Status == "open" {
			openCount += rec.Count
		}
	}

	if totalCount == 0 {
		return Summary{}, false
	}

	avgHours := weightedHours / float64(totalCount)

	summary := Summary{
		IncidentType:       incidentType,
		TotalCount:         totalCount,
		AvgResolutionHours: avgHours,
		DominantSeverity:   dominantSeverity(bySeverity),
		OpenRatio:          float64(openCount) / float64(totalCount),
		MonthsObserved:     len(months),
	}
	summary.Insight = fmt.Sprintf(
		"This incident has occurred %d times with an average resolution time of %.1f hours.",
		totalCount, avgHours,
	)

	return summary, true
}

func dominantSeverity(bySeverity map[string]int) string {
	best := ""
	bestCount := -1

	for severity, count := range bySeverity {
		if count > bestCount {
			best, bestCount = severity, count
			continue
		}
		if count == bestCount && severityRank[severity] > severityRank[best] {
			best = severity
		}
	}

	return best
}
