package history

import (
	"fmt"
	"math"
	"sort"
)

// Analytics answers corpus-wide questions about the incident dataset for the
// dashboard endpoints. All aggregations are computed on demand; the dataset
// is small and immutable.
type Analytics struct {
	dataset *Dataset
}

type MonthTrend struct {
	Month              string  `json:"month"`
	Count              int     `json:"count"`
	AvgResolutionHours float64 `json:"avg_resolution_hours"`
}

type TypeCount struct {
	IncidentType string `json:"incident_type"`
	Count        int    `json:"count"`
}

func NewAnalytics(dataset *Dataset) *Analytics {
	return &Analytics{dataset: dataset}
}

func (a *Analytics) TotalIncidents() int {
	total := 0
	for _, rec := range a.dataset.Records {
		total += rec.Count
	}
	return total
}

func (a *Analytics) IncidentsByType() map[string]int {
	byType := make(map[string]int)
	for _, rec := range a.dataset.Records {
		byType[rec.IncidentType] += rec.Count
	}
	return byType
}

// AvgResolutionHours is the dataset-wide count-weighted average.
func (a *Analytics) AvgResolutionHours() float64 {
	var weighted float64
	total := 0
	for _, rec := range a.dataset.Records {
		weighted += float64(rec.Count) * rec.AvgResolutionHours
		total += rec.Count
	}
	if total == 0 {
		return 0
	}
	return round2(weighted / float64(total))
}

func (a *Analytics) SeverityDistribution() map[string]int {
	bySeverity := make(map[string]int)
	for _, rec := range a.dataset.Records {
		bySeverity[rec.Severity] += rec.Count
	}
	return bySeverity
}

// MonthlyTrends returns per-month totals in chronological (lexical) order;
// the dataset uses sortable YYYY-MM month identifiers.
func (a *Analytics) MonthlyTrends() []MonthTrend {
	counts := make(map[string]int)
	hours := make(map[string]float64)
	rows := make(map[string]int)

	for _, rec := range a.dataset.Records {
		counts[rec.Month] += rec.Count
		hours[rec.Month] += rec.AvgResolutionHours
		rows[rec.Month]++
	}

	months := make([]string, 0, len(counts))
	for month := range counts {
		months = append(months, month)
	}
	sort.Strings(months)

	trends := make([]MonthTrend, 0, len(months))
	for _, month := range months {
		trends = append(trends, MonthTrend{
			Month:              month,
			Count:              counts[month],
			AvgResolutionHours: round2(hours[month] / float64(rows[month])),
		})
	}
	return trends
}

func (a *Analytics) TopIncidentTypes(n int) []TypeCount {
	byType := a.IncidentsByType()

	top := make([]TypeCount, 0, len(byType))
	for incidentType, count := range byType {
		top = append(top, TypeCount{IncidentType: incidentType, Count: count})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].IncidentType < top[j].IncidentType
	})

	if n > 0 && len(top) > n {
		top = top[:n]
	}
	return top
}

// Insights produces the short statements shown on the dashboard.
func (a *Analytics) Insights() []string {
	if len(a.dataset.Records) == 0 {
		return []string{"No incident data available"}
	}

	var insights []string

	if top := a.TopIncidentTypes(1); len(top) > 0 {
		insights = append(insights, fmt.Sprintf(
			"Most common incident: %s (%d occurrences)",
			top[0].IncidentType, top[0].Count,
		))
	}

	insights = append(insights, fmt.Sprintf(
		"Average resolution time: %.2f hours", a.AvgResolutionHours(),
	))

	severity := a.SeverityDistribution()
	if critical := severity["critical"]; critical > 0 {
		insights = append(insights, fmt.Sprintf(
			"Critical incidents: %d (require immediate attention)", critical,
		))
	}
	if high := severity["high"]; high > 0 {
		insights = append(insights, fmt.Sprintf("High severity incidents: %d", high))
	}

	if trends := a.MonthlyTrends(); len(trends) >= 2 {
		last := trends[len(trends)-1]
		prev := trends[len(trends)-2]
		if prev.Count > 0 {
			change := float64(last.Count-prev.Count) / float64(prev.Count) * 100
			switch {
			case change > 10:
				insights = append(insights, fmt.Sprintf("Incidents increased by %.1f%% last month", change))
			case change < -10:
				insights = append(insights, fmt.Sprintf("Incidents decreased by %.1f%% last month", math.Abs(change)))
			default:
				insights = append(insights, fmt.Sprintf("Incident volume stable (±%.1f%%)", math.Abs(change)))
			}
		}
	}

	return insights
}

type ChartData struct {
	IncidentsByType      map[string]int `json:"incidents_by_type"`
	SeverityDistribution map[string]int `json:"severity_distribution"`
	MonthlyTrends        []MonthTrend   `json:"monthly_trends"`
	TopIncidentTypes     []TypeCount    `json:"top_incident_types"`
}

func (a *Analytics) Charts() ChartData {
	return ChartData{
		IncidentsByType:      a.IncidentsByType(),
		SeverityDistribution: a.SeverityDistribution(),
		MonthlyTrends:        a.MonthlyTrends(),
		TopIncidentTypes:     a.TopIncidentTypes(5),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
