package evaluation

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/caira/backend/internal/retrieval"
	"github.com/caira/backend/pkg/logger"
)

// Evaluator measures retrieval quality against a golden dataset of queries
// with a known best document. The retriever is deterministic, so evaluation
// needs no model calls and runs offline.
type Evaluator struct {
	retriever *retrieval.Retriever
}

type Dataset struct {
	Items []DatasetItem `json:"items"`
}

type DatasetItem struct {
	Query         string `json:"query"`
	ExpectedDocID string `json:"expected_doc_id"`
}

type Report struct {
	TotalQueries int
	Top1Hits     int
	Top1HitRate  float64
	MRR          float64
	Misses       []Miss
}

type Miss struct {
	Query    string
	Expected string
	Got      []string
}

func NewEvaluator(retriever *retrieval.Retriever) *Evaluator {
	return &Evaluator{retriever: retriever}
}

func LoadDataset(path string) (*Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}

	var dataset Dataset
	if err := json.Unmarshal(raw, &dataset); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dataset: %w", err)
	}

	return &dataset, nil
}

// Run scores every dataset item. Top-1 hit rate counts queries whose best
// document ranked first; MRR averages 1/rank of the expected document, with
// zero contribution when it is not retrieved at all.
func (e *Evaluator) Run(dataset *Dataset) *Report {
	logger.Info("Running retrieval evaluation", zap.Int("items", len(dataset.Items)))

	report := &Report{TotalQueries: len(dataset.Items)}

	var reciprocalRankSum float64

	for _, item := range dataset.Items {
		results := e.retriever.Retrieve(item.Query)

		rank := 0
		var got []string
		for i, r := range results {
			got = append(got, r.Document.ID)
			if r.Document.ID == item.ExpectedDocID {
				rank = i + 1
			}
		}

		switch {
		case rank == 1:
			report.Top1Hits++
			reciprocalRankSum += 1.0
		case rank > 1:
			reciprocalRankSum += 1.0 / float64(rank)
			report.Misses = append(report.Misses, Miss{Query: item.Query, Expected: item.ExpectedDocID, Got: got})
		default:
			report.Misses = append(report.Misses, Miss{Query: item.Query, Expected: item.ExpectedDocID, Got: got})
		}
	}

	if report.TotalQueries > 0 {
		report.Top1HitRate = float64(report.Top1Hits) / float64(report.TotalQueries) * 100
		report.MRR = reciprocalRankSum / float64(report.TotalQueries)
	}

	logger.Info("Retrieval evaluation completed",
		zap.Int("total", report.TotalQueries),
		zap.Int("top1_hits", report.Top1Hits),
		zap.Float64("mrr", report.MRR),
	)

	return report
}

func (e *Evaluator) GenerateReport(report *Report) string {
	out := fmt.Sprintf(`
Retrieval Evaluation Report
===========================

Total Queries: %d
Top-1 Hits:    %d (%.1f%%)
MRR:           %.3f
`,
		report.TotalQueries,
		report.Top1Hits, report.Top1HitRate,
		report.MRR,
	)

	if len(report.Misses) > 0 {
		out += "\nMisses:\n"
		for _, m := range report.Misses {
			out += fmt.Sprintf("- %q expected %s, got %v\n", m.Query, m.Expected, m.Got)
		}
	}

	return out
}
