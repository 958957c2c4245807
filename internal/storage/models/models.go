package models

import "time"

// QueryRecord is one processed query with its outcome stats.
type QueryRecord struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id,omitempty"`
	QueryText         string    `json:"query_text"`
	Response          string    `json:"response"`
	Confidence        float64   `json:"confidence"`
	DocsRetrieved     int       `json:"docs_retrieved"`
	HistoricalMatches int       `json:"historical_matches"`
	Degraded          bool      `json:"degraded"`
	LatencyMS         int       `json:"latency_ms"`
	CreatedAt         time.Time `json:"created_at"`
}

// QuerySource is one corpus document cited by a query.
type QuerySource struct {
	ID         int    `json:"id"`
	QueryID    string `json:"query_id"`
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
	Category   string `json:"category"`
	Score      int    `json:"score"`
}

type Feedback struct {
	ID            int       `json:"id"`
	QueryID       string    `json:"query_id"`
	Helpful       bool      `json:"helpful"`
	IssueCategory string    `json:"issue_category,omitempty"`
	Comment       string    `json:"comment,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
