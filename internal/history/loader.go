package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/caira/backend/pkg/logger"
)

// ErrLoad marks a dataset file that is missing, unreadable or has no usable
// header. Individual bad rows are skipped, not fatal.
var ErrLoad = errors.New("incident dataset load failed")

var requiredColumns = []string{
	"incident_type", "month", "count", "avg_resolution_hours", "severity", "status",
}

// Record is one monthly aggregate row of the incident dataset.
type Record struct {
	IncidentType       string
	Month              string
	Count              int
	AvgResolutionHours float64
	Severity           string
	Status             string
}

// Dataset is the immutable in-memory incident history.
type Dataset struct {
	Records     []Record
	SkippedRows int
}

// LoadCSV reads the incident dataset. The header row is required; rows whose
// numeric columns fail to parse are skipped and counted.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	defer f.Close()

	return parseCSV(f, path)
}

func parseCSV(r io.Reader, name string) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header of %s: %v", ErrLoad, name, err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(strings.ToLower(col))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %s is missing column %q", ErrLoad, name, col)
		}
	}

	dataset := &Dataset{}
	line := 1

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			dataset.SkippedRows++
			logger.Warn("Skipping malformed dataset row",
				zap.String("file", name),
				zap.Int("line", line),
				zap.Error(err),
			)
			continue
		}

		record, err := parseRow(row, index)
		if err != nil {
			dataset.SkippedRows++
			logger.Warn("Skipping unparsable dataset row",
				zap.String("file", name),
				zap.Int("line", line),
				zap.Error(err),
			)
			continue
		}

		dataset.Records = append(dataset.Records, record)
	}

	logger.Info("Incident dataset loaded",
		zap.String("file", name),
		zap.Int("records", len(dataset.Records)),
		zap.Int("skipped_rows", dataset.SkippedRows),
	)

	return dataset, nil
}

func parseRow(row []string, index map[string]int) (Record, error) {
	field := func(col string) string {
		i := index[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	count, err := strconv.Atoi(field("count"))
	if err != nil {
		return Record{}, fmt.Errorf("bad count %q: %w", field("count"), err)
	}
	if count < 0 {
		return Record{}, fmt.Errorf("negative count %d", count)
	}

	hours, err := strconv.ParseFloat(field("avg_resolution_hours"), 64)
	if err != nil {
		return Record{}, fmt.Errorf("bad avg_resolution_hours %q: %w", field("avg_resolution_hours"), err)
	}
	if hours < 0 {
		return Record{}, fmt.Errorf("negative avg_resolution_hours %f", hours)
	}

	return Record{
		IncidentType:       strings.ToLower(field("incident_type")),
		Month:              field("month"),
		Count:              count,
		AvgResolutionHours: hours,
		Severity:           strings.ToLower(field("severity")),
		Status:             strings.ToLower(field("status")),
	}, nil
}
