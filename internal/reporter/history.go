package reporter

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kevinfinalboss/galleon/pkg/types"
)

var ErrNoHistory = errors.New("no previous copy run recorded")

// HistoryRecord is the JSON document kept for every run; status reads the
// newest one back.
type HistoryRecord struct {
	Summary    *types.CopySummary `json:"summary"`
	ReportPath string             `json:"report_path,omitempty"`
	Events     []HistoryEvent     `json:"events,omitempty"`
}

// HistoryEvent is one audit event of the run as kept in the history file.
type HistoryEvent struct {
	Time          time.Time `json:"time"`
	Level         string    `json:"level"`
	Code          string    `json:"code"`
	CorrelationID string    `json:"correlation_id"`
	Message       string    `json:"message"`
}

// Notable returns the warning and error events in recorded order.
func (r *HistoryRecord) Notable() []HistoryEvent {
	var out []HistoryEvent
	for _, e := range r.Events {
		if e.Level == "warn" || e.Level == "error" {
			out = append(out, e)
		}
	}
	return out
}

func SaveHistory(dir string, record HistoryRecord) (string, error) {
	if record.Summary == nil {
		return "", errors.New("history record has no summary")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, ReportName(record.Summary, "json"))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save run history: %w", err)
	}
	return path, nil
}

// LatestHistory returns the record whose run finished last. Unreadable files
// are ignored.
func LatestHistory(dir string) (*HistoryRecord, string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "galleon-*.json"))
	if err != nil {
		return nil, "", err
	}

	var (
		latest     *HistoryRecord
		latestPath string
	)
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var record HistoryRecord
		if err := json.Unmarshal(data, &record); err != nil || record.Summary == nil {
			continue
		}

		if latest == nil || record.Summary.EndTime.After(latest.Summary.EndTime) {
			latest = &record
			latestPath = path
		}
	}

	if latest == nil {
		return nil, "", ErrNoHistory
	}
	return latest, latestPath, nil
}
