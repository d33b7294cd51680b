package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sadopc/tomato/internal/stats"
	"github.com/sadopc/tomato/internal/store"
)

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	Count      int         `json:"count"`
	TotalSec   int64       `json:"total_seconds"`
	Entries    []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	ID          string `json:"id"`
	Timestamp   string `json:"timestamp"`
	Category    string `json:"category"`
	Task        string `json:"task"`
	Mode        string `json:"mode"`
	DurationSec int64  `json:"duration_seconds"`
	Duration    string `json:"duration"`
	Completed   bool   `json:"completed"`
}

// ToJSON writes logs to dir as indented JSON. Like ToCSV it is a no-op for
// an empty log list.
func ToJSON(logs []store.WorkLog, dir string, now time.Time) (string, error) {
	if len(logs) == 0 {
		return "", nil
	}
	export := jsonExport{
		ExportedAt: now.UTC().Format(time.RFC3339),
		Count:      len(logs),
		TotalSec:   stats.TotalTime(logs),
	}

	for _, l := range logs {
		export.Entries = append(export.Entries, jsonEntry{
			ID:          l.ID,
			Timestamp:   l.Timestamp.Local().Format(time.RFC3339),
			Category:    l.Category,
			Task:        l.Task,
			Mode:        l.Mode.String(),
			DurationSec: l.Duration,
			Duration:    stats.FormatDuration(l.Duration),
			Completed:   l.Completed,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal json: %w", err)
	}

	path := filepath.Join(dir, FileName("json", now))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write json file: %w", err)
	}
	return path, nil
}
