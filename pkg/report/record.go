package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RecordName is the file the run record is written to.
const RecordName = "run.json"

// RunRecord is the machine-readable outcome of a run.
type RunRecord struct {
	RunID     string        `json:"run_id"`
	Status    string        `json:"status"`
	Error     string        `json:"error,omitempty"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`

	BaseURL    string `json:"base_url"`
	PreviewURL string `json:"preview_url"`
	Scripted   bool   `json:"scripted"`
	Steps      int    `json:"steps"`

	Captures  []CaptureRecord `json:"captures,omitempty"`
	Artifacts *ArtifactRecord `json:"artifacts,omitempty"`
	Comment   string          `json:"comment_url,omitempty"`
	Stages    []StageRecord   `json:"stages,omitempty"`
}

// CaptureRecord describes one raw recording.
type CaptureRecord struct {
	Tag      string        `json:"tag"`
	URL      string        `json:"url"`
	Video    string        `json:"video"`
	Duration time.Duration `json:"duration"`
}

// ArtifactRecord lists the published files.
type ArtifactRecord struct {
	Video         string `json:"video"`
	AnimatedImage string `json:"gif,omitempty"`
	Thumbnail     string `json:"thumbnail"`
}

// StageRecord names a pipeline stage in execution order.
type StageRecord struct {
	Name   string `json:"name"`
	Output string `json:"output"`
}

// WriteRecord writes rec as indented JSON to dir/run.json.
func WriteRecord(dir string, rec *RunRecord) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, RecordName)
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal run record: %w", err)
	}
	if writeErr := os.WriteFile(path, data, 0600); writeErr != nil {
		return "", fmt.Errorf("failed to write run record: %w", writeErr)
	}
	return path, nil
}
