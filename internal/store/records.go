package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/synthsweep/internal/canon"
)

// SweepRecord is one sweep invocation.
type SweepRecord struct {
	ID             string
	Name           string
	DefinitionPath string
	DefinitionHash string
	Seq            int64
	StartedAt      time.Time

	// Set by FinishSweep.
	FinishedAt time.Time
	ReportPath string
	ReportHash string
	Succeeded  int
	Failed     int
}

// RunRecord is the ledger entry of one FlowRun.
type RunRecord struct {
	SweepID     string
	Seq         int64
	Design      string
	Index       int
	RunID       string
	Tag         string
	Parameters  []string
	Status      string
	Skipped     bool
	Fingerprint string
	Reason      string
	Duration    time.Duration
}

// SweepSummary is written once the report has been delivered.
type SweepSummary struct {
	FinishedAt time.Time
	ReportPath string
	ReportHash string
	Succeeded  int
	Failed     int
}

// timeLayout is fixed-width so TEXT ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Parse(time.RFC3339Nano, s)
	}
	return t, nil
}

// marshalParameters stores name=value assignments as canonical JSON TEXT.
func marshalParameters(params []string) (string, error) {
	if params == nil {
		params = []string{}
	}
	data, err := canon.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("marshal parameters: %w", err)
	}
	return string(data), nil
}

func unmarshalParameters(s string) ([]string, error) {
	var params []string
	if err := json.Unmarshal([]byte(s), &params); err != nil {
		return nil, fmt.Errorf("unmarshal parameters: %w", err)
	}
	if params == nil {
		params = []string{}
	}
	return params, nil
}
