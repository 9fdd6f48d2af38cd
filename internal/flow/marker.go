package flow

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/synthsweep/internal/canon"
)

// Marker is the persisted outcome of a run.
type Marker struct {
	RunID       string `json:"run_id"`
	Status      Status `json:"status"`
	Fingerprint string `json:"fingerprint"`
	Reason      string `json:"reason,omitempty"`
}

func (m Marker) canonicalMap() map[string]any {
	out := map[string]any{
		"run_id":      m.RunID,
		"status":      string(m.Status),
		"fingerprint": m.Fingerprint,
	}
	if m.Reason != "" {
		out["reason"] = m.Reason
	}
	return out
}

// ReadMarker loads the marker at path. A missing marker returns (nil, nil).
func ReadMarker(path string) (*Marker, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read marker: %w", err)
	}
	var m Marker
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse marker %s: %w", path, err)
	}
	return &m, nil
}

// WriteMarker persists m to path, replacing any previous marker.
func WriteMarker(path string, m Marker) error {
	data, err := canon.Marshal(m.canonicalMap())
	if err != nil {
		return fmt.Errorf("marshal marker: %w", err)
	}
	return writeFileAtomic(path, append(data, '\n'))
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
