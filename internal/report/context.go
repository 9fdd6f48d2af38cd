package report

import (
	"github.com/roach88/synthsweep/internal/canon"
	"github.com/roach88/synthsweep/internal/sweep"
)

// Context is the complete input of a report template.
type Context struct {
	Title string

	// ArtifactKinds is the fixed column order for artifacts.
	ArtifactKinds []string

	Designs []DesignRecord
}

// DesignRecord holds every combination of one design, in generation order.
type DesignRecord struct {
	Top            string
	ParameterNames []string
	Combinations   []CombinationRecord
	Succeeded      int
	Failed         int
}

// CombinationRecord is one row of the report.
type CombinationRecord struct {
	Index  int
	Values []sweep.Value
	Tag    string
	RunID  string
	Status string

	Reason      string
	Diagnostics string

	// Artifacts has one entry per ArtifactKinds entry, in the same order.
	Artifacts []ArtifactLink
}

// ArtifactLink is a report-relative link, or absent when Link is empty.
type ArtifactLink struct {
	Kind string
	Link string
}

// Present reports whether the artifact is linked.
func (l ArtifactLink) Present() bool { return l.Link != "" }

// Failure is a failed combination as listed below a design's table.
type Failure struct {
	RunID  string
	Reason string
}

// Failures lists failed combinations in generation order.
func (d DesignRecord) Failures() []Failure {
	var out []Failure
	for _, c := range d.Combinations {
		if c.Status == "failed" {
			out = append(out, Failure{RunID: c.RunID, Reason: c.Reason})
		}
	}
	return out
}

// Totals sums succeeded and failed combinations over all designs.
func (c Context) Totals() (succeeded, failed int) {
	for _, d := range c.Designs {
		succeeded += d.Succeeded
		failed += d.Failed
	}
	return succeeded, failed
}

// CanonicalValue implements canon.Marshaler.
func (c Context) CanonicalValue() any {
	designs := make([]any, len(c.Designs))
	for i, d := range c.Designs {
		combos := make([]any, len(d.Combinations))
		for j, cr := range d.Combinations {
			values := make([]any, len(cr.Values))
			for k, v := range cr.Values {
				values[k] = v.Native()
			}
			artifacts := make(map[string]any, len(cr.Artifacts))
			for _, a := range cr.Artifacts {
				if a.Present() {
					artifacts[a.Kind] = a.Link
				} else {
					artifacts[a.Kind] = false
				}
			}
			rec := map[string]any{
				"index":     cr.Index,
				"values":    values,
				"tag":       cr.Tag,
				"run_id":    cr.RunID,
				"status":    cr.Status,
				"artifacts": artifacts,
			}
			if cr.Reason != "" {
				rec["reason"] = cr.Reason
			}
			combos[j] = rec
		}
		designs[i] = map[string]any{
			"top":             d.Top,
			"parameter_names": d.ParameterNames,
			"combinations":    combos,
			"succeeded":       d.Succeeded,
			"failed":          d.Failed,
		}
	}
	return map[string]any{
		"title":          c.Title,
		"artifact_kinds": c.ArtifactKinds,
		"designs":        designs,
	}
}

// MarshalCanonical renders the context as canonical JSON.
func (c Context) MarshalCanonical() ([]byte, error) {
	return canon.Marshal(c)
}

// Fingerprint identifies the report content.
func (c Context) Fingerprint() (string, error) {
	return canon.Fingerprint(canon.DomainReport, c)
}
