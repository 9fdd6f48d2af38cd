package artifact

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind is one well-known artifact of the synthesis stage.
type Kind struct {
	// Name is the report column and must be unique within a kind list.
	Name string

	// File is relative to the stage directory. "{top}" is replaced with the
	// design top name.
	File string

	// Graph marks graph descriptions that are converted to images.
	Graph bool
}

// DefaultKinds is the fixed, documented artifact order used in reports.
var DefaultKinds = []Kind{
	{Name: "hierarchy", File: "hierarchy.dot", Graph: true},
	{Name: "primitive_techmap", File: "primitive_techmap.dot", Graph: true},
	{Name: "netlist", File: "{top}.nl.v"},
}

var kindNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// FileFor returns the stage-relative file name for top.
func (k Kind) FileFor(top string) string {
	return strings.ReplaceAll(k.File, "{top}", top)
}

// ValidateKinds checks names are well-formed and unique and files are set.
func ValidateKinds(kinds []Kind) error {
	seen := make(map[string]bool, len(kinds))
	for i, k := range kinds {
		if !kindNamePattern.MatchString(k.Name) {
			return fmt.Errorf("artifact kind %d: name %q must be lower-case snake case", i, k.Name)
		}
		if seen[k.Name] {
			return fmt.Errorf("artifact kind %q declared twice", k.Name)
		}
		seen[k.Name] = true
		if strings.TrimSpace(k.File) == "" {
			return fmt.Errorf("artifact kind %q: file is required", k.Name)
		}
		if strings.HasPrefix(k.File, "/") || strings.Contains(k.File, "..") {
			return fmt.Errorf("artifact kind %q: file %q must stay inside the stage directory", k.Name, k.File)
		}
	}
	return nil
}

// Names returns kind names in order.
func Names(kinds []Kind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = k.Name
	}
	return out
}
