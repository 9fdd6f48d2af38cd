package flow

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/roach88/synthsweep/internal/canon"
	"github.com/roach88/synthsweep/internal/sweep"
)

// Engine configuration keys. Options may not override these.
const (
	KeyDesignName      = "DESIGN_NAME"
	KeyPDK             = "PDK"
	KeyVerilogFiles    = "VERILOG_FILES"
	KeyClockPort       = "CLOCK_PORT"
	KeySynthParameters = "SYNTH_PARAMETERS"
)

var reservedKeys = map[string]bool{
	KeyDesignName:      true,
	KeyPDK:             true,
	KeyVerilogFiles:    true,
	KeyClockPort:       true,
	KeySynthParameters: true,
}

var (
	optionKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
	assignPattern    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*=.*$`)
)

// EngineConfig is the complete, validated input of one engine invocation.
// Only the fields below are recognized; anything else must go through
// Options, whose keys are checked against the engine's naming rules.
type EngineConfig struct {
	Top         string
	ProcessTech string

	// Sources are absolute HDL paths in declaration order.
	Sources []string

	// Parameters are "name=value" overrides in domain declaration order.
	Parameters []string

	// ClockPort is omitted from the document when empty.
	ClockPort string

	Options map[string]sweep.Value
}

// BuildConfig assembles and validates the configuration for one combination.
func BuildConfig(spec sweep.DesignSpec, combo sweep.Combination, processTech string) (EngineConfig, error) {
	cfg := EngineConfig{
		Top:         spec.Top,
		ProcessTech: processTech,
		Sources:     append([]string(nil), spec.Sources...),
		Parameters:  combo.Assignments(),
		ClockPort:   spec.ClockPort,
		Options:     spec.EngineOptions,
	}
	if err := cfg.Validate(); err != nil {
		return EngineConfig{}, err
	}
	return cfg, nil
}

// Validate rejects missing or malformed fields.
func (c EngineConfig) Validate() error {
	if strings.TrimSpace(c.Top) == "" {
		return &ConfigError{Field: "top", Message: "is required"}
	}
	if strings.TrimSpace(c.ProcessTech) == "" {
		return &ConfigError{Field: "process_tech", Message: "is required"}
	}
	if len(c.Sources) == 0 {
		return &ConfigError{Field: "sources", Message: "at least one source file is required"}
	}
	for i, src := range c.Sources {
		if !filepath.IsAbs(src) {
			return &ConfigError{Field: fmt.Sprintf("sources[%d]", i), Message: fmt.Sprintf("%q is not an absolute path", src)}
		}
	}
	for i, p := range c.Parameters {
		if !assignPattern.MatchString(p) {
			return &ConfigError{Field: fmt.Sprintf("parameters[%d]", i), Message: fmt.Sprintf("%q is not of the form name=value", p)}
		}
	}
	if c.ClockPort != "" && strings.ContainsAny(c.ClockPort, " \t\n") {
		return &ConfigError{Field: "clock_port", Message: fmt.Sprintf("%q contains whitespace", c.ClockPort)}
	}
	for _, k := range canon.SortedKeys(c.Options) {
		if !optionKeyPattern.MatchString(k) {
			return &ConfigError{Field: "engine_options", Message: fmt.Sprintf("key %q must be upper-case snake case", k)}
		}
		if reservedKeys[k] {
			return &ConfigError{Field: "engine_options", Message: fmt.Sprintf("key %q is set by the sweep and cannot be overridden", k)}
		}
		if c.Options[k] == nil {
			return &ConfigError{Field: "engine_options", Message: fmt.Sprintf("key %q has no value", k)}
		}
	}
	return nil
}

// Document returns the configuration in the engine's JSON shape.
func (c EngineConfig) Document() map[string]any {
	doc := map[string]any{
		KeyDesignName:      c.Top,
		KeyPDK:             c.ProcessTech,
		KeyVerilogFiles:    c.Sources,
		KeySynthParameters: c.Parameters,
	}
	if c.ClockPort != "" {
		doc[KeyClockPort] = c.ClockPort
	}
	for k, v := range c.Options {
		doc[k] = v.Native()
	}
	return doc
}

// MarshalCanonical serializes the document as canonical JSON.
func (c EngineConfig) MarshalCanonical() ([]byte, error) {
	data, err := canon.Marshal(c.Document())
	if err != nil {
		return nil, fmt.Errorf("marshal engine config: %w", err)
	}
	return data, nil
}

// Fingerprint identifies the configuration content. Two runs with the same
// run ID and fingerprint were given identical inputs.
func (c EngineConfig) Fingerprint() (string, error) {
	data, err := c.MarshalCanonical()
	if err != nil {
		return "", err
	}
	return canon.HashWithDomain(canon.DomainEngineConfig, data), nil
}
