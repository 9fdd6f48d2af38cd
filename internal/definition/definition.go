package definition

import (
	"fmt"
	"maps"
	"path/filepath"
	"strings"

	"github.com/roach88/synthsweep/internal/canon"
	"github.com/roach88/synthsweep/internal/sweep"
)

// SweepDefinition is a validated, fully resolved definition file.
type SweepDefinition struct {
	Name string

	// Path is the absolute path of the definition file.
	Path string

	ProcessTech string

	// DesignDir is the absolute engine design directory.
	DesignDir string

	Designs []sweep.DesignSpec

	// Hash fingerprints the resolved content, not the file bytes.
	Hash string
}

// TotalCombinations sums the combination counts of all designs.
func (d *SweepDefinition) TotalCombinations() int {
	n := 0
	for _, spec := range d.Designs {
		n += spec.CombinationCount()
	}
	return n
}

// CanonicalValue implements canon.Marshaler.
func (d *SweepDefinition) CanonicalValue() any {
	designs := make([]any, len(d.Designs))
	for i, spec := range d.Designs {
		params := make([]any, len(spec.Domains))
		for j, dom := range spec.Domains {
			values := make([]any, len(dom.Values))
			for k, v := range dom.Values {
				values[k] = v.Native()
			}
			params[j] = map[string]any{"name": dom.Name, "values": values}
		}
		options := make(map[string]any, len(spec.EngineOptions))
		for k, v := range spec.EngineOptions {
			options[k] = v.Native()
		}
		designs[i] = map[string]any{
			"top":            spec.Top,
			"sources":        spec.Sources,
			"clock_port":     spec.ClockPort,
			"engine_options": options,
			"parameters":     params,
		}
	}
	return map[string]any{
		"name":       d.Name,
		"pdk":        d.ProcessTech,
		"design_dir": d.DesignDir,
		"designs":    designs,
	}
}

// document is the format-neutral shape every syntax decodes into.
type document struct {
	Name          string         `yaml:"name"`
	PDK           string         `yaml:"pdk"`
	DesignDir     string         `yaml:"design_dir"`
	Sources       []string       `yaml:"sources"`
	ClockPort     string         `yaml:"clock_port"`
	EngineOptions map[string]any `yaml:"engine_options"`
	Designs       []designDoc    `yaml:"designs"`
}

type designDoc struct {
	Top           string         `yaml:"top"`
	Sources       []string       `yaml:"sources"`
	ClockPort     *string        `yaml:"clock_port"`
	EngineOptions map[string]any `yaml:"engine_options"`
	Parameters    []parameterDoc `yaml:"parameters"`
}

type parameterDoc struct {
	Name   string `yaml:"name"`
	Values []any  `yaml:"values"`
}

// build resolves defaults and paths and validates every design.
func build(doc *document, path string) (*SweepDefinition, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, loadErr(ErrCodeReadFailed, path, "resolve path: %v", err)
	}
	baseDir := filepath.Dir(abs)

	def := &SweepDefinition{
		Name:        strings.TrimSpace(doc.Name),
		Path:        abs,
		ProcessTech: strings.TrimSpace(doc.PDK),
		DesignDir:   resolvePath(baseDir, doc.DesignDir),
	}
	if def.Name == "" {
		def.Name = strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	}
	if def.ProcessTech == "" {
		return nil, loadErr(ErrCodeMissingField, path, "pdk is required")
	}
	if doc.DesignDir == "" {
		def.DesignDir = baseDir
	}
	if len(doc.Designs) == 0 {
		return nil, loadErr(ErrCodeMissingField, path, "at least one design is required")
	}

	defaults, err := convertOptions(doc.EngineOptions, "engine_options")
	if err != nil {
		return nil, withFile(err, path)
	}

	for i, dd := range doc.Designs {
		spec, err := buildDesign(doc, dd, i, baseDir, defaults)
		if err != nil {
			return nil, withFile(err, path)
		}
		def.Designs = append(def.Designs, spec)
	}

	def.Hash, err = canon.Fingerprint(canon.DomainDefinition, def)
	if err != nil {
		return nil, loadErr(ErrCodeGeneric, path, "%v", err)
	}
	return def, nil
}

func buildDesign(doc *document, dd designDoc, i int, baseDir string, defaults map[string]sweep.Value) (sweep.DesignSpec, error) {
	field := fmt.Sprintf("designs[%d]", i)
	top := strings.TrimSpace(dd.Top)
	if top == "" {
		return sweep.DesignSpec{}, &LoadError{Code: ErrCodeMissingField, Message: field + ".top is required"}
	}

	sources := dd.Sources
	if len(sources) == 0 {
		sources = doc.Sources
	}
	if len(sources) == 0 {
		return sweep.DesignSpec{}, &LoadError{Code: ErrCodeMissingField, Message: fmt.Sprintf("%s (%s): no sources given and no default sources", field, top)}
	}
	resolved := make([]string, len(sources))
	for j, s := range sources {
		if strings.TrimSpace(s) == "" {
			return sweep.DesignSpec{}, &LoadError{Code: ErrCodeInvalidType, Message: fmt.Sprintf("%s.sources[%d] is empty", field, j)}
		}
		resolved[j] = resolvePath(baseDir, s)
	}

	clock := doc.ClockPort
	if dd.ClockPort != nil {
		clock = *dd.ClockPort
	}

	overrides, err := convertOptions(dd.EngineOptions, field+".engine_options")
	if err != nil {
		return sweep.DesignSpec{}, err
	}
	options := maps.Clone(defaults)
	if options == nil {
		options = make(map[string]sweep.Value)
	}
	maps.Copy(options, overrides)

	domains := make([]sweep.ParameterDomain, len(dd.Parameters))
	for j, p := range dd.Parameters {
		dom := sweep.ParameterDomain{Name: p.Name, Values: make([]sweep.Value, len(p.Values))}
		for k, raw := range p.Values {
			v, err := toValue(raw)
			if err != nil {
				return sweep.DesignSpec{}, &LoadError{
					Code:    ErrCodeInvalidValue,
					Message: fmt.Sprintf("%s.parameters[%d].values[%d]: %v", field, j, k, err),
					Err:     &sweep.ConfigurationError{Code: sweep.ErrCodeInvalidValue, Design: top, Domain: p.Name, Message: err.Error()},
				}
			}
			dom.Values[k] = v
		}
		domains[j] = dom
	}

	spec, err := sweep.NewDesignSpec(top, domains, resolved, clock, options)
	if err != nil {
		return sweep.DesignSpec{}, &LoadError{Code: ErrCodeInvalidDesign, Message: err.Error(), Err: err}
	}
	return spec, nil
}

func convertOptions(raw map[string]any, field string) (map[string]sweep.Value, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]sweep.Value, len(raw))
	for _, k := range canon.SortedKeys(raw) {
		v, err := toValue(raw[k])
		if err != nil {
			return nil, &LoadError{
				Code:    ErrCodeInvalidValue,
				Message: fmt.Sprintf("%s.%s: %v", field, k, err),
				Err:     &sweep.ConfigurationError{Code: sweep.ErrCodeInvalidValue, Message: err.Error()},
			}
		}
		out[k] = v
	}
	return out, nil
}

// toValue converts a decoded scalar. Floats are refused outright, even
// integral ones: "8.0" should not silently become the tag "8".
func toValue(raw any) (sweep.Value, error) {
	switch v := raw.(type) {
	case float32, float64:
		return nil, fmt.Errorf("float value %v is not supported; use an integer or a string", v)
	}
	return sweep.ValueOf(raw)
}

func resolvePath(baseDir, p string) string {
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(baseDir, p)
}

func withFile(err error, path string) error {
	if le, ok := err.(*LoadError); ok && le.Pos.Filename == "" {
		le.Pos.Filename = path
	}
	return err
}
