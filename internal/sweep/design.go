package sweep

import (
	"maps"
	"regexp"
	"slices"
)

// namePattern matches identifiers accepted as design tops and parameter names.
// Both end up in file names and in Verilog parameter overrides.
var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// ParameterDomain is a named, ordered, finite set of values for one tunable.
type ParameterDomain struct {
	Name   string
	Values []Value
}

// NewDomain builds a ParameterDomain from plain Go scalars.
func NewDomain(name string, vals ...any) (ParameterDomain, error) {
	d := ParameterDomain{Name: name, Values: make([]Value, 0, len(vals))}
	for _, v := range vals {
		val, err := ValueOf(v)
		if err != nil {
			return ParameterDomain{}, configErr(ErrCodeInvalidValue, "", name, "%v", err)
		}
		d.Values = append(d.Values, val)
	}
	return d, nil
}

// DesignSpec pairs a design identity with its ordered parameter domains.
// Treat it as immutable; NewDesignSpec returns a private copy of its inputs.
type DesignSpec struct {
	Top     string
	Domains []ParameterDomain

	// Sources are the HDL files handed to the engine, in order.
	Sources []string

	// ClockPort is empty for purely combinational designs.
	ClockPort string

	// EngineOptions are passed through to the engine configuration.
	EngineOptions map[string]Value
}

// NewDesignSpec validates and deep-copies a design specification.
func NewDesignSpec(top string, domains []ParameterDomain, sources []string, clockPort string, options map[string]Value) (DesignSpec, error) {
	spec := DesignSpec{
		Top:           top,
		Domains:       make([]ParameterDomain, len(domains)),
		Sources:       slices.Clone(sources),
		ClockPort:     clockPort,
		EngineOptions: maps.Clone(options),
	}
	for i, d := range domains {
		spec.Domains[i] = ParameterDomain{Name: d.Name, Values: slices.Clone(d.Values)}
	}
	if err := spec.Validate(); err != nil {
		return DesignSpec{}, err
	}
	return spec, nil
}

// Validate checks the domain invariants: every domain non-empty, names
// well-formed and unique within the design.
func (d DesignSpec) Validate() error {
	if !namePattern.MatchString(d.Top) {
		return configErr(ErrCodeInvalidName, d.Top, "", "design top %q is not a valid identifier", d.Top)
	}
	seen := make(map[string]bool, len(d.Domains))
	for _, dom := range d.Domains {
		if !namePattern.MatchString(dom.Name) {
			return configErr(ErrCodeInvalidName, d.Top, dom.Name, "parameter name %q is not a valid identifier", dom.Name)
		}
		if seen[dom.Name] {
			return configErr(ErrCodeDuplicateDomain, d.Top, dom.Name, "parameter %q is declared more than once", dom.Name)
		}
		seen[dom.Name] = true
		if len(dom.Values) == 0 {
			return configErr(ErrCodeEmptyDomain, d.Top, dom.Name, "parameter %q has no values", dom.Name)
		}
		for i, v := range dom.Values {
			if v == nil {
				return configErr(ErrCodeInvalidValue, d.Top, dom.Name, "value %d is null", i)
			}
		}
	}
	return nil
}

// ParameterNames returns domain names in declaration order.
func (d DesignSpec) ParameterNames() []string {
	names := make([]string, len(d.Domains))
	for i, dom := range d.Domains {
		names[i] = dom.Name
	}
	return names
}

// CombinationCount returns the product of the domain sizes.
// A design without domains has exactly one (empty) combination.
func (d DesignSpec) CombinationCount() int {
	n := 1
	for _, dom := range d.Domains {
		n *= len(dom.Values)
	}
	return n
}
