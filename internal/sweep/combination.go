package sweep

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// TagSeparator joins names and values in a tag, and the design top with the
// tag in a run ID.
const TagSeparator = "_"

// MaxCombinations bounds the size of a single design's product.
const MaxCombinations = 1 << 16

// Combination assigns one value to every domain of a design.
type Combination struct {
	// Index is the position in the design's enumeration order.
	Index int

	names  []string
	values []Value
}

// NewCombination builds a combination from parallel name and value slices.
func NewCombination(index int, names []string, values []Value) Combination {
	return Combination{
		Index:  index,
		names:  append([]string(nil), names...),
		values: append([]Value(nil), values...),
	}
}

// Names returns the parameter names in domain declaration order.
func (c Combination) Names() []string { return append([]string(nil), c.names...) }

// Values returns the parameter values in domain declaration order.
func (c Combination) Values() []Value { return append([]Value(nil), c.values...) }

// Len returns the number of assigned parameters.
func (c Combination) Len() int { return len(c.names) }

// Value looks up the value assigned to name.
func (c Combination) Value(name string) (Value, bool) {
	for i, n := range c.names {
		if n == name {
			return c.values[i], true
		}
	}
	return nil, false
}

// Tag concatenates name/value pairs in declaration order, e.g.
// IMPLEMENTATION_0_WIDTH_16. Characters outside [A-Za-z0-9._-] are replaced
// with '-'; the result is safe to use as a directory name.
func (c Combination) Tag() string {
	parts := make([]string, 0, 2*len(c.names))
	for i, n := range c.names {
		parts = append(parts, sanitize(n), sanitize(c.values[i].Text()))
	}
	return strings.Join(parts, TagSeparator)
}

// Assignments renders the combination as name=value strings in declaration order.
func (c Combination) Assignments() []string {
	out := make([]string, len(c.names))
	for i, n := range c.names {
		out[i] = n + "=" + c.values[i].Text()
	}
	return out
}

// RunID derives the on-disk key of a run from the design top and tag.
func RunID(top, tag string) string {
	if tag == "" {
		return top
	}
	return top + TagSeparator + tag
}

func sanitize(s string) string {
	s = norm.NFC.String(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

// Generate returns every combination of spec's domains. The last declared
// domain varies fastest, so the order is lexicographic over declaration
// order and identical across runs.
//
// Generate fails with a ConfigurationError if the spec is invalid or if two
// combinations share a tag.
func Generate(spec DesignSpec) ([]Combination, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	total := 1
	for _, dom := range spec.Domains {
		total *= len(dom.Values)
		if total > MaxCombinations {
			return nil, configErr(ErrCodeTooManyCombinations, spec.Top, dom.Name,
				"product exceeds %d combinations", MaxCombinations)
		}
	}

	names := spec.ParameterNames()
	combos := make([]Combination, total)
	for i := range combos {
		combos[i] = Combination{Index: i, names: names, values: make([]Value, len(names))}
	}

	repeat := 1
	for dim := len(spec.Domains) - 1; dim >= 0; dim-- {
		vals := spec.Domains[dim].Values
		cycle := len(vals)
		for i := 0; i < total; i++ {
			combos[i].values[dim] = vals[(i/repeat)%cycle]
		}
		repeat *= cycle
	}

	if err := CheckTags(spec.Top, combos); err != nil {
		return nil, err
	}
	return combos, nil
}

// CheckTags verifies that no two combinations of one design share a tag.
func CheckTags(top string, combos []Combination) error {
	seen := make(map[string]int, len(combos))
	for _, c := range combos {
		tag := c.Tag()
		if prev, ok := seen[tag]; ok {
			return configErr(ErrCodeTagCollision, top, "",
				"combinations %d and %d both map to tag %q", prev, c.Index, tag)
		}
		seen[tag] = c.Index
	}
	return nil
}

// CheckRunIDs verifies that run IDs are unique across designs. Runs of all
// designs share one runs directory, so a collision would let one run
// overwrite another. combos[i] holds the combinations of designs[i].
func CheckRunIDs(designs []DesignSpec, combos [][]Combination) error {
	type origin struct {
		top   string
		index int
	}
	seen := make(map[string]origin)
	for i, spec := range designs {
		for _, c := range combos[i] {
			id := RunID(spec.Top, c.Tag())
			if prev, ok := seen[id]; ok {
				return configErr(ErrCodeRunIDCollision, spec.Top, "",
					"combination %d and combination %d of %s both map to run ID %q",
					c.Index, prev.index, prev.top, id)
			}
			seen[id] = origin{top: spec.Top, index: c.Index}
		}
	}
	return nil
}
