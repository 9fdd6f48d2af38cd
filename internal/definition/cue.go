package definition

import (
	"fmt"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

var (
	topFields    = fieldSet("name", "pdk", "design_dir", "sources", "clock_port", "engine_options", "designs")
	designFields = fieldSet("top", "sources", "clock_port", "engine_options", "parameters")
	paramFields  = fieldSet("name", "values")
)

func fieldSet(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// decodeCUE walks a CUE definition field by field. Definitions (#Foo) and
// hidden fields are ignored, so a file may carry its own schema.
func decodeCUE(path string, data []byte) (*document, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, cueError(ErrCodeSyntax, path, err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(ErrCodeInvalidType, path, err)
	}
	if err := checkFields(v, topFields, ""); err != nil {
		return nil, err
	}

	doc := &document{}
	var err error
	if doc.Name, err = cueString(v, "name", "name"); err != nil {
		return nil, err
	}
	if doc.PDK, err = cueString(v, "pdk", "pdk"); err != nil {
		return nil, err
	}
	if doc.DesignDir, err = cueString(v, "design_dir", "design_dir"); err != nil {
		return nil, err
	}
	if doc.Sources, err = cueStrings(v, "sources", "sources"); err != nil {
		return nil, err
	}
	if doc.ClockPort, err = cueString(v, "clock_port", "clock_port"); err != nil {
		return nil, err
	}
	if doc.EngineOptions, err = cueObject(v, "engine_options", "engine_options"); err != nil {
		return nil, err
	}

	designs, ok := lookup(v, "designs")
	if !ok {
		return doc, nil
	}
	iter, err := designs.List()
	if err != nil {
		return nil, invalidType(designs, "designs must be a list")
	}
	for i := 0; iter.Next(); i++ {
		dd, err := decodeCUEDesign(iter.Value(), fmt.Sprintf("designs[%d]", i))
		if err != nil {
			return nil, err
		}
		doc.Designs = append(doc.Designs, dd)
	}
	return doc, nil
}

func decodeCUEDesign(v cue.Value, field string) (designDoc, error) {
	var dd designDoc
	if err := checkFields(v, designFields, field); err != nil {
		return dd, err
	}
	var err error
	if dd.Top, err = cueString(v, "top", field+".top"); err != nil {
		return dd, err
	}
	if dd.Sources, err = cueStrings(v, "sources", field+".sources"); err != nil {
		return dd, err
	}
	if _, ok := lookup(v, "clock_port"); ok {
		clock, err := cueString(v, "clock_port", field+".clock_port")
		if err != nil {
			return dd, err
		}
		dd.ClockPort = &clock
	}
	if dd.EngineOptions, err = cueObject(v, "engine_options", field+".engine_options"); err != nil {
		return dd, err
	}

	params, ok := lookup(v, "parameters")
	if !ok {
		return dd, nil
	}
	iter, err := params.List()
	if err != nil {
		return dd, invalidType(params, field+".parameters must be a list")
	}
	for j := 0; iter.Next(); j++ {
		pv := iter.Value()
		pfield := fmt.Sprintf("%s.parameters[%d]", field, j)
		if err := checkFields(pv, paramFields, pfield); err != nil {
			return dd, err
		}
		name, err := cueString(pv, "name", pfield+".name")
		if err != nil {
			return dd, err
		}
		values, err := cueList(pv, "values", pfield+".values")
		if err != nil {
			return dd, err
		}
		dd.Parameters = append(dd.Parameters, parameterDoc{Name: name, Values: values})
	}
	return dd, nil
}

func lookup(v cue.Value, name string) (cue.Value, bool) {
	f := v.LookupPath(cue.ParsePath(name))
	return f, f.Exists()
}

// checkFields rejects regular fields outside allowed.
func checkFields(v cue.Value, allowed map[string]bool, field string) error {
	iter, err := v.Fields()
	if err != nil {
		msg := "must be a struct"
		if field != "" {
			msg = field + " " + msg
		}
		return invalidType(v, msg)
	}
	for iter.Next() {
		label := iter.Label()
		if allowed[label] {
			continue
		}
		known := make([]string, 0, len(allowed))
		for k := range allowed {
			known = append(known, k)
		}
		sort.Strings(known)
		name := label
		if field != "" {
			name = field + "." + label
		}
		return &LoadError{
			Code:    ErrCodeUnknownField,
			Message: fmt.Sprintf("unknown field %q (allowed: %v)", name, known),
			Pos:     position(iter.Value().Pos()),
		}
	}
	return nil
}

func cueString(v cue.Value, name, field string) (string, error) {
	f, ok := lookup(v, name)
	if !ok {
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", invalidType(f, field+" must be a string")
	}
	return s, nil
}

func cueStrings(v cue.Value, name, field string) ([]string, error) {
	f, ok := lookup(v, name)
	if !ok {
		return nil, nil
	}
	iter, err := f.List()
	if err != nil {
		return nil, invalidType(f, field+" must be a list of strings")
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, invalidType(iter.Value(), fmt.Sprintf("%s[%d] must be a string", field, len(out)))
		}
		out = append(out, s)
	}
	return out, nil
}

func cueList(v cue.Value, name, field string) ([]any, error) {
	f, ok := lookup(v, name)
	if !ok {
		return nil, nil
	}
	iter, err := f.List()
	if err != nil {
		return nil, invalidType(f, field+" must be a list")
	}
	var out []any
	for iter.Next() {
		s, err := cueScalar(iter.Value())
		if err != nil {
			return nil, &LoadError{
				Code:    ErrCodeInvalidValue,
				Message: fmt.Sprintf("%s[%d]: %v", field, len(out), err),
				Pos:     position(iter.Value().Pos()),
			}
		}
		out = append(out, s)
	}
	return out, nil
}

func cueObject(v cue.Value, name, field string) (map[string]any, error) {
	f, ok := lookup(v, name)
	if !ok {
		return nil, nil
	}
	iter, err := f.Fields()
	if err != nil {
		return nil, invalidType(f, field+" must be a struct")
	}
	out := make(map[string]any)
	for iter.Next() {
		s, err := cueScalar(iter.Value())
		if err != nil {
			return nil, &LoadError{
				Code:    ErrCodeInvalidValue,
				Message: fmt.Sprintf("%s.%s: %v", field, iter.Label(), err),
				Pos:     position(iter.Value().Pos()),
			}
		}
		out[iter.Label()] = s
	}
	return out, nil
}

func cueScalar(v cue.Value) (any, error) {
	switch v.Kind() {
	case cue.StringKind:
		return v.String()
	case cue.BoolKind:
		return v.Bool()
	case cue.IntKind:
		return v.Int64()
	case cue.FloatKind:
		f, _ := v.Float64()
		return nil, fmt.Errorf("float value %v is not supported; use an integer or a string", f)
	case cue.NullKind:
		return nil, fmt.Errorf("null value is not supported")
	}
	return nil, fmt.Errorf("unsupported value kind %v", v.Kind())
}

func invalidType(v cue.Value, msg string) *LoadError {
	return &LoadError{Code: ErrCodeInvalidType, Message: msg, Pos: position(v.Pos())}
}

func position(p token.Pos) Position {
	if !p.IsValid() {
		return Position{}
	}
	return Position{Filename: p.Filename(), Line: p.Line(), Column: p.Column()}
}

// cueError reports the first CUE error with its position.
func cueError(code, path string, err error) *LoadError {
	le := &LoadError{Code: code, Message: err.Error(), Pos: Position{Filename: path}, Err: err}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return le
	}
	first := errs[0]
	le.Message = first.Error()
	if positions := cueerrors.Positions(first); len(positions) > 0 && positions[0].IsValid() {
		le.Pos = position(positions[0])
	}
	return le
}
