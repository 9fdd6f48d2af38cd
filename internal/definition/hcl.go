package definition

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// hclDocument is the HCL form of a definition:
//
//	pdk     = "sky130A"
//	sources = ["src/mux.sv"]
//
//	design "mux_bin_base" {
//	  parameter "WIDTH" {
//	    values = [8, 16]
//	  }
//	}
type hclDocument struct {
	Name          string       `hcl:"name,optional"`
	PDK           string       `hcl:"pdk,optional"`
	DesignDir     string       `hcl:"design_dir,optional"`
	Sources       []string     `hcl:"sources,optional"`
	ClockPort     string       `hcl:"clock_port,optional"`
	EngineOptions cty.Value    `hcl:"engine_options,optional"`
	Designs       []*hclDesign `hcl:"design,block"`
}

type hclDesign struct {
	Top           string          `hcl:"top,label"`
	Sources       []string        `hcl:"sources,optional"`
	ClockPort     *string         `hcl:"clock_port,optional"`
	EngineOptions cty.Value       `hcl:"engine_options,optional"`
	Parameters    []*hclParameter `hcl:"parameter,block"`
}

type hclParameter struct {
	Name   string    `hcl:"name,label"`
	Values cty.Value `hcl:"values"`
}

func decodeHCL(path string, data []byte) (*document, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, path)
	if diags.HasErrors() {
		return nil, hclError(ErrCodeSyntax, path, diags)
	}

	var parsed hclDocument
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, hclError(ErrCodeUnknownField, path, diags)
	}

	doc := &document{
		Name:      parsed.Name,
		PDK:       parsed.PDK,
		DesignDir: parsed.DesignDir,
		Sources:   parsed.Sources,
		ClockPort: parsed.ClockPort,
	}
	var err error
	if doc.EngineOptions, err = ctyObject(parsed.EngineOptions, "engine_options"); err != nil {
		return nil, err
	}
	for _, d := range parsed.Designs {
		dd := designDoc{
			Top:       d.Top,
			Sources:   d.Sources,
			ClockPort: d.ClockPort,
		}
		if dd.EngineOptions, err = ctyObject(d.EngineOptions, "design "+d.Top+" engine_options"); err != nil {
			return nil, err
		}
		for _, p := range d.Parameters {
			values, err := ctyList(p.Values, fmt.Sprintf("design %s parameter %s values", d.Top, p.Name))
			if err != nil {
				return nil, err
			}
			dd.Parameters = append(dd.Parameters, parameterDoc{Name: p.Name, Values: values})
		}
		doc.Designs = append(doc.Designs, dd)
	}
	return doc, nil
}

func hclError(code, path string, diags hcl.Diagnostics) *LoadError {
	le := &LoadError{Code: code, Message: diags.Error(), Pos: Position{Filename: path}, Err: diags}
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		le.Message = d.Summary
		if d.Detail != "" {
			le.Message += ": " + d.Detail
		}
		if d.Subject != nil {
			le.Pos.Line = d.Subject.Start.Line
			le.Pos.Column = d.Subject.Start.Column
		}
		break
	}
	return le
}

func absent(v cty.Value) bool {
	return v.Type() == cty.NilType || v.IsNull()
}

func ctyObject(v cty.Value, field string) (map[string]any, error) {
	if absent(v) {
		return nil, nil
	}
	if !v.Type().IsObjectType() && !v.Type().IsMapType() {
		return nil, &LoadError{Code: ErrCodeInvalidType, Message: fmt.Sprintf("%s must be an object", field)}
	}
	out := make(map[string]any)
	for it := v.ElementIterator(); it.Next(); {
		k, ev := it.Element()
		native, err := ctyScalar(ev)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeInvalidValue, Message: fmt.Sprintf("%s.%s: %v", field, k.AsString(), err)}
		}
		out[k.AsString()] = native
	}
	return out, nil
}

func ctyList(v cty.Value, field string) ([]any, error) {
	if absent(v) {
		return nil, nil
	}
	t := v.Type()
	if !t.IsTupleType() && !t.IsListType() && !t.IsSetType() {
		return nil, &LoadError{Code: ErrCodeInvalidType, Message: fmt.Sprintf("%s must be a list", field)}
	}
	out := make([]any, 0, v.LengthInt())
	for it := v.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		native, err := ctyScalar(ev)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeInvalidValue, Message: fmt.Sprintf("%s[%d]: %v", field, len(out), err)}
		}
		out = append(out, native)
	}
	return out, nil
}

// ctyScalar converts a known string, bool or whole-number value.
func ctyScalar(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, fmt.Errorf("null value is not supported")
	}
	if !v.IsKnown() {
		return nil, fmt.Errorf("value is not known")
	}
	switch v.Type() {
	case cty.String:
		return v.AsString(), nil
	case cty.Bool:
		return v.True(), nil
	case cty.Number:
		bf := v.AsBigFloat()
		if !bf.IsInt() {
			return nil, fmt.Errorf("float value %s is not supported; use an integer or a string", bf.Text('g', -1))
		}
		i, acc := bf.Int64()
		if acc != 0 {
			return nil, fmt.Errorf("integer %s overflows int64", bf.Text('f', 0))
		}
		return i, nil
	}
	return nil, fmt.Errorf("unsupported value type %s", v.Type().FriendlyName())
}
