package definition

import (
	"bytes"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var yamlLinePattern = regexp.MustCompile(`line (\d+)`)

func decodeYAML(path string, data []byte) (*document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, loadErr(ErrCodeSyntax, path, "definition is empty")
		}
		return nil, yamlError(path, err)
	}
	return &doc, nil
}

// yamlError maps yaml.v3 errors to a LoadError at the first reported line.
func yamlError(path string, err error) *LoadError {
	msg := err.Error()
	code := ErrCodeSyntax
	var te *yaml.TypeError
	if errors.As(err, &te) && len(te.Errors) > 0 {
		msg = te.Errors[0]
		code = ErrCodeInvalidType
		if strings.Contains(msg, "not found in type") {
			code = ErrCodeUnknownField
		}
	}
	le := &LoadError{Code: code, Message: strings.TrimPrefix(msg, "yaml: "), Pos: Position{Filename: path}, Err: err}
	if m := yamlLinePattern.FindStringSubmatch(msg); m != nil {
		le.Pos.Line, _ = strconv.Atoi(m[1])
	}
	return le
}
