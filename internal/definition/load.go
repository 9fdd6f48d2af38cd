package definition

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Format is a definition syntax.
type Format string

const (
	FormatCUE  Format = "cue"
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"
)

// FormatOf selects the syntax from the file extension.
func FormatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return FormatCUE, true
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".hcl":
		return FormatHCL, true
	}
	return "", false
}

// Load reads, decodes and validates the definition at path.
func Load(path string) (*SweepDefinition, error) {
	format, ok := FormatOf(path)
	if !ok {
		return nil, loadErr(ErrCodeUnknownFormat, path, "unsupported definition format %q (want .cue, .yaml, .yml or .hcl)", filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, loadErr(ErrCodeReadFailed, path, "definition file not found")
	}
	if err != nil {
		return nil, loadErr(ErrCodeReadFailed, path, "%v", err)
	}
	return Parse(path, format, data)
}

// Parse decodes data in the given format. path is used for error positions
// and to resolve relative paths.
func Parse(path string, format Format, data []byte) (*SweepDefinition, error) {
	var (
		doc *document
		err error
	)
	switch format {
	case FormatCUE:
		doc, err = decodeCUE(path, data)
	case FormatYAML:
		doc, err = decodeYAML(path, data)
	case FormatHCL:
		doc, err = decodeHCL(path, data)
	default:
		return nil, loadErr(ErrCodeUnknownFormat, path, "unsupported definition format %q", format)
	}
	if err != nil {
		return nil, withFile(err, path)
	}
	return build(doc, path)
}
