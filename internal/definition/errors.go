package definition

import (
	"errors"
	"fmt"
)

// Error codes for LoadError.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeReadFailed    = "E002" // File missing or unreadable
	ErrCodeUnknownFormat = "E003" // Extension not recognized
	ErrCodeSyntax        = "E004" // Parse failure
	ErrCodeUnknownField  = "E005" // Field not part of the format
	ErrCodeMissingField  = "E006" // Required field absent
	ErrCodeInvalidType   = "E007" // Field has the wrong type
	ErrCodeInvalidValue  = "E008" // Parameter or option value not representable
	ErrCodeInvalidDesign = "E009" // Design rejected by sweep validation
)

// Position locates an error in a definition file.
type Position struct {
	Filename string
	Line     int
	Column   int
}

// IsValid reports whether the position carries a line.
func (p Position) IsValid() bool { return p.Line > 0 }

func (p Position) String() string {
	if p.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d", p.Filename, p.Line)
}

// LoadError reports a definition that could not be loaded.
type LoadError struct {
	Code    string
	Message string
	Pos     Position

	// Err is the underlying cause, typically a *sweep.ConfigurationError.
	Err error
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Code, e.Message)
	}
	if e.Pos.Filename != "" {
		return fmt.Sprintf("%s: %s: %s", e.Pos.Filename, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsLoadError reports whether err wraps a LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

func loadErr(code, file, format string, args ...any) *LoadError {
	return &LoadError{Code: code, Message: fmt.Sprintf(format, args...), Pos: Position{Filename: file}}
}
