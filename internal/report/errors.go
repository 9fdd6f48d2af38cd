package report

import (
	"errors"
	"fmt"
)

// ErrTemplateNotFound is wrapped by RenderError when no search path entry
// and no built-in template matches the requested name.
var ErrTemplateNotFound = errors.New("template not found")

// RenderError means no report was produced. Any previous report file is left
// untouched.
type RenderError struct {
	Template string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render report with template %q: %v", e.Template, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// IsRenderError reports whether err wraps a RenderError.
func IsRenderError(err error) bool {
	var re *RenderError
	return errors.As(err, &re)
}
