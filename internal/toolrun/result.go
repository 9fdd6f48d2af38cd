// Package toolrun wraps calls to external tools behind a typed result.
//
// Every adapter that shells out (the synthesis engine, the diagram converter)
// returns a Result instead of relying on errors for control flow: Ok carries
// the produced path, a failure carries a reason and the tool's diagnostics.
package toolrun

import "fmt"

// Result is the outcome of one external tool call.
type Result struct {
	// Path is the produced output. Empty on failure.
	Path string

	// Reason is a one-line failure description. Empty on success.
	Reason string

	// Diagnostics holds the tail of the tool's output, kept for both outcomes.
	Diagnostics string
}

// Ok returns a successful result for path.
func Ok(path string) Result {
	return Result{Path: path}
}

// Fail returns a failed result.
func Fail(format string, args ...any) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

// OK reports whether the call succeeded.
func (r Result) OK() bool {
	return r.Reason == ""
}

// WithDiagnostics returns a copy of r carrying the given diagnostics.
func (r Result) WithDiagnostics(diag string) Result {
	r.Diagnostics = diag
	return r
}

func (r Result) String() string {
	if r.OK() {
		return "ok: " + r.Path
	}
	return "failed: " + r.Reason
}
