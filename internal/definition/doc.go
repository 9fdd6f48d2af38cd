// Package definition loads sweep definition files.
//
// A definition names the process technology, the engine's design directory
// and an ordered list of designs, each with ordered parameter domains. Three
// syntaxes are accepted and selected by file extension: CUE (.cue), YAML
// (.yaml, .yml) and HCL (.hcl). All three decode into the same document and
// share one validation path, so they fail the same way on the same mistakes.
package definition
