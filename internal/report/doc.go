// Package report aggregates finished runs into a Context and renders it.
//
// The Aggregator consumes runs in canonical order (design order, then
// combination order) regardless of the order in which they completed, so
// identical inputs always yield byte-identical reports. The Renderer resolves
// a named template from a search path, falling back to the built-in
// templates, and replaces the output file only after rendering succeeded.
package report
