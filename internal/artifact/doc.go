// Package artifact locates engine-produced files inside a run and renders
// graph descriptions to images.
//
// Absence is never an error here. A failed run, a missing file or a failed
// conversion all degrade to an absent entry, so the report never links to a
// file that does not exist.
package artifact
