// Package sweep holds the design-space model: parameter domains, design
// specifications and the combinations generated from them.
//
// Everything here is a pure function of its inputs. Generate enumerates the
// cartesian product of a design's domains in declaration order with the last
// domain varying fastest, and derives a filesystem-safe tag for each
// combination. Tag collisions are configuration errors, never silently merged.
package sweep
