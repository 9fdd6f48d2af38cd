// Package canon produces canonical JSON (RFC 8785 subset) and domain-separated
// content hashes.
//
// Engine configurations, run fingerprints and the exported report context are
// all serialized through this package so that identical inputs always produce
// byte-identical output. Floats and nulls are rejected: parameter values are
// strings, integers and booleans only.
package canon
