// Package runner drives a complete sweep.
//
// A sweep runs in three phases:
//
//  1. Plan: every design is expanded into combinations and every engine
//     configuration is built and validated. Any ConfigurationError stops
//     the sweep here, before the engine is invoked even once.
//  2. Execute: combinations are invoked on a bounded worker pool. A failed
//     run is recorded and, under the default policy, the sweep continues.
//  3. Aggregate: runs are visited in canonical order (design declaration
//     order, then generation order), artifacts are resolved and converted,
//     and the report is rendered. Completion order never leaks into the
//     report.
//
// Each run is stamped with a logical sequence number from Clock and, when a
// Ledger is attached, recorded in the run ledger.
package runner
