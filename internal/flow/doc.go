// Package flow invokes the external synthesis flow once per combination.
//
// An Invoker turns a (DesignSpec, Combination) pair into a validated
// EngineConfig, writes it next to the run, calls the Engine synchronously and
// returns a Run with a terminal status. Each run is keyed on disk by its run
// ID; a marker file in the run directory records the outcome and a
// fingerprint of the configuration so that a repeated sweep without
// overwrite skips runs that already succeeded with identical inputs.
//
// Engine failures never escape as errors. They are captured in the Run as a
// FlowExecutionError so the sweep can continue with the next combination.
package flow
