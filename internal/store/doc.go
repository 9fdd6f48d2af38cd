// Package store provides the SQLite run ledger.
//
// Every sweep appends one sweeps row and one runs row per combination. The
// ledger is append-only apart from the sweep's final summary, and rows are
// written in canonical combination order so a sweep reads back exactly as
// it was generated.
//
// Ordering uses the logical seq column, never timestamps:
//
//	ORDER BY seq ASC, run_id COLLATE BINARY ASC
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
package store
