// Package store provides a SQLite-backed manifest of generation runs.
//
// Every time a module descriptor is generated with a manifest path, one run
// is recorded together with the identity of every kernel it produced:
//   - Runs: module name, config path, descriptor hash and a per-module seq
//   - Kernels: position, content-addressed kernel ID and identity tuple
//
// Runs are ordered by seq INTEGER, never by timestamps. Kernel IDs and the
// descriptor hash are computed by internal/ir/hash.go, so two runs over the
// same configuration store identical kernel rows.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
