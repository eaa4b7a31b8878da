// Package store provides the SQLite-backed record store.
//
// One Store owns one database file, the schema model that shaped it, and an
// in-memory working set of uncommitted changes. Stores are injected
// explicitly: there is no package-level singleton, and a process may open
// several stores as long as each file has exactly one.
//
// # Write model
//
// Mutations (InsertOrUpdate, Delete) stage changes in the working set;
// Commit flushes the set to disk in a single transaction. Reads overlay the
// working set on the stored rows, so uncommitted changes are visible to
// Fetch and FetchAll. A failed flush keeps the working set as-is - there is
// no automatic revert.
//
// # Concurrency
//
// All mutating operations are synchronous, blocking, and must be issued from
// a single goroutine. That contract is asserted, not locked: a write that
// overlaps another panics. Reads share the same single-connection constraint
// through the underlying database handle.
//
// # Database configuration
//
//   - WAL mode for concurrent reads during writes
//   - synchronous=NORMAL to balance durability and speed
//   - busy_timeout=5000 for lock contention
//   - foreign_keys=ON so ref attributes cascade on delete
package store
