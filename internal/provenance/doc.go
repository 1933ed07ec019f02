// Package provenance persists the durable, versioned history of every
// organize operation in SQLite: where a file came from, how it was
// classified and renamed, and every prior state as a version snapshot.
//
// The store serializes writes internally; components share a single handle
// and need no locking of their own.
package provenance
