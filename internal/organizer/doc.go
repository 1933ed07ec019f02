// Package organizer executes organize transactions. Each file moves through
// the states discovered, classified, path_resolved, confirmed, moved,
// recorded, annotated, with aborted reachable from any non-terminal state.
// The physical move is backup-then-relocate: a verified backup copy is
// written before the destination, and a failure at either step leaves the
// source file where it was.
package organizer
