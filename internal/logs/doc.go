// Package logs locates and tails curator's run log files, backing the
// `curator logs` command.
package logs
