// Package lockfile enforces single-instance execution per operating mode
// using PID-stamped JSON lock artifacts with stale-lock reclamation.
package lockfile
