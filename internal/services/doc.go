// Package services defines the shared error taxonomy used across curator
// components. Sentinel errors classify failures for recovery decisions and
// CLI exit codes; Wrap tags errors with component context while preserving
// errors.Is matching.
package services
