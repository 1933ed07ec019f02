// Package pathgen renders destination paths from naming patterns and fact
// maps, converts filename casing, and enforces folder whitelists.
package pathgen
