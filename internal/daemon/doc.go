// Package daemon runs the watch service: one singleton-guarded process that
// watches every watch-enabled template and organizes files as they appear.
package daemon
