// Package main hosts the curator CLI entrypoint and command graph.
//
// The Cobra-based command tree covers interactive organizing, the watch
// daemon, template management, provenance record maintenance, and
// configuration scaffolding. It centralizes configuration resolution and
// structured logging setup so subcommands can focus on user experience.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
