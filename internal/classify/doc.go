// Package classify defines the classification boundary: the Provider
// interface the orchestrator calls once per file, and an HTTP client
// implementation that talks to an OpenAI-compatible chat completion endpoint
// in JSON mode.
package classify
