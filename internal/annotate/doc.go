// Package annotate writes classification metadata onto organized files as
// extended attributes. Annotation is best-effort: the orchestrator treats
// failures here as warnings, never as a reason to undo a move.
package annotate
