// Package templates stores user-defined organization templates as an
// ordered, hand-editable JSON collection keyed by unique id.
package templates
