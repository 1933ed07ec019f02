package organizer

import "context"

// Action is what the confirmer decided about a proposed placement.
type Action int

const (
	ActionAccept Action = iota
	ActionReject
	ActionRevise
)

// Revision adjusts a proposed filename before acceptance.
type Revision struct {
	// Suffix is appended to the filename stem.
	Suffix string
	// ContextPrefix is prepended to the filename stem.
	ContextPrefix string
}

// Decision is one step of the confirmation loop. ActionRevise feeds the
// revised proposal back to the confirmer until it accepts or rejects.
type Decision struct {
	Action   Action
	Revision Revision
}

// Confirmer reviews a proposed placement before any file is touched.
type Confirmer interface {
	Confirm(ctx context.Context, proposal Proposal) (Decision, error)
}

// ConfirmerFunc adapts a plain function to the Confirmer interface.
type ConfirmerFunc func(ctx context.Context, proposal Proposal) (Decision, error)

func (f ConfirmerFunc) Confirm(ctx context.Context, proposal Proposal) (Decision, error) {
	return f(ctx, proposal)
}

// AutoConfirm accepts every proposal unchanged. The daemon uses it for
// templates with auto-organize enabled.
type AutoConfirm struct{}

func (AutoConfirm) Confirm(context.Context, Proposal) (Decision, error) {
	return Decision{Action: ActionAccept}, nil
}
