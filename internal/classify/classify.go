package classify

import (
	"context"

	"curator/internal/templates"
)

// Request carries everything the provider may consider for one file.
type Request struct {
	FileName string
	Content  []byte
	MIMEType string
	// Templates lets the provider pick a destination template and folder.
	Templates []templates.Template
	// CustomContext is user-supplied guidance prepended during manual review.
	CustomContext string
}

// Result is the provider's structured judgement about one file.
type Result struct {
	Category           string   `json:"category"`
	Title              string   `json:"title"`
	Tags               []string `json:"tags"`
	Summary            string   `json:"summary"`
	Subcategories      []string `json:"subcategories"`
	SelectedTemplateID string   `json:"selectedTemplateId"`
	SelectedFolderPath string   `json:"selectedFolderPath"`

	// Provider, Model, and Raw describe where the judgement came from, for
	// provenance.
	Provider string `json:"-"`
	Model    string `json:"-"`
	Raw      string `json:"-"`
}

// Provider classifies files. Implementations are expected to be safe for
// concurrent use; the daemon classifies multiple files at once.
type Provider interface {
	Classify(ctx context.Context, req Request) (Result, error)
}

// Func adapts a plain function to the Provider interface.
type Func func(ctx context.Context, req Request) (Result, error)

// Classify implements Provider.
func (f Func) Classify(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}
