package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"curator/internal/classify"
	"curator/internal/organizer"
)

func sampleProposal() organizer.Proposal {
	return organizer.Proposal{
		SourcePath: "/tmp/inbox/scan.pdf",
		DestPath:   "/tmp/docs/Contracts/service-agreement.pdf",
		Result: classify.Result{
			Category: "Legal",
			Title:    "Service Agreement",
			Tags:     []string{"contract"},
		},
	}
}

func TestPromptConfirmerAccept(t *testing.T) {
	var out bytes.Buffer
	confirmer := newPromptConfirmer(strings.NewReader("a\n"), &out)

	decision, err := confirmer.Confirm(context.Background(), sampleProposal())
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if decision.Action != organizer.ActionAccept {
		t.Fatalf("expected accept, got %v", decision.Action)
	}
	if !strings.Contains(out.String(), "service-agreement.pdf") {
		t.Fatalf("expected proposal shown, got %q", out.String())
	}
}

func TestPromptConfirmerReject(t *testing.T) {
	var out bytes.Buffer
	confirmer := newPromptConfirmer(strings.NewReader("r\n"), &out)

	decision, err := confirmer.Confirm(context.Background(), sampleProposal())
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if decision.Action != organizer.ActionReject {
		t.Fatalf("expected reject, got %v", decision.Action)
	}
}

func TestPromptConfirmerEdit(t *testing.T) {
	var out bytes.Buffer
	confirmer := newPromptConfirmer(strings.NewReader("e\nsigned\nacme\n"), &out)

	decision, err := confirmer.Confirm(context.Background(), sampleProposal())
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if decision.Action != organizer.ActionRevise {
		t.Fatalf("expected revise, got %v", decision.Action)
	}
	if decision.Revision.Suffix != "signed" || decision.Revision.ContextPrefix != "acme" {
		t.Fatalf("unexpected revision %+v", decision.Revision)
	}
}

func TestPromptConfirmerRepromptsOnGarbage(t *testing.T) {
	var out bytes.Buffer
	confirmer := newPromptConfirmer(strings.NewReader("what\na\n"), &out)

	decision, err := confirmer.Confirm(context.Background(), sampleProposal())
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if decision.Action != organizer.ActionAccept {
		t.Fatalf("expected accept after reprompt, got %v", decision.Action)
	}
	if !strings.Contains(out.String(), "please answer") {
		t.Fatalf("expected reprompt text, got %q", out.String())
	}
}

