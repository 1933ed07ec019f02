package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"curator/internal/organizer"
)

// promptConfirmer runs the interactive review loop: show the proposal, then
// accept, reject, or edit the name. Edits feed back into another round
// without re-running classification.
type promptConfirmer struct {
	reader *bufio.Reader
	out    io.Writer
}

func newPromptConfirmer(in io.Reader, out io.Writer) *promptConfirmer {
	return &promptConfirmer{reader: bufio.NewReader(in), out: out}
}

func (p *promptConfirmer) Confirm(ctx context.Context, proposal organizer.Proposal) (organizer.Decision, error) {
	fmt.Fprintf(p.out, "\n%s\n", proposal.SourcePath)
	fmt.Fprintf(p.out, "  category: %s\n", proposal.Result.Category)
	fmt.Fprintf(p.out, "  title:    %s\n", proposal.Result.Title)
	if len(proposal.Result.Tags) > 0 {
		fmt.Fprintf(p.out, "  tags:     %s\n", strings.Join(proposal.Result.Tags, ", "))
	}
	if proposal.FolderFellBack {
		fmt.Fprintf(p.out, "  note:     suggested folder was outside the whitelist; using fallback\n")
	}
	fmt.Fprintf(p.out, "  -> %s\n", proposal.DestPath)

	for {
		fmt.Fprint(p.out, "[a]ccept / [e]dit / [r]eject? ")
		answer, err := p.readLine(ctx)
		if err != nil {
			return organizer.Decision{}, err
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "a", "accept", "y", "yes", "":
			return organizer.Decision{Action: organizer.ActionAccept}, nil
		case "r", "reject", "n", "no":
			return organizer.Decision{Action: organizer.ActionReject}, nil
		case "e", "edit":
			revision, err := p.readRevision(ctx)
			if err != nil {
				return organizer.Decision{}, err
			}
			return organizer.Decision{Action: organizer.ActionRevise, Revision: revision}, nil
		default:
			fmt.Fprintln(p.out, "please answer a, e, or r")
		}
	}
}

func (p *promptConfirmer) readRevision(ctx context.Context) (organizer.Revision, error) {
	fmt.Fprint(p.out, "name suffix (blank for none): ")
	suffix, err := p.readLine(ctx)
	if err != nil {
		return organizer.Revision{}, err
	}
	fmt.Fprint(p.out, "context prefix (blank for none): ")
	prefix, err := p.readLine(ctx)
	if err != nil {
		return organizer.Revision{}, err
	}
	return organizer.Revision{
		Suffix:        strings.TrimSpace(suffix),
		ContextPrefix: strings.TrimSpace(prefix),
	}, nil
}

func (p *promptConfirmer) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
