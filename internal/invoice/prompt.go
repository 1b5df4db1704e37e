package invoice

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// HuhPrompter asks for the token with an interactive form.
type HuhPrompter struct{}

func (HuhPrompter) PromptEntitlementToken(ctx context.Context) (string, error) {
	var token string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Pro release").
				Description(PromptMessage),
			huh.NewInput().
				Title("Invoice number").
				Placeholder("IN0123456789").
				Value(&token),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", nil
		}
		return "", err
	}
	return token, nil
}

// ReaderPrompter reads a single line from In after writing the prompt to Out.
type ReaderPrompter struct {
	In  io.Reader
	Out io.Writer
}

func (p ReaderPrompter) PromptEntitlementToken(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.Out != nil {
		fmt.Fprintln(p.Out, PromptMessage)
		fmt.Fprint(p.Out, "Please enter it: ")
	}
	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read invoice number: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// NonInteractive never has an answer.
type NonInteractive struct{}

func (NonInteractive) PromptEntitlementToken(context.Context) (string, error) {
	return "", nil
}

// DefaultPrompter picks the form when in and out are terminals, a line
// reader when only stdin is usable, and NonInteractive otherwise.
func DefaultPrompter(in, out *os.File) Prompter {
	inTTY := in != nil && isTerminal(in.Fd())
	outTTY := out != nil && isTerminal(out.Fd())
	switch {
	case inTTY && outTTY:
		return HuhPrompter{}
	case inTTY:
		return ReaderPrompter{In: in, Out: out}
	default:
		return NonInteractive{}
	}
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
