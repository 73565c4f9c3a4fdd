package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cloudenvhq/cloudenv-install/internal/domain"
	"github.com/cloudenvhq/cloudenv-install/internal/ports"
)

// Prompter implements ConfirmationPrompter using stdin/stdout.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter constructs a prompter referencing stdio.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Prompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Confirm asks a yes/no question and waits for an answer or cancellation.
// Anything other than "y"/"yes" declines. An interrupt while the prompt is
// open resolves to domain.ErrUserDeclined so the caller aborts cleanly
// instead of hanging on the read.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	fmt.Fprintf(p.out, "%s [y/N]: ", question)

	type answer struct {
		line string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := p.in.ReadString('\n')
		ch <- answer{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return false, domain.ErrUserDeclined
	case a := <-ch:
		if a.err != nil {
			if errors.Is(a.err, io.EOF) {
				// Closed stdin means nobody can answer; treat as "no".
				return false, nil
			}
			return false, a.err
		}
		reply := strings.ToLower(strings.TrimSpace(a.line))
		return reply == "y" || reply == "yes", nil
	}
}

var _ ports.ConfirmationPrompter = (*Prompter)(nil)
