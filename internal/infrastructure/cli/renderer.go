package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/cloudenvhq/cloudenv-install/internal/ports"
)

const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
)

// Renderer implements ports.Reporter on a terminal. Color is enabled only
// when the destination is a TTY; piped output stays plain ASCII.
type Renderer struct {
	out   io.Writer
	color bool
}

// NewRenderer constructs a renderer writing to out.
func NewRenderer(out io.Writer) *Renderer {
	if out == nil {
		out = os.Stdout
	}
	return &Renderer{out: out, color: isTerminal(out)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Headline announces a new phase.
func (r *Renderer) Headline(format string, args ...interface{}) {
	r.line(ansiBold, "", format, args...)
}

// Step reports one unit of progress.
func (r *Renderer) Step(format string, args ...interface{}) {
	r.line(ansiCyan, "==> ", format, args...)
}

// Warn flags something the user should read without stopping the run.
func (r *Renderer) Warn(format string, args ...interface{}) {
	r.line(ansiYellow, "warning: ", format, args...)
}

// Success reports a completed outcome.
func (r *Renderer) Success(format string, args ...interface{}) {
	r.line(ansiGreen, "", format, args...)
}

// Detail prints indented supporting output, such as echoed commands.
func (r *Renderer) Detail(format string, args ...interface{}) {
	fmt.Fprintf(r.out, "    "+format+"\n", args...)
}

func (r *Renderer) line(color, prefix, format string, args ...interface{}) {
	msg := prefix + fmt.Sprintf(format, args...)
	if r.color {
		msg = color + msg + ansiReset
	}
	fmt.Fprintln(r.out, msg)
}

var _ ports.Reporter = (*Renderer)(nil)
