// Package shim rewrites an installed script's interpreter directive.
//
// Invoked only when the prober flagged the host's bash as too old while a
// compatible alternate shell exists. Only the first line changes; every byte
// after it is preserved exactly, and the file keeps its mode.
package shim

import (
	"bytes"
	"fmt"
	"os"

	"github.com/cloudenvhq/cloudenv-install/internal/ports"
)

// Rewriter implements ports.InterpreterShim.
type Rewriter struct {
	logger ports.Logger
}

// NewRewriter builds a rewriter.
func NewRewriter(logger ports.Logger) *Rewriter {
	return &Rewriter{logger: logger}
}

// Rewrite implements ports.InterpreterShim. interpreter is the absolute
// path of the replacement shell.
func (r *Rewriter) Rewrite(path, interpreter string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read artifact: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	rest := []byte{}
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		rest = data[idx+1:]
	}

	out := make([]byte, 0, len(data))
	out = append(out, []byte("#!"+interpreter+"\n")...)
	out = append(out, rest...)

	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return fmt.Errorf("rewrite artifact: %w", err)
	}
	r.logger.Info("interpreter line rewritten", map[string]interface{}{
		"path":        path,
		"interpreter": interpreter,
	})
	return nil
}

var _ ports.InterpreterShim = (*Rewriter)(nil)
