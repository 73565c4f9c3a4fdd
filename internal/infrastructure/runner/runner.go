// Package runner executes external commands with explicit argument lists.
//
// Commands are spawned directly (no shell in between), so arguments never
// pass through quoting or interpolation. This is the single place the
// installer touches os/exec.
package runner

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/cloudenvhq/cloudenv-install/internal/ports"
)

// Result wraps details from a finished command.
type Result struct {
	Stdout     string
	Stderr     string
	ExitCode   int
	DurationMS int64
}

// Local runs commands on the host.
type Local struct {
	logger ports.Logger
}

// New builds a runner.
func New(logger ports.Logger) *Local {
	return &Local{logger: logger}
}

// Run executes name with args, capturing output. A non-zero exit is not an
// error at this layer; callers inspect Result.ExitCode and decide.
func (r *Local) Run(ctx context.Context, name string, args ...string) (Result, error) {
	return r.run(ctx, nil, name, args...)
}

// RunAttached executes name with args wired to the caller's terminal.
// Used for commands that may legitimately prompt (sudo password).
func (r *Local) RunAttached(ctx context.Context, name string, args ...string) (Result, error) {
	return r.run(ctx, os.Stdin, name, args...)
}

func (r *Local) run(ctx context.Context, stdin *os.File, name string, args ...string) (Result, error) {
	c := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	if stdin != nil {
		c.Stdin = stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
	} else {
		c.Stdout = &stdout
		c.Stderr = &stderr
	}

	r.logger.Debug("exec", map[string]interface{}{"command": CommandLine(name, args...)})

	start := time.Now()
	err := c.Run()
	result := Result{
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		DurationMS: time.Since(start).Milliseconds(),
	}

	if exitErr, ok := err.(*exec.ExitError); ok {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	if err != nil {
		return result, err
	}
	return result, nil
}

// LookPath reports where name resolves on PATH, if anywhere.
func (r *Local) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// CommandLine renders an argv for display. Purely cosmetic: the rendered
// string is echoed to the user, never handed back to a shell.
func CommandLine(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}
