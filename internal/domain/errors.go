package domain

import (
	"errors"
	"fmt"
)

// UnsupportedPlatformError reports a kernel the installer does not know.
type UnsupportedPlatformError struct {
	OS string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported platform %q: cloudenv supports Linux and macOS only", e.OS)
}

// IncompatibleShellError reports a shell below the required version with no
// compatible alternate available on PATH.
type IncompatibleShellError struct {
	Shell   ShellKind
	Major   int
	Minimum int
}

func (e *IncompatibleShellError) Error() string {
	return fmt.Sprintf("%s %d is too old: cloudenv needs %s >= %d (or zsh); please upgrade your shell",
		e.Shell, e.Major, ShellBash, e.Minimum)
}

// UnsafePrefixError reports an existing prefix the current user cannot
// traverse. Remediation names the exact command to run.
type UnsafePrefixError struct {
	Prefix string
}

func (e *UnsafePrefixError) Error() string {
	return fmt.Sprintf("prefix %s exists but is not searchable by the current user; run: chmod 775 %s", e.Prefix, e.Prefix)
}

// CommandFailedError reports any external action that exited non-zero,
// echoing the failing command verbatim. Downloads map the request line
// into Command and the HTTP status into ExitCode.
type CommandFailedError struct {
	Command  string
	ExitCode int
}

func (e *CommandFailedError) Error() string {
	return fmt.Sprintf("command failed (exit %d): %s", e.ExitCode, e.Command)
}

// MissingDependencyError reports an absent external tool before any side
// effect occurs.
type MissingDependencyError struct {
	Tool string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("required tool %q not found on PATH", e.Tool)
}

// ErrUserDeclined is returned when the confirmation prompt is answered
// negatively or interrupted. The CLI exits non-zero without extra noise.
var ErrUserDeclined = errors.New("installation declined")
