// Package domain defines core entities and value objects for the installer.
//
// The domain layer is independent of infrastructure concerns: it holds the
// environment snapshot taken at startup, the install target description, and
// the error taxonomy surfaced to users. Nothing in this package touches the
// filesystem or the network.
package domain

// Platform enumerates supported operating systems.
type Platform string

const (
	PlatformLinux   Platform = "linux"
	PlatformMacOS   Platform = "darwin"
	PlatformUnknown Platform = "unknown"
)

// ShellKind enumerates shells the installer knows how to reason about.
type ShellKind string

const (
	ShellUnknown ShellKind = "unknown"
	ShellBash    ShellKind = "bash"
	ShellZsh     ShellKind = "zsh"
)

// ShellEnvironment is a read-only snapshot of the host taken at startup.
// It drives every later branch of the pipeline and is never mutated.
type ShellEnvironment struct {
	Platform     Platform
	PlatformDesc string // human description, e.g. "ubuntu 22.04" (best effort)
	Shell        ShellKind
	ShellPath    string
	ShellMajor   int
	Interactive  bool

	// NeedsShim is set when the login shell is a bash older than the
	// artifact requires but a compatible alternate shell exists on PATH.
	NeedsShim      bool
	AlternateShell string
}

// IsLinux reports whether the detected platform is Linux.
func (e ShellEnvironment) IsLinux() bool {
	return e.Platform == PlatformLinux
}

// IsMacOS reports whether the detected platform is macOS.
func (e ShellEnvironment) IsMacOS() bool {
	return e.Platform == PlatformMacOS
}
