// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and
// external adapters (infrastructure). Following the Ports and Adapters
// pattern, these interfaces keep the install pipeline independent of the
// concrete sudo/curl/cobra machinery living in the infrastructure layer.
//
// Key architectural concepts:
//   - Ports: Interfaces defined here (e.g., EnvironmentProber, Downloader)
//   - Adapters: Concrete implementations in the infrastructure layer
//   - Dependency inversion: Application depends on abstractions, not implementations
package ports

import (
	"context"
	"os"

	"github.com/cloudenvhq/cloudenv-install/internal/domain"
)

// ConfigProvider loads installer configuration overrides.
// Implementations typically read ~/.cloudenv/install.yaml and never write it.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// EnvironmentProber takes the read-only host snapshot that drives every later
// branch: platform, interactivity, invoking shell and its version.
// Detect performs no side effects beyond reading system information.
type EnvironmentProber interface {
	Detect(context.Context) (domain.ShellEnvironment, error)
}

// PrivilegeNegotiator determines whether elevated privileges are available,
// memoizing the answer for the process lifetime.
//
// Ensure is idempotent: the first call probes (non-blocking when the run is
// non-interactive), subsequent calls reuse the cached result without
// re-prompting. Revoke invalidates any elevation grant acquired by this
// process; it runs at most once and is safe to defer unconditionally.
type PrivilegeNegotiator interface {
	Ensure(context.Context) (bool, error)
	Revoke()
}

// SystemOps performs the typed filesystem actions of the install. Each
// operation takes an explicit argument list (no shell interpolation) and
// chooses direct syscalls or elevated execution based on the elevated flag.
// Every elevated command is logged before it runs; a non-zero exit surfaces
// as *domain.CommandFailedError with the command echoed verbatim.
type SystemOps interface {
	MkdirAll(ctx context.Context, path string, mode os.FileMode, elevated bool) error
	Chmod(ctx context.Context, path string, mode os.FileMode, elevated bool) error
	Chown(ctx context.Context, path string, owner domain.Ownership, elevated bool) error
	Move(ctx context.Context, src, dst string, elevated bool) error
}

// Downloader retrieves the artifact with a single attempt and no integrity
// verification (a documented gap of the install flow, not an oversight).
type Downloader interface {
	Fetch(ctx context.Context, url, dest string, mode os.FileMode) error
}

// FilesystemPreparer resolves and prepares the install prefix.
// Plan is side-effect free so the confirmation gate can present it; Apply
// executes the plan idempotently and returns the directories it created.
type FilesystemPreparer interface {
	Plan(ctx context.Context, env domain.ShellEnvironment, target domain.InstallTarget) (domain.PrepPlan, error)
	Apply(ctx context.Context, plan domain.PrepPlan) ([]string, error)
}

// InterpreterShim rewrites the installed artifact's interpreter directive,
// preserving every byte after the first line.
type InterpreterShim interface {
	Rewrite(path, interpreter string) error
}

// ConfirmationPrompter gates the install behind interactive consent.
// Implementations must honor context cancellation so an interrupt during the
// prompt becomes a clean abort instead of a hung read.
type ConfirmationPrompter interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// Reporter emits human-readable progress and guidance. It never affects
// control flow and never persists anything.
type Reporter interface {
	Headline(format string, args ...interface{})
	Step(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Success(format string, args ...interface{})
	Detail(format string, args ...interface{})
}

// Logger provides structured logging for debugging the pipeline itself.
// Implementations can route to different backends; the default stays silent
// unless verbose mode is enabled.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
