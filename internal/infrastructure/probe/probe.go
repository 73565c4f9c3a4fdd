// Package probe implements the environment prober: a pure query of the host
// that snapshots platform, interactivity, and the invoking shell before the
// pipeline makes any decision.
package probe

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/host"

	"github.com/cloudenvhq/cloudenv-install/internal/domain"
	"github.com/cloudenvhq/cloudenv-install/internal/infrastructure/runner"
	"github.com/cloudenvhq/cloudenv-install/internal/ports"
)

// EnvNonInteractive forces non-interactive mode when set to any value.
const EnvNonInteractive = "CLOUDENV_INSTALL_NONINTERACTIVE"

// commandRunner is the slice of the runner the prober needs.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (runner.Result, error)
	LookPath(name string) (string, error)
}

// Detector probes the host.
type Detector struct {
	goos   string
	euid   func() int
	getenv func(string) string
	run    commandRunner
	logger ports.Logger
}

// NewDetector creates a detector bound to the real host.
func NewDetector(goos string, run commandRunner, logger ports.Logger) *Detector {
	return &Detector{
		goos:   goos,
		euid:   os.Geteuid,
		getenv: os.Getenv,
		run:    run,
		logger: logger,
	}
}

// Detect implements ports.EnvironmentProber.
//
// The returned snapshot is immutable; callers branch on it but never change
// it. Shell incompatibility is resolved here, before any network or
// filesystem activity: either the snapshot carries a shim plan or Detect
// fails with *domain.IncompatibleShellError.
func (d *Detector) Detect(ctx context.Context) (domain.ShellEnvironment, error) {
	env := domain.ShellEnvironment{}

	platform, err := mapPlatform(d.goos)
	if err != nil {
		return env, err
	}
	env.Platform = platform
	env.PlatformDesc = d.describePlatform(ctx)
	env.Interactive = d.euid() != 0 && d.getenv(EnvNonInteractive) == ""

	env.Shell, env.ShellPath = d.loginShell()
	if err := d.checkShellCompat(ctx, &env); err != nil {
		return env, err
	}

	d.logger.Debug("environment detected", map[string]interface{}{
		"platform":    env.Platform,
		"shell":       env.Shell,
		"shell_major": env.ShellMajor,
		"interactive": env.Interactive,
		"needs_shim":  env.NeedsShim,
	})
	return env, nil
}

// mapPlatform maps a kernel name to a supported platform.
func mapPlatform(goos string) (domain.Platform, error) {
	switch goos {
	case "linux":
		return domain.PlatformLinux, nil
	case "darwin":
		return domain.PlatformMacOS, nil
	default:
		return domain.PlatformUnknown, &domain.UnsupportedPlatformError{OS: goos}
	}
}

// describePlatform asks gopsutil for distro details. Failures degrade to an
// empty description; the description is informational only.
func (d *Detector) describePlatform(ctx context.Context) string {
	platform, _, version, err := host.PlatformInformationWithContext(ctx)
	if err != nil || platform == "" {
		return ""
	}
	if version == "" {
		return platform
	}
	return platform + " " + version
}

// loginShell inspects $SHELL.
func (d *Detector) loginShell() (domain.ShellKind, string) {
	path := d.getenv("SHELL")
	switch filepath.Base(path) {
	case "bash":
		return domain.ShellBash, path
	case "zsh":
		return domain.ShellZsh, path
	default:
		return domain.ShellUnknown, path
	}
}

// checkShellCompat enforces the bash version floor. The artifact is a bash
// script needing major >= domain.MinBashMajor; zsh is the accepted
// alternate. A login shell that is neither gets its PATH bash probed.
func (d *Detector) checkShellCompat(ctx context.Context, env *domain.ShellEnvironment) error {
	bashPath := env.ShellPath
	if env.Shell != domain.ShellBash {
		if found, err := d.run.LookPath("bash"); err == nil {
			bashPath = found
		} else {
			bashPath = ""
		}
	}

	if env.Shell == domain.ShellZsh {
		env.ShellMajor = d.majorVersion(ctx, env.ShellPath)
		return nil
	}

	if bashPath != "" {
		major := d.majorVersion(ctx, bashPath)
		env.ShellMajor = major
		if major >= domain.MinBashMajor {
			return nil
		}
	}

	if zshPath, err := d.run.LookPath("zsh"); err == nil {
		env.NeedsShim = true
		env.AlternateShell = zshPath
		return nil
	}

	return &domain.IncompatibleShellError{
		Shell:   domain.ShellBash,
		Major:   env.ShellMajor,
		Minimum: domain.MinBashMajor,
	}
}

// majorVersion runs "<shell> --version" and parses the leading major number.
func (d *Detector) majorVersion(ctx context.Context, shellPath string) int {
	ctx, cancel := context.WithTimeout(ctx, domain.DefaultProbeTimeout)
	defer cancel()

	res, err := d.run.Run(ctx, shellPath, "--version")
	if err != nil || res.ExitCode != 0 {
		return 0
	}
	return ParseMajorVersion(res.Stdout)
}

// ParseMajorVersion extracts the major version from shell --version output.
// Handles both "GNU bash, version 5.1.16(1)-release" and "zsh 5.9 (arm64)".
// Returns 0 when no version number is found.
func ParseMajorVersion(output string) int {
	line := output
	if idx := strings.IndexByte(output, '\n'); idx >= 0 {
		line = output[:idx]
	}
	for _, field := range strings.Fields(line) {
		digits := field
		if idx := strings.IndexAny(digits, ".("); idx >= 0 {
			digits = digits[:idx]
		}
		if major, err := strconv.Atoi(digits); err == nil && major > 0 {
			return major
		}
	}
	return 0
}

var _ ports.EnvironmentProber = (*Detector)(nil)
