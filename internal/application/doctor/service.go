// Package doctor runs pre-install diagnostics without changing the host.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudenvhq/cloudenv-install/internal/domain"
	"github.com/cloudenvhq/cloudenv-install/internal/ports"
)

// Service runs environment diagnostics. The negotiator it holds must be a
// non-interactive one: doctor never prompts for a password.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Prober         ports.EnvironmentProber
	Negotiator     ports.PrivilegeNegotiator
}

// Run executes checks and returns a report.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	checks = append(checks, ok("Config file", fmt.Sprintf("prefix %s, artifact %s", cfg.Install.Prefix, cfg.Artifact.URL)))

	env, err := s.Prober.Detect(ctx)
	checks = append(checks, platformCheck(env, err))
	checks = append(checks, shellCheck(env, err))
	if err != nil {
		return domain.HealthReport{Checks: checks}, err
	}

	checks = append(checks, s.privilegeCheck(ctx))

	target := domain.NewInstallTarget(cfg.Install.Prefix)
	checks = append(checks, installCheck(target))
	checks = append(checks, pathCheck(target))

	return domain.HealthReport{Checks: checks}, nil
}

func platformCheck(env domain.ShellEnvironment, err error) domain.HealthCheck {
	var unsupported *domain.UnsupportedPlatformError
	if errors.As(err, &unsupported) {
		return fail("Platform", unsupported.Error())
	}
	details := string(env.Platform)
	if env.PlatformDesc != "" {
		details += " (" + env.PlatformDesc + ")"
	}
	return ok("Platform", details)
}

func shellCheck(env domain.ShellEnvironment, err error) domain.HealthCheck {
	var incompatible *domain.IncompatibleShellError
	if errors.As(err, &incompatible) {
		return fail("Shell", incompatible.Error())
	}
	if env.NeedsShim {
		return warn("Shell", fmt.Sprintf("bash %d is too old; installs will run the script under %s", env.ShellMajor, env.AlternateShell))
	}
	if env.Shell == domain.ShellUnknown {
		return warn("Shell", "login shell not recognized; a PATH bash will be used")
	}
	return ok("Shell", fmt.Sprintf("%s %d", env.Shell, env.ShellMajor))
}

func (s *Service) privilegeCheck(ctx context.Context) domain.HealthCheck {
	granted, err := s.Negotiator.Ensure(ctx)
	if err != nil {
		var missing *domain.MissingDependencyError
		if errors.As(err, &missing) {
			return warn("Privileges", "sudo not found; system prefixes are unavailable")
		}
		return warn("Privileges", err.Error())
	}
	if granted {
		return ok("Privileges", "sudo credentials available without prompting")
	}
	return warn("Privileges", "sudo will prompt for a password when needed")
}

func installCheck(target domain.InstallTarget) domain.HealthCheck {
	if _, err := os.Stat(target.BinaryPath); err == nil {
		return ok("Existing install", fmt.Sprintf("%s present at %s", domain.BinaryName, target.BinaryPath))
	}
	return ok("Existing install", "none found; install will place a fresh binary")
}

func pathCheck(target domain.InstallTarget) domain.HealthCheck {
	clean := filepath.Clean(target.BinDir)
	for _, entry := range strings.Split(os.Getenv("PATH"), string(os.PathListSeparator)) {
		if entry != "" && filepath.Clean(entry) == clean {
			return ok("PATH", fmt.Sprintf("%s is on PATH", target.BinDir))
		}
	}
	return warn("PATH", fmt.Sprintf("%s is not on PATH", target.BinDir))
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
