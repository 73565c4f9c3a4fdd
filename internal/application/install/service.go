// Package install orchestrates the one-shot cloudenv install pipeline:
// probe the host, resolve the target prefix, confirm, prepare the
// filesystem, fetch the artifact, and apply the interpreter shim when the
// host shell requires one.
package install

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudenvhq/cloudenv-install/internal/domain"
	"github.com/cloudenvhq/cloudenv-install/internal/pkg/filesystem"
	"github.com/cloudenvhq/cloudenv-install/internal/ports"
)

// Service orchestrates the install lifecycle end-to-end.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Prober         ports.EnvironmentProber
	Preparer       ports.FilesystemPreparer
	Ops            ports.SystemOps
	Downloader     ports.Downloader
	Shim           ports.InterpreterShim
	Prompter       ports.ConfirmationPrompter
	Reporter       ports.Reporter
	Logger         ports.Logger
}

// Run processes a single install request.
//
// The pipeline never mutates the filesystem before the confirmation gate:
// planning, validation, and the preview report all happen first, so a
// decline or a dry run leaves the host untouched.
func (s *Service) Run(req domain.InstallRequest) (domain.InstallReport, error) {
	if s.ConfigProvider == nil || s.Prober == nil || s.Preparer == nil ||
		s.Ops == nil || s.Downloader == nil || s.Shim == nil ||
		s.Reporter == nil || s.Logger == nil {
		return domain.InstallReport{}, errors.New("install.Service dependencies not satisfied")
	}

	ctx := req.Context
	if ctx == nil {
		ctx = context.Background()
	}

	env, err := s.Prober.Detect(ctx)
	if err != nil {
		return domain.InstallReport{}, err
	}

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		return domain.InstallReport{}, fmt.Errorf("load config: %w", err)
	}

	if req.NonInteractive || cfg.Install.NonInteractive {
		env.Interactive = false
	}

	url := cfg.Artifact.URL
	if req.URLOverride != "" {
		url = req.URLOverride
	}
	prefix := cfg.Install.Prefix
	if req.PrefixOverride != "" {
		prefix = filesystem.ExpandTilde(req.PrefixOverride)
	}

	plan, err := s.Preparer.Plan(ctx, env, domain.NewInstallTarget(prefix))
	if err != nil {
		return domain.InstallReport{}, err
	}
	s.Logger.Debug("install planned", map[string]interface{}{
		"prefix":     plan.Target.Prefix,
		"redirected": plan.Redirected,
		"elevated":   plan.NeedsElevation,
		"missing":    plan.MissingDirs,
	})

	report := domain.InstallReport{
		Environment: env,
		Target:      plan.Target,
		ArtifactURL: url,
		Redirected:  plan.Redirected,
		Elevated:    plan.NeedsElevation,
		DryRun:      req.DryRun,
	}

	s.preview(env, plan, url, prefix)

	if req.DryRun {
		s.Reporter.Success("dry run complete; nothing was changed")
		return report, nil
	}

	if err := s.confirm(ctx, req, cfg, env, plan); err != nil {
		return report, err
	}

	created, err := s.Preparer.Apply(ctx, plan)
	report.CreatedDirs = created
	if err != nil {
		return report, err
	}

	s.Reporter.Step("downloading %s", url)
	if err := s.fetch(ctx, url, plan); err != nil {
		return report, err
	}

	if env.NeedsShim {
		s.Reporter.Step("pointing the script at %s", env.AlternateShell)
		if err := s.Shim.Rewrite(plan.Target.BinaryPath, env.AlternateShell); err != nil {
			return report, err
		}
		report.ShimApplied = true
	}

	s.Reporter.Success("cloudenv installed to %s", plan.Target.BinaryPath)
	s.guidance(plan.Target)
	return report, nil
}

// preview describes the pending work before anything is touched. requested
// is the prefix the run asked for, which a redirect may have replaced.
func (s *Service) preview(env domain.ShellEnvironment, plan domain.PrepPlan, url, requested string) {
	s.Reporter.Headline("Installing cloudenv")
	s.Reporter.Step("platform: %s %s", env.Platform, env.PlatformDesc)
	s.Reporter.Step("artifact: %s", url)
	s.Reporter.Step("destination: %s", plan.Target.BinaryPath)

	if plan.Redirected {
		s.Reporter.Warn("%s is not writable; installing to %s instead", requested, plan.Target.Prefix)
	}
	if plan.NeedsElevation {
		s.Reporter.Step("directories will be created with sudo and owned by %s:%s", plan.Owner.User, plan.Owner.Group)
	}
	if len(plan.MissingDirs) > 0 {
		s.Reporter.Step("the following new directories will be created:")
		for _, dir := range plan.MissingDirs {
			s.Reporter.Detail("%s", dir)
		}
	}
	if env.NeedsShim {
		s.Reporter.Warn("bash %d is older than cloudenv needs; the script will run under %s", env.ShellMajor, env.AlternateShell)
	}
	s.Reporter.Warn("the downloaded artifact is not integrity-checked")
}

// confirm gates the mutating phase. Non-interactive runs and explicit
// consent flags skip the prompt; everything else asks.
func (s *Service) confirm(ctx context.Context, req domain.InstallRequest, cfg domain.Config, env domain.ShellEnvironment, plan domain.PrepPlan) error {
	if req.AssumeYes || cfg.Install.SkipConfirm || !env.Interactive {
		return nil
	}
	if s.Prompter == nil {
		return nil
	}
	ok, err := s.Prompter.Confirm(ctx, fmt.Sprintf("Install cloudenv to %s?", plan.Target.BinaryPath))
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrUserDeclined
	}
	return nil
}

// fetch places the artifact at the target path. A direct-write plan
// downloads straight to the destination; an elevated plan downloads to a
// user-owned temp file and promotes it under sudo, so the unprivileged
// network client never needs root.
func (s *Service) fetch(ctx context.Context, url string, plan domain.PrepPlan) error {
	if !plan.NeedsElevation {
		return s.Downloader.Fetch(ctx, url, plan.Target.BinaryPath, domain.ExecutablePermissions)
	}

	tmp, err := os.CreateTemp("", domain.BinaryName+"-*")
	if err != nil {
		return fmt.Errorf("create staging file: %w", err)
	}
	staging := tmp.Name()
	if err := tmp.Close(); err != nil {
		return err
	}
	defer os.Remove(staging)

	if err := s.Downloader.Fetch(ctx, url, staging, domain.ExecutablePermissions); err != nil {
		return err
	}
	if err := s.Ops.Move(ctx, staging, plan.Target.BinaryPath, true); err != nil {
		return err
	}
	if err := s.Ops.Chmod(ctx, plan.Target.BinaryPath, domain.ExecutablePermissions, true); err != nil {
		return err
	}
	return s.Ops.Chown(ctx, plan.Target.BinaryPath, plan.Owner, true)
}

// guidance tells the user how to reach the binary when its directory is
// not already on PATH.
func (s *Service) guidance(target domain.InstallTarget) {
	if dirOnPath(target.BinDir, os.Getenv("PATH")) {
		s.Reporter.Detail("run: %s", domain.BinaryName)
		return
	}
	s.Reporter.Warn("%s is not on your PATH", target.BinDir)
	s.Reporter.Detail(`add it with: export PATH="%s:$PATH"`, target.BinDir)
}

func dirOnPath(dir, pathEnv string) bool {
	clean := filepath.Clean(dir)
	for _, entry := range strings.Split(pathEnv, string(os.PathListSeparator)) {
		if entry != "" && filepath.Clean(entry) == clean {
			return true
		}
	}
	return false
}

var _ domain.InstallService = (*Service)(nil)
