// Package fsprep resolves and prepares the install prefix.
//
// Preparation is split in two: Plan inspects the filesystem without touching
// it (so the confirmation gate can show the user exactly what will happen),
// and Apply executes the plan idempotently. Re-running Apply over a partial
// or complete previous run converges on the same state.
package fsprep

import (
	"context"
	"os"
	"os/user"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/cloudenvhq/cloudenv-install/internal/domain"
	"github.com/cloudenvhq/cloudenv-install/internal/pkg/filesystem"
	"github.com/cloudenvhq/cloudenv-install/internal/ports"
)

// EnvUserOverride names the install owner instead of the detected user.
// Useful when the installer itself runs under sudo.
const EnvUserOverride = "CLOUDENV_INSTALL_USER"

// HomeRoot is the mount point probed for the Linux fallback redirect.
const HomeRoot = "/home"

// Preparer implements ports.FilesystemPreparer.
type Preparer struct {
	Ops        ports.SystemOps
	Negotiator ports.PrivilegeNegotiator
	Reporter   ports.Reporter
	Logger     ports.Logger

	// Prefix candidates; tests point these at temp directories.
	DefaultPrefix  string
	FallbackPrefix string
	HomeRoot       string

	// Owner, when set, overrides the detected ownership for elevated
	// creations. Tests use it; production leaves it empty.
	Owner domain.Ownership
}

// NewPreparer builds a preparer with production prefix candidates.
func NewPreparer(ops ports.SystemOps, neg ports.PrivilegeNegotiator, reporter ports.Reporter, logger ports.Logger) *Preparer {
	return &Preparer{
		Ops:            ops,
		Negotiator:     neg,
		Reporter:       reporter,
		Logger:         logger,
		DefaultPrefix:  domain.DefaultPrefix,
		FallbackPrefix: filepath.Join(filesystem.UserHomeDir(), domain.LinuxFallbackDir),
		HomeRoot:       HomeRoot,
	}
}

// Plan implements ports.FilesystemPreparer. It resolves the final target
// (possibly redirecting to the Linux fallback prefix), validates that an
// existing prefix is traversable, and lists the directories Apply would
// create. No privilege probe happens when the binary path is already
// writable by the current user.
func (p *Preparer) Plan(ctx context.Context, env domain.ShellEnvironment, target domain.InstallTarget) (domain.PrepPlan, error) {
	plan := domain.PrepPlan{Target: target, Owner: p.ownerFor(env)}

	if writableForCreate(target.BinaryPath) {
		plan.DirectWrite = true
		return p.finishPlan(plan)
	}

	if env.IsMacOS() {
		granted, err := p.Negotiator.Ensure(ctx)
		if err != nil {
			return plan, err
		}
		if !granted {
			return plan, &domain.CommandFailedError{Command: probeCommand(env), ExitCode: 1}
		}
		plan.NeedsElevation = true
		return p.finishPlan(plan)
	}

	// Linux: prefer a user-writable prefix over elevation whenever the
	// run cannot prompt or a writable home exists.
	if !env.Interactive || writableForCreate(p.FallbackPrefix) || pathWritable(p.HomeRoot) {
		return p.redirect(plan)
	}

	granted, err := p.Negotiator.Ensure(ctx)
	if err != nil {
		return plan, err
	}
	if !granted {
		return p.redirect(plan)
	}
	plan.NeedsElevation = true
	return p.finishPlan(plan)
}

func (p *Preparer) redirect(plan domain.PrepPlan) (domain.PrepPlan, error) {
	plan.Target = domain.NewInstallTarget(p.FallbackPrefix)
	plan.Redirected = true
	plan.DirectWrite = true
	plan.NeedsElevation = false
	p.Logger.Info("install prefix redirected", map[string]interface{}{"prefix": plan.Target.Prefix})
	return p.finishPlan(plan)
}

func (p *Preparer) finishPlan(plan domain.PrepPlan) (domain.PrepPlan, error) {
	prefix := plan.Target.Prefix
	if exists(prefix) && unix.Access(prefix, unix.X_OK) != nil {
		return plan, &domain.UnsafePrefixError{Prefix: prefix}
	}

	for _, dir := range []string{prefix, plan.Target.BinDir} {
		if !exists(dir) {
			plan.MissingDirs = append(plan.MissingDirs, dir)
		}
	}
	return plan, nil
}

// Apply implements ports.FilesystemPreparer. Directory creation and
// ownership assignment are best-effort idempotent: re-running over an
// already-correct tree succeeds without changing anything.
func (p *Preparer) Apply(ctx context.Context, plan domain.PrepPlan) ([]string, error) {
	var created []string
	for _, dir := range plan.MissingDirs {
		if err := p.Ops.MkdirAll(ctx, dir, domain.DirectoryPermissions, plan.NeedsElevation); err != nil {
			return created, err
		}
		if err := p.Ops.Chmod(ctx, dir, domain.DirectoryPermissions, plan.NeedsElevation); err != nil {
			return created, err
		}
		if plan.NeedsElevation {
			if err := p.Ops.Chown(ctx, dir, plan.Owner, true); err != nil {
				return created, err
			}
		}
		created = append(created, dir)
	}
	return created, nil
}

func (p *Preparer) ownerFor(env domain.ShellEnvironment) domain.Ownership {
	if p.Owner != (domain.Ownership{}) {
		return p.Owner
	}
	return resolveOwner(env.Platform)
}

// resolveOwner names the user and group assigned to elevated creations:
// macOS uses the admin group, Linux the user's primary group.
func resolveOwner(platform domain.Platform) domain.Ownership {
	owner := domain.Ownership{User: os.Getenv(EnvUserOverride)}

	current, err := user.Current()
	if err == nil && owner.User == "" {
		owner.User = current.Username
	}

	if platform == domain.PlatformMacOS {
		owner.Group = domain.MacOSAdminGroup
		return owner
	}
	if err == nil {
		if group, gerr := user.LookupGroupId(current.Gid); gerr == nil {
			owner.Group = group.Name
			return owner
		}
	}
	owner.Group = owner.User
	return owner
}

// probeCommand names the sudo probe the negotiator just ran, so a denial
// can echo the failing command verbatim.
func probeCommand(env domain.ShellEnvironment) string {
	if env.Interactive {
		return "sudo -v"
	}
	return "sudo -n true"
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func pathWritable(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}

// writableForCreate reports whether the current user could write path:
// either path itself is writable, or its nearest existing ancestor is, so
// the missing chain can be created without elevation.
func writableForCreate(path string) bool {
	if exists(path) {
		return pathWritable(path)
	}
	dir := filepath.Dir(path)
	for {
		if exists(dir) {
			return pathWritable(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return false
		}
		dir = parent
	}
}

var _ ports.FilesystemPreparer = (*Preparer)(nil)
