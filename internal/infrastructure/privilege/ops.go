package privilege

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/user"
	"strconv"

	"github.com/cloudenvhq/cloudenv-install/internal/domain"
	"github.com/cloudenvhq/cloudenv-install/internal/infrastructure/runner"
	"github.com/cloudenvhq/cloudenv-install/internal/ports"
)

// Ops implements ports.SystemOps. Direct calls use the os package; elevated
// calls exec the equivalent coreutils command under sudo with an explicit
// argv, so no argument ever passes through a shell.
type Ops struct {
	run            execRunner
	reporter       ports.Reporter
	logger         ports.Logger
	nonInteractive bool
}

// NewOps builds the typed operation set. nonInteractive adds sudo's -n flag
// so an expired grant surfaces as a failure instead of a blocked prompt.
func NewOps(run execRunner, reporter ports.Reporter, logger ports.Logger, nonInteractive bool) *Ops {
	return &Ops{
		run:            run,
		reporter:       reporter,
		logger:         logger,
		nonInteractive: nonInteractive,
	}
}

// MkdirAll creates path and missing parents. Idempotent: an existing
// directory is not an error in either mode (mkdir -p semantics).
func (o *Ops) MkdirAll(ctx context.Context, path string, mode os.FileMode, elevated bool) error {
	if !elevated {
		return os.MkdirAll(path, mode)
	}
	return o.sudo(ctx, "mkdir", "-p", "-m", octal(mode), path)
}

// Chmod sets mode on path.
func (o *Ops) Chmod(ctx context.Context, path string, mode os.FileMode, elevated bool) error {
	if !elevated {
		return os.Chmod(path, mode)
	}
	return o.sudo(ctx, "chmod", octal(mode), path)
}

// Chown assigns owner to path. Already-correct ownership is naturally
// idempotent; chown does not fail on a no-op change.
func (o *Ops) Chown(ctx context.Context, path string, owner domain.Ownership, elevated bool) error {
	if !elevated {
		uid, gid, err := resolveIDs(owner)
		if err != nil {
			return err
		}
		return os.Chown(path, uid, gid)
	}
	return o.sudo(ctx, "chown", owner.User+":"+owner.Group, path)
}

// Move relocates src to dst, replacing dst if present.
func (o *Ops) Move(ctx context.Context, src, dst string, elevated bool) error {
	if !elevated {
		if err := os.Rename(src, dst); err == nil {
			return nil
		}
		// Rename fails across filesystems (temp dir on another mount);
		// fall back to copy + remove.
		return copyAndRemove(src, dst)
	}
	return o.sudo(ctx, "mv", "-f", src, dst)
}

// sudo echoes and runs one elevated command. A non-zero exit aborts the
// install with the failing command quoted verbatim.
func (o *Ops) sudo(ctx context.Context, name string, args ...string) error {
	sudoArgs := make([]string, 0, len(args)+2)
	if o.nonInteractive {
		sudoArgs = append(sudoArgs, "-n")
	}
	sudoArgs = append(sudoArgs, name)
	sudoArgs = append(sudoArgs, args...)

	display := runner.CommandLine("sudo", sudoArgs...)
	o.reporter.Detail("+ %s", display)

	res, err := o.run.RunAttached(ctx, "sudo", sudoArgs...)
	if err != nil {
		return fmt.Errorf("run %s: %w", display, err)
	}
	if res.ExitCode != 0 {
		return &domain.CommandFailedError{Command: display, ExitCode: res.ExitCode}
	}
	return nil
}

func resolveIDs(owner domain.Ownership) (int, int, error) {
	u, err := user.Lookup(owner.User)
	if err != nil {
		return 0, 0, fmt.Errorf("lookup user %s: %w", owner.User, err)
	}
	g, err := user.LookupGroup(owner.Group)
	if err != nil {
		return 0, 0, fmt.Errorf("lookup group %s: %w", owner.Group, err)
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return 0, 0, err
	}
	gid, err := strconv.Atoi(g.Gid)
	if err != nil {
		return 0, 0, err
	}
	return uid, gid, nil
}

func copyAndRemove(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

func octal(mode os.FileMode) string {
	return fmt.Sprintf("%o", mode.Perm())
}

var _ ports.SystemOps = (*Ops)(nil)
