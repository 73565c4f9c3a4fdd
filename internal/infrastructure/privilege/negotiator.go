// Package privilege negotiates and uses elevated privileges.
//
// The negotiator memoizes one sudo availability probe per process and owns
// the matching revocation: a grant acquired by this process is invalidated
// exactly once on exit, whichever exit path is taken. Typed filesystem
// operations (Ops) decide per call between direct syscalls and elevated
// execution, echoing every elevated command before it runs.
package privilege

import (
	"context"
	"os"
	"sync"

	"github.com/cloudenvhq/cloudenv-install/internal/domain"
	"github.com/cloudenvhq/cloudenv-install/internal/infrastructure/runner"
	"github.com/cloudenvhq/cloudenv-install/internal/ports"
)

// EnvAskpass points sudo at a password-prompt helper program.
const EnvAskpass = "SUDO_ASKPASS"

type execRunner interface {
	Run(ctx context.Context, name string, args ...string) (runner.Result, error)
	RunAttached(ctx context.Context, name string, args ...string) (runner.Result, error)
	LookPath(name string) (string, error)
}

// Negotiator implements ports.PrivilegeNegotiator on top of sudo.
type Negotiator struct {
	run         execRunner
	logger      ports.Logger
	interactive bool
	askpass     bool
	root        bool

	mu        sync.Mutex
	probed    bool
	available bool
	acquired  bool

	revokeOnce sync.Once
}

// NewNegotiator builds a negotiator. interactive controls whether the probe
// may prompt for a password; when false the probe never blocks.
func NewNegotiator(run execRunner, logger ports.Logger, interactive bool) *Negotiator {
	return &Negotiator{
		run:         run,
		logger:      logger,
		interactive: interactive,
		askpass:     os.Getenv(EnvAskpass) != "",
		root:        os.Geteuid() == 0,
	}
}

// Ensure implements ports.PrivilegeNegotiator. The first call probes for
// elevation; every later call returns the cached answer without touching
// sudo again.
func (n *Negotiator) Ensure(ctx context.Context) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.probed {
		return n.available, nil
	}

	if n.root {
		n.probed = true
		n.available = true
		return true, nil
	}

	if _, err := n.run.LookPath("sudo"); err != nil {
		return false, &domain.MissingDependencyError{Tool: "sudo"}
	}

	available, err := n.probe(ctx)
	if err != nil {
		return false, err
	}

	n.probed = true
	n.available = available
	return available, nil
}

// probe is called with the mutex held. It sets acquired only when the
// interactive prompt minted a fresh sudo timestamp; a grant that was alive
// before this process ran is never ours to revoke.
func (n *Negotiator) probe(ctx context.Context) (bool, error) {
	// -n fails instead of prompting, so this can never block on a
	// password read.
	res, err := n.run.Run(ctx, "sudo", "-n", "true")
	if err != nil {
		return false, err
	}
	if res.ExitCode == 0 {
		return true, nil
	}

	if !n.interactive {
		return false, nil
	}

	args := []string{"-v"}
	if n.askpass {
		args = append([]string{"-A"}, args...)
	}
	n.logger.Info("requesting elevated privileges", map[string]interface{}{
		"command": runner.CommandLine("sudo", args...),
	})
	res, err = n.run.RunAttached(ctx, "sudo", args...)
	if err != nil {
		if ctx.Err() != nil {
			// Interrupt during the password prompt: clean abort, not a crash.
			return false, domain.ErrUserDeclined
		}
		return false, err
	}
	if res.ExitCode != 0 {
		return false, nil
	}
	n.acquired = true
	return true, nil
}

// Revoke implements ports.PrivilegeNegotiator. It invalidates the sudo
// timestamp at most once, and only when this process acquired it.
func (n *Negotiator) Revoke() {
	n.revokeOnce.Do(func() {
		n.mu.Lock()
		acquired := n.acquired
		n.mu.Unlock()
		if !acquired {
			return
		}
		// Detached from the caller's context: revocation must run even
		// when the surrounding context is already cancelled.
		if _, err := n.run.Run(context.Background(), "sudo", "-k"); err != nil {
			n.logger.Warn("failed to invalidate sudo timestamp", map[string]interface{}{"error": err.Error()})
			return
		}
		n.logger.Debug("sudo timestamp invalidated", nil)
	})
}

var _ ports.PrivilegeNegotiator = (*Negotiator)(nil)
