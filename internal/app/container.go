// Package app wires application services with infrastructure adapters.
package app

import (
	"context"
	"os"
	"runtime"

	"github.com/cloudenvhq/cloudenv-install/internal/application/doctor"
	"github.com/cloudenvhq/cloudenv-install/internal/application/install"
	"github.com/cloudenvhq/cloudenv-install/internal/domain"
	"github.com/cloudenvhq/cloudenv-install/internal/infrastructure/config"
	"github.com/cloudenvhq/cloudenv-install/internal/infrastructure/download"
	"github.com/cloudenvhq/cloudenv-install/internal/infrastructure/fsprep"
	"github.com/cloudenvhq/cloudenv-install/internal/infrastructure/privilege"
	"github.com/cloudenvhq/cloudenv-install/internal/infrastructure/probe"
	"github.com/cloudenvhq/cloudenv-install/internal/infrastructure/runner"
	"github.com/cloudenvhq/cloudenv-install/internal/infrastructure/shim"
	"github.com/cloudenvhq/cloudenv-install/internal/pkg/logger"
	"github.com/cloudenvhq/cloudenv-install/internal/ports"
)

// Options holds build-time settings coming from the CLI surface.
type Options struct {
	Verbose        bool
	NonInteractive bool
}

// Container holds the assembled dependency graph.
type Container struct {
	InstallService *install.Service
	DoctorService  *doctor.Service
	ConfigProvider ports.ConfigProvider

	// Negotiator is the install negotiator; callers defer Revoke on it so
	// a grant acquired during the run is invalidated on every exit path.
	Negotiator ports.PrivilegeNegotiator
}

// BuildContainer constructs the dependency graph. reporter and prompter are
// terminal adapters injected by the CLI layer. Config is loaded here so a
// non_interactive override in the file shapes the negotiator, not just the
// pipeline.
func BuildContainer(ctx context.Context, opts Options, reporter ports.Reporter, prompter ports.ConfirmationPrompter) (*Container, error) {
	log := logger.NewStd(opts.Verbose)
	cfgLoader := config.NewFileLoader("")
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}
	run := runner.New(log)

	interactive := interactiveRun(opts, cfg)
	negotiator := privilege.NewNegotiator(run, log, interactive)
	ops := privilege.NewOps(run, reporter, log, !interactive)

	installService := &install.Service{
		ConfigProvider: cfgLoader,
		Prober:         probe.NewDetector(runtime.GOOS, run, log),
		Preparer:       fsprep.NewPreparer(ops, negotiator, reporter, log),
		Ops:            ops,
		Downloader:     download.NewClient(log),
		Shim:           shim.NewRewriter(log),
		Prompter:       prompter,
		Reporter:       reporter,
		Logger:         log,
	}

	// Doctor gets its own negotiator so diagnostics can never raise a
	// password prompt.
	doctorService := &doctor.Service{
		ConfigProvider: cfgLoader,
		Prober:         probe.NewDetector(runtime.GOOS, run, log),
		Negotiator:     privilege.NewNegotiator(run, log, false),
	}

	return &Container{
		InstallService: installService,
		DoctorService:  doctorService,
		ConfigProvider: cfgLoader,
		Negotiator:     negotiator,
	}, nil
}

// interactiveRun decides whether this process may ever prompt. Any
// non-interactive signal wins: the flag, the config file, the environment
// override, or running as root.
func interactiveRun(opts Options, cfg domain.Config) bool {
	return !opts.NonInteractive &&
		!cfg.Install.NonInteractive &&
		os.Getenv(probe.EnvNonInteractive) == "" &&
		os.Geteuid() != 0
}
