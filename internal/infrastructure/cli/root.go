package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloudenvhq/cloudenv-install/internal/app"
	"github.com/cloudenvhq/cloudenv-install/internal/domain"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// NewRootCmd wires the cobra root command. The root command itself runs the
// install; doctor and version are subcommands.
func NewRootCmd(opts Options) *cobra.Command {
	var (
		prefix         string
		url            string
		assumeYes      bool
		nonInteractive bool
		dryRun         bool
	)

	root := &cobra.Command{
		Use:   "cloudenv-install",
		Short: "Install the cloudenv CLI",
		Long:  "cloudenv-install downloads the cloudenv executable and places it under <prefix>/bin, negotiating privileges only when the target requires them.",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := buildContainer(cmd.Context(), opts, nonInteractive)
			if err != nil {
				return err
			}
			defer container.Negotiator.Revoke()

			_, err = container.InstallService.Run(domain.InstallRequest{
				Context:        cmd.Context(),
				PrefixOverride: prefix,
				URLOverride:    url,
				AssumeYes:      assumeYes,
				NonInteractive: nonInteractive,
				DryRun:         dryRun,
				Debug:          opts.Verbose,
			})
			return err
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.Flags().StringVar(&prefix, "prefix", "", "Install prefix (default from config, normally /usr/local)")
	root.Flags().StringVar(&url, "url", "", "Artifact URL override")
	root.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the confirmation prompt")
	root.Flags().BoolVar(&nonInteractive, "non-interactive", false, "Never prompt; redirect or fail instead")
	root.Flags().BoolVar(&dryRun, "dry-run", false, "Show the plan without changing anything")

	root.AddCommand(newDoctorCommand(opts))
	root.AddCommand(newVersionCommand())
	return root
}

// buildContainer assembles the dependency graph with terminal adapters
// attached. The artifact download gains a spinner when stdout is a TTY.
func buildContainer(ctx context.Context, opts Options, nonInteractive bool) (*app.Container, error) {
	renderer := NewRenderer(os.Stdout)
	prompter := NewPrompter(os.Stdin, os.Stdout)

	container, err := app.BuildContainer(ctx, app.Options{
		Verbose:        opts.Verbose,
		NonInteractive: nonInteractive,
	}, renderer, prompter)
	if err != nil {
		return nil, err
	}
	container.InstallService.Downloader = NewProgressDownloader(container.InstallService.Downloader, os.Stdout)
	return container, nil
}
