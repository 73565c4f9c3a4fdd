package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cloudenvhq/cloudenv-install/internal/domain"
	"github.com/cloudenvhq/cloudenv-install/internal/infrastructure/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(cli.Options{Verbose: isVerbose()})
	if err := root.ExecuteContext(ctx); err != nil {
		// A declined or interrupted install already told the user enough.
		// All user-facing output, errors included, goes to stdout.
		if !errors.Is(err, domain.ErrUserDeclined) {
			fmt.Fprintln(os.Stdout, "error:", err)
		}
		stop()
		os.Exit(1)
	}
}

func isVerbose() bool {
	v := os.Getenv("CLOUDENV_INSTALL_DEBUG")
	return strings.EqualFold(v, "1") || strings.EqualFold(v, "true")
}
