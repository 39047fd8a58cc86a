// Package cli implements mlmctl, the operator command line for rates,
// commission generation and settlement.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"mlm/internal/config"
	"mlm/internal/logging"
	"mlm/internal/repositories"
	"mlm/internal/routes"

	"github.com/spf13/cobra"
)

// Opener connects to storage and returns the wired services plus a cleanup
// func.
type Opener func() (*routes.Services, func(), error)

// OpenFromEnv connects to Postgres using the same environment variables as
// the API server. Redis is left out so rate changes hit the database
// directly.
func OpenFromEnv() (*routes.Services, func(), error) {
	config.LoadEnv()
	logging.Init(config.GetEnv("LOG_LEVEL", "warn"), true)
	if err := repositories.InitDB(); err != nil {
		return nil, nil, err
	}
	return routes.BuildServices(repositories.DB, nil, nil), repositories.Close, nil
}

type app struct {
	open    Opener
	svc     *routes.Services
	close   func()
	out     io.Writer
	timeout time.Duration
}

// NewRootCmd builds the mlmctl command tree.
func NewRootCmd(open Opener) *cobra.Command {
	a := &app{open: open, out: os.Stdout}

	root := &cobra.Command{
		Use:           "mlmctl",
		Short:         "Operate the MLM commission engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.out = cmd.OutOrStdout()
			svc, closeFn, err := a.open()
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			a.svc, a.close = svc, closeFn
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.close != nil {
				a.close()
			}
		},
	}
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", time.Minute, "Deadline for the whole command")

	root.AddCommand(a.ratesCmd(), a.commissionsCmd(), a.payoutsCmd())
	return root
}

func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), a.timeout)
}

// Execute runs mlmctl against the environment's database.
func Execute() int {
	if err := NewRootCmd(OpenFromEnv).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
