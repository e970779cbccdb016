// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Command tpool runs the worked reductions of the tpool module on a pool of
// workers and models the pool's scheduling on uneven workloads.
package main

import (
	"fmt"
	"os"

	"github.com/petenewcomb/tpool-go/internal/config"
	"github.com/petenewcomb/tpool-go/internal/logger"
	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"
)

type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	a := &app{cfg: cfg, logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:           "tpool",
		Short:         "Fixed-size task pool demonstrations",
		Long:          `Runs parallel vector reductions on a fixed-size pool of workers and simulates how round-robin task assignment behaves on uneven workloads.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts := []logger.Option{
				logger.WithLevel(a.cfg.Log.Level),
				logger.WithConsole(cmd.ErrOrStderr()),
			}
			if a.cfg.Log.File != "" {
				opts = append(opts, logger.WithFilename(a.cfg.Log.File))
			}
			l, err := logger.New(opts...)
			if err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}
			a.logger = l
			zap.ReplaceGlobals(l)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfg.Log.Level, "log-level", cfg.Log.Level, "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&a.cfg.Log.File, "log-file", cfg.Log.File, "Also write JSON logs to this file, with rotation")

	rootCmd.AddCommand(a.newDotCmd(), a.newSimulateCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd(config.Load()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
