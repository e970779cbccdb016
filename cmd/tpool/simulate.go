// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package main

import (
	"fmt"
	"io"

	"github.com/petenewcomb/tpool-go/internal/config"
	"github.com/petenewcomb/tpool-go/internal/sim"
	"github.com/spf13/cobra"
)

func (a *app) newSimulateCmd() *cobra.Command {
	var costs string
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Compare round-robin and least-loaded assignment of uneven tasks",
		Long: `Models submitting tasks with the given --costs, in order, to --threads
workers, and prints when the last task would finish under the pool's
round-robin assignment and under least-loaded assignment.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("costs") {
				parsed, err := config.ParseInts(costs)
				if err != nil {
					return fmt.Errorf("parsing costs: %w", err)
				}
				a.cfg.Vector.Costs = parsed
			}
			return a.runSimulate(cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVarP(&a.cfg.Pool.Threads, "threads", "n", a.cfg.Pool.Threads, "Number of workers")
	cmd.Flags().StringVar(&costs, "costs", "", "Comma-separated task costs (default from TPOOL_COSTS)")
	return cmd
}

func (a *app) runSimulate(out io.Writer) error {
	if a.cfg.Pool.Threads < 1 {
		return fmt.Errorf("threads must be at least one")
	}
	for _, c := range a.cfg.Vector.Costs {
		if c < 0 {
			return fmt.Errorf("task costs must not be negative")
		}
	}

	rr, ll := sim.Compare(a.cfg.Pool.Threads, a.cfg.Vector.Costs)
	for _, r := range []*sim.Result{rr, ll} {
		fmt.Fprintf(out, "%-13s makespan %d, idle %d\n", r.Policy.String()+":", r.Makespan, r.Idle())
		for w, order := range r.Order {
			fmt.Fprintf(out, "  worker %d: tasks %v, busy %d\n", w, order, r.Busy[w])
		}
	}
	return nil
}
