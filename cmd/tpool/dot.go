// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/petenewcomb/tpool-go"
	"github.com/petenewcomb/tpool-go/ottpool"
	"github.com/petenewcomb/tpool-go/parallel"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type dotOptions struct {
	trace bool
}

func (a *app) newDotCmd() *cobra.Command {
	var opts dotOptions
	cmd := &cobra.Command{
		Use:   "dot",
		Short: "Compute the sum of squares of a constant vector in parallel",
		Long: `Builds a vector of --size copies of --value and computes its sum of
squares on a pool of --threads workers, one contiguous partition per worker.
With --repeat greater than one the reductions share the pool and run
concurrently.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDot(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}
	f := cmd.Flags()
	f.IntVarP(&a.cfg.Pool.Threads, "threads", "n", a.cfg.Pool.Threads, "Number of workers")
	f.BoolVar(&a.cfg.Pool.LockOSThread, "lock-os-thread", a.cfg.Pool.LockOSThread, "Pin each worker to an OS thread")
	f.IntVar(&a.cfg.Vector.Size, "size", a.cfg.Vector.Size, "Vector length")
	f.Float64Var(&a.cfg.Vector.Value, "value", a.cfg.Vector.Value, "Value of every vector element")
	f.IntVar(&a.cfg.Vector.Repeat, "repeat", a.cfg.Vector.Repeat, "Number of reductions to run")
	f.BoolVar(&opts.trace, "trace", false, "Instrument the partitions and print their spans to stderr")
	return cmd
}

func (a *app) runDot(ctx context.Context, out, traceOut io.Writer, opts dotOptions) error {
	if a.cfg.Vector.Size < 0 {
		return fmt.Errorf("size must not be negative")
	}
	if a.cfg.Vector.Repeat < 1 {
		return fmt.Errorf("repeat must be at least one")
	}

	if opts.trace {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint(), stdouttrace.WithWriter(traceOut))
		if err != nil {
			return fmt.Errorf("creating trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
			sdktrace.WithBatcher(exporter),
		)
		otel.SetTracerProvider(tp)
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				a.logger.Warn("trace shutdown failed", zap.Error(err))
			}
		}()
	}

	pool, err := tpool.New(ctx, a.cfg.Pool.Threads,
		tpool.WithName("dot"),
		tpool.WithLogger(a.logger),
		tpool.WithLockOSThread(a.cfg.Pool.LockOSThread))
	if err != nil {
		return err
	}
	defer pool.Close()

	v := make([]float64, a.cfg.Vector.Size)
	for i := range v {
		v[i] = a.cfg.Vector.Value
	}

	a.logger.Info("starting reduction",
		zap.Int("threads", pool.NumWorkers()),
		zap.Int("size", len(v)),
		zap.Int("repeat", a.cfg.Vector.Repeat))

	results := make([]float64, a.cfg.Vector.Repeat)
	durations := make([]time.Duration, a.cfg.Vector.Repeat)
	g, gctx := errgroup.WithContext(ctx)
	for i := range results {
		g.Go(func() error {
			start := time.Now()
			var err error
			if opts.trace {
				results[i], err = tracedSumSquares(gctx, pool, v)
			} else {
				results[i], err = parallel.SumSquares(gctx, pool, v)
			}
			durations[i] = time.Since(start)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, r := range results {
		fmt.Fprintf(out, "sum of squares: %g (%v)\n", r, durations[i].Round(time.Microsecond))
	}
	return nil
}

func tracedSumSquares(ctx context.Context, pool *tpool.Pool, v []float64) (float64, error) {
	ctx, span := otel.Tracer("tpool").Start(ctx, "sum-squares")
	defer span.End()

	partials, err := parallel.NewPartials(v, v, pool.NumWorkers())
	if err != nil {
		return 0, err
	}
	tasks := make([]tpool.Task, len(partials))
	for i, p := range partials {
		tasks[i] = p
	}
	if _, err := ottpool.Submit(ctx, pool, "dot-partition", tasks...); err != nil {
		return 0, err
	}
	if err := tpool.WaitAll(ctx, tasks...); err != nil {
		return 0, err
	}
	return parallel.Fold(partials)
}
