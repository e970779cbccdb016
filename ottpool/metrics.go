// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package ottpool

import (
	"context"
	"time"

	"github.com/petenewcomb/tpool-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// MetricsTask records count, duration, and error metrics for a task using the
// global meter provider. Metric names are the given name with ".count",
// ".duration" (seconds), and ".errors" appended. A panic in Run counts as an
// error.
type MetricsTask struct {
	tpool.Task
	Metric string
}

// Metrics wraps task with metrics under the given name.
func Metrics(metricName string, task tpool.Task) *MetricsTask {
	return &MetricsTask{Task: task, Metric: metricName}
}

func (t *MetricsTask) Run(ctx context.Context) (err error) {
	startTime := time.Now()
	meter := otel.GetMeterProvider().Meter("ottpool")

	taskCounter, _ := meter.Int64Counter(t.Metric+".count",
		metric.WithDescription("Number of task runs"))
	taskDuration, _ := meter.Float64Histogram(t.Metric+".duration",
		metric.WithDescription("Duration of task runs"),
		metric.WithUnit("s"))
	errorCounter, _ := meter.Int64Counter(t.Metric+".errors",
		metric.WithDescription("Number of task runs that failed or panicked"))

	taskCounter.Add(ctx, 1)

	didPanic := true
	defer func() {
		taskDuration.Record(ctx, time.Since(startTime).Seconds())
		if didPanic || err != nil {
			errorCounter.Add(ctx, 1)
		}
	}()

	err = t.Task.Run(ctx)
	didPanic = false
	return err
}
