// Package telemetry installs the OpenTelemetry meter provider.
package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/Gleipnir-Technology/settle/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Option is a function that configures the meter provider.
type Option func(*options)

type options struct {
	prometheus   bool
	stdout       bool
	metricReader metric.Reader
}

// WithPrometheus registers metrics with the default Prometheus registry, served by
// promhttp.Handler.
func WithPrometheus() Option {
	return func(o *options) {
		o.prometheus = true
	}
}

// WithStdout periodically prints metrics to stdout.
func WithStdout() Option {
	return func(o *options) {
		o.stdout = true
	}
}

// WithMetricReader adds a reader, usually a ManualReader in tests.
func WithMetricReader(reader metric.Reader) Option {
	return func(o *options) {
		o.metricReader = reader
	}
}

// Setup installs a global meter provider and binds the debounce instruments to it.
func Setup(opts ...Option) (shutdown func(context.Context) error, err error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	var readers []metric.Option
	if o.prometheus {
		exporter, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("prometheus exporter: %w", err)
		}
		readers = append(readers, metric.WithReader(exporter))
	}
	if o.stdout {
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("stdout exporter: %w", err)
		}
		readers = append(readers, metric.WithReader(metric.NewPeriodicReader(exporter)))
	}
	if o.metricReader != nil {
		readers = append(readers, metric.WithReader(o.metricReader))
	}

	provider := metric.NewMeterProvider(readers...)
	otel.SetMeterProvider(provider)
	metrics.InitMetrics(provider)

	return func(ctx context.Context) error {
		return errors.Join(provider.ForceFlush(ctx), provider.Shutdown(ctx))
	}, nil
}
