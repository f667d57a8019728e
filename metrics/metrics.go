// Package metrics provides the instruments recorded by debounced holders.
package metrics

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/Gleipnir-Technology/settle"

var (
	// Debounce metrics
	Debounce struct {
		// Inputs is the number of observed values.
		Inputs metric.Int64Counter
		// Cancellations is the number of armed timers retired by a newer input.
		Cancellations metric.Int64Counter
		// Commits is the number of values that settled.
		Commits metric.Int64Counter
		// Teardowns is the number of holders torn down with a timer still armed.
		Teardowns metric.Int64Counter
		// SettleTime is the time between the first input of a window and its commit.
		SettleTime metric.Float64Histogram
	}
)

func init() {
	// The global provider delegates to whatever provider is installed later.
	InitMetrics(otel.GetMeterProvider())
}

// InitMetrics (re)creates the instruments from provider.
func InitMetrics(provider metric.MeterProvider) {
	meter := provider.Meter(meterName)

	var err error
	Debounce.Inputs, err = meter.Int64Counter(
		"debounce.inputs",
		metric.WithDescription("Number of values observed by debounced holders"),
	)
	if err != nil {
		panic(err)
	}
	Debounce.Cancellations, err = meter.Int64Counter(
		"debounce.cancellations",
		metric.WithDescription("Number of pending timers cancelled by a newer input"),
	)
	if err != nil {
		panic(err)
	}
	Debounce.Commits, err = meter.Int64Counter(
		"debounce.commits",
		metric.WithDescription("Number of values committed as settled"),
	)
	if err != nil {
		panic(err)
	}
	Debounce.Teardowns, err = meter.Int64Counter(
		"debounce.teardowns",
		metric.WithDescription("Number of holders discarded while a timer was armed"),
	)
	if err != nil {
		panic(err)
	}
	Debounce.SettleTime, err = meter.Float64Histogram(
		"debounce.settle_time",
		metric.WithDescription("Time from the first input of a debounce window to its commit"),
		metric.WithUnit("s"),
	)
	if err != nil {
		panic(err)
	}
}

// HolderAttributes returns the measurement option identifying a holder.
func HolderAttributes(name string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("holder", name))
}
