package chat

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/fyrsmithlabs/chatd/internal/chat"

var (
	generateCounter       metric.Int64Counter
	generateDuration      metric.Float64Histogram
	persistFailureCounter metric.Int64Counter
	persistDroppedCounter metric.Int64Counter
)

func initMetrics() {
	meter := otel.Meter(instrumentationName)

	var err error

	generateCounter, err = meter.Int64Counter(
		"chatd.chat.generate.requests",
		metric.WithDescription("Total number of chat generation requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create generate counter: %v", err))
	}

	generateDuration, err = meter.Float64Histogram(
		"chatd.chat.generate.duration",
		metric.WithDescription("Duration of upstream completion calls"),
		metric.WithUnit("s"),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create generate duration: %v", err))
	}

	persistFailureCounter, err = meter.Int64Counter(
		"chatd.chat.persist.failures",
		metric.WithDescription("Number of failed conversation turn writes"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create persist failure counter: %v", err))
	}

	persistDroppedCounter, err = meter.Int64Counter(
		"chatd.chat.persist.dropped",
		metric.WithDescription("Number of turns dropped because the persist queue was full"),
		metric.WithUnit("{turn}"),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create persist dropped counter: %v", err))
	}
}

func init() {
	initMetrics()
}
