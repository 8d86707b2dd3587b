package sched

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/simstage/bridge/internal/sched"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
