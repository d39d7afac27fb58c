package tasks

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var storeOperations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "taskflow",
		Name:      "store_operations_total",
		Help:      "Task store operations by backend, operation and result.",
	},
	[]string{"system", "op", "result"},
)

func init() {
	prometheus.MustRegister(storeOperations)
}

// startOp opens a span for one store operation. The returned func ends the
// span and counts the result.
func startOp(ctx context.Context, system, op string) (context.Context, func(error)) {
	ctx, span := otel.Tracer("tasks").Start(ctx, "tasks."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", system),
			attribute.String("db.operation", op),
		),
	)
	return ctx, func(err error) {
		result := "ok"
		if err != nil {
			result = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		storeOperations.WithLabelValues(system, op, result).Inc()
		span.End()
	}
}
