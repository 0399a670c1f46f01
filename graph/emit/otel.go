package emit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter turns each event into a short OpenTelemetry span.
//
// Standard fields map to reviewgraph.run_id, reviewgraph.step and
// reviewgraph.node_id. Well-known meta keys are namespaced (tokens_in
// becomes reviewgraph.llm.tokens_in); other keys are copied as-is.
// Events carrying an "error" meta value get an Error status.
//
// Example:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	emitter := emit.NewOTelEmitter(tp.Tracer("reviewgraph"))
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter creates an emitter that records spans with tracer.
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

// Emit records the event as a span.
func (o *OTelEmitter) Emit(event Event) {
	_, span := o.tracer.Start(context.Background(), event.Msg)
	defer span.End()

	span.SetAttributes(
		attribute.String("reviewgraph.run_id", event.RunID),
		attribute.Int("reviewgraph.step", event.Step),
		attribute.String("reviewgraph.node_id", event.NodeID),
	)

	for key, value := range event.Meta {
		span.SetAttributes(metaAttribute(key, value))
	}

	if msg, ok := event.Meta["error"].(string); ok {
		span.SetStatus(codes.Error, msg)
		span.RecordError(errors.New(msg))
	}
}

var namespacedKeys = map[string]string{
	"tokens_in":   "reviewgraph.llm.tokens_in",
	"tokens_out":  "reviewgraph.llm.tokens_out",
	"cost_usd":    "reviewgraph.llm.cost_usd",
	"model":       "reviewgraph.llm.model",
	"duration_ms": "reviewgraph.node.duration_ms",
}

func metaAttribute(key string, value interface{}) attribute.KeyValue {
	if k, ok := namespacedKeys[key]; ok {
		key = k
	}

	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case time.Duration:
		return attribute.Int64(key, v.Milliseconds())
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
