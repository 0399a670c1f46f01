package emit

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestTracer(t *testing.T) (*OTelEmitter, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return NewOTelEmitter(tp.Tracer("test")), exporter
}

func attributeMap(attrs []attribute.KeyValue) map[string]interface{} {
	m := make(map[string]interface{}, len(attrs))
	for _, a := range attrs {
		m[string(a.Key)] = a.Value.AsInterface()
	}
	return m
}

func TestOTelEmitter_Emit(t *testing.T) {
	emitter, exporter := newTestTracer(t)

	emitter.Emit(Event{
		RunID:  "run-001",
		Step:   1,
		NodeID: "detect_original",
		Msg:    MsgNodeEnd,
		Meta: map[string]interface{}{
			"tokens_in": 120,
			"model":     "gpt-4o-mini",
			"phase":     "original",
		},
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name != MsgNodeEnd {
		t.Errorf("span name = %q, want %q", span.Name, MsgNodeEnd)
	}

	attrs := attributeMap(span.Attributes)
	if got := attrs["reviewgraph.run_id"]; got != "run-001" {
		t.Errorf("run_id = %v", got)
	}
	if got := attrs["reviewgraph.step"]; got != int64(1) {
		t.Errorf("step = %v", got)
	}
	if got := attrs["reviewgraph.llm.tokens_in"]; got != int64(120) {
		t.Errorf("tokens_in = %v", got)
	}
	if got := attrs["reviewgraph.llm.model"]; got != "gpt-4o-mini" {
		t.Errorf("model = %v", got)
	}
	if got := attrs["phase"]; got != "original" {
		t.Errorf("phase = %v", got)
	}
}

func TestOTelEmitter_ErrorStatus(t *testing.T) {
	emitter, exporter := newTestTracer(t)

	emitter.Emit(Event{
		RunID: "run-001",
		Msg:   MsgRunError,
		Meta:  map[string]interface{}{"error": "oracle timed out"},
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("status = %v, want Error", spans[0].Status.Code)
	}
	if spans[0].Status.Description != "oracle timed out" {
		t.Errorf("description = %q", spans[0].Status.Description)
	}
}
