package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

func TestStartSpan(t *testing.T) {
	exp := useInMemoryTracer(t)

	ctx, parent := StartSpan(context.Background(), "parent", attribute.String("db.system", "memory"))
	_, child := StartSpan(ctx, "child")
	child.End()
	parent.End()

	spans := exp.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name != "child" || spans[1].Name != "parent" {
		t.Errorf("unexpected span names %s, %s", spans[0].Name, spans[1].Name)
	}
	if spans[0].Parent.SpanID() != spans[1].SpanContext.SpanID() {
		t.Error("expected child to be parented to parent span")
	}
	if spans[0].InstrumentationScope.Name != tracerName {
		t.Errorf("expected scope %s, got %s", tracerName, spans[0].InstrumentationScope.Name)
	}
	if len(spans[1].Attributes) != 1 || spans[1].Attributes[0].Value.AsString() != "memory" {
		t.Errorf("unexpected start attributes %v", spans[1].Attributes)
	}
}

func TestEndSpan(t *testing.T) {
	t.Run("success adds result attributes", func(t *testing.T) {
		exp := useInMemoryTracer(t)

		_, span := StartSpan(context.Background(), "op")
		EndSpan(span, nil, attribute.String("order.id", "o-1"))

		spans := exp.GetSpans()
		if len(spans) != 1 {
			t.Fatalf("expected span to be ended, got %d spans", len(spans))
		}
		got := spans[0]
		if got.Status.Code != codes.Ok {
			t.Errorf("expected Ok status, got %v", got.Status.Code)
		}
		if len(got.Attributes) != 1 || got.Attributes[0].Value.AsString() != "o-1" {
			t.Errorf("unexpected attributes %v", got.Attributes)
		}
	})

	t.Run("error is recorded and result attributes dropped", func(t *testing.T) {
		exp := useInMemoryTracer(t)

		_, span := StartSpan(context.Background(), "op")
		EndSpan(span, errors.New("boom"), attribute.String("order.id", "o-1"))

		got := exp.GetSpans()[0]
		if got.Status.Code != codes.Error || got.Status.Description != "boom" {
			t.Errorf("expected error status, got %+v", got.Status)
		}
		if len(got.Events) != 1 || got.Events[0].Name != "exception" {
			t.Errorf("expected exception event, got %v", got.Events)
		}
		if len(got.Attributes) != 0 {
			t.Errorf("expected no attributes, got %v", got.Attributes)
		}
	})
}

func TestTraceAndSpanID(t *testing.T) {
	if TraceID(context.Background()) != "" || SpanID(context.Background()) != "" {
		t.Error("expected empty IDs without a span")
	}

	useInMemoryTracer(t)
	ctx, span := StartSpan(context.Background(), "op")
	defer span.End()

	if got := TraceID(ctx); got != span.SpanContext().TraceID().String() {
		t.Errorf("TraceID() = %s", got)
	}
	if got := SpanID(ctx); got != span.SpanContext().SpanID().String() {
		t.Errorf("SpanID() = %s", got)
	}
}
