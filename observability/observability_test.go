package observability

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNopTracer(t *testing.T) {
	tracer := NopTracer()
	ctx := context.Background()
	ctx2, span := tracer.StartSpan(ctx, "test")
	if ctx2 != ctx {
		t.Fatalf("nop tracer should return same context")
	}
	span.SetTag("key", "value")
	span.SetError(nil)
	span.Finish()
}

func TestFields(t *testing.T) {
	f := String("name", "value")
	if f.Key() != "name" || f.Value() != "value" {
		t.Fatalf("string field mismatch: %v=%v", f.Key(), f.Value())
	}
	if got := Int("n", 7).Value(); got != 7 {
		t.Fatalf("int field value: %v", got)
	}
	if got := Int64("n", 9).Value(); got != int64(9) {
		t.Fatalf("int64 field value: %v", got)
	}
	err := errors.New("boom")
	if got := Error("err", err).Value(); got != err {
		t.Fatalf("error field value: %v", got)
	}
}

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := NewZapLogger(zap.New(core))

	log.Info("render done", Int("page", 3), String("doc", "a"))
	log.With(Int("page", 4)).Warn("render failed", Error("err", errors.New("boom")))

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "render done" {
		t.Fatalf("unexpected message: %q", entries[0].Message)
	}
	fields := entries[0].ContextMap()
	if fields["page"] != int64(3) {
		t.Fatalf("page field: %v", fields["page"])
	}
	if fields["doc"] != "a" {
		t.Fatalf("doc field: %v", fields["doc"])
	}
	if entries[1].ContextMap()["page"] != int64(4) {
		t.Fatalf("with field not carried: %v", entries[1].ContextMap())
	}
}

func TestNewZapLoggerNil(t *testing.T) {
	log := NewZapLogger(nil)
	if _, ok := log.(NopLogger); !ok {
		t.Fatalf("nil zap logger should degrade to NopLogger")
	}
}
