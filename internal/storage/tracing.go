package storage

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("storage")

// TracedBackend wraps a Backend so every operation records a span.
type TracedBackend struct {
	inner Backend
}

// WithTracing decorates b with OpenTelemetry spans.
func WithTracing(b Backend) *TracedBackend {
	return &TracedBackend{inner: b}
}

func (t *TracedBackend) Name() string { return t.inner.Name() }

func (t *TracedBackend) span(ctx context.Context, op, collection string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "storage."+op,
		trace.WithAttributes(
			attribute.String("storage.backend", t.inner.Name()),
			attribute.String("storage.collection", collection),
			attribute.String("storage.operation", op),
		),
	)
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (t *TracedBackend) Read(ctx context.Context, collection string) ([]Document, error) {
	ctx, span := t.span(ctx, "read", collection)
	docs, err := t.inner.Read(ctx, collection)
	if err == nil {
		span.SetAttributes(attribute.Int("storage.documents", len(docs)))
	}
	finish(span, err)
	return docs, err
}

func (t *TracedBackend) Get(ctx context.Context, collection, id string) (Document, error) {
	ctx, span := t.span(ctx, "get", collection)
	span.SetAttributes(attribute.String("storage.id", id))
	doc, err := t.inner.Get(ctx, collection, id)
	finish(span, err)
	return doc, err
}

func (t *TracedBackend) Write(ctx context.Context, collection, id string, data json.RawMessage) error {
	ctx, span := t.span(ctx, "write", collection)
	span.SetAttributes(attribute.String("storage.id", id))
	err := t.inner.Write(ctx, collection, id, data)
	finish(span, err)
	return err
}

func (t *TracedBackend) Update(ctx context.Context, collection, id string, data json.RawMessage) error {
	ctx, span := t.span(ctx, "update", collection)
	span.SetAttributes(attribute.String("storage.id", id))
	err := t.inner.Update(ctx, collection, id, data)
	finish(span, err)
	return err
}

func (t *TracedBackend) Remove(ctx context.Context, collection, id string) error {
	ctx, span := t.span(ctx, "remove", collection)
	span.SetAttributes(attribute.String("storage.id", id))
	err := t.inner.Remove(ctx, collection, id)
	finish(span, err)
	return err
}

func (t *TracedBackend) Replace(ctx context.Context, collection string, docs []Document) error {
	ctx, span := t.span(ctx, "replace", collection)
	span.SetAttributes(attribute.Int("storage.documents", len(docs)))
	err := t.inner.Replace(ctx, collection, docs)
	finish(span, err)
	return err
}
