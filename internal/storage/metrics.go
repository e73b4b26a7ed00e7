package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	opsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_storage_operations_total",
			Help: "Storage backend operations by backend, operation and status",
		},
		[]string{"backend", "operation", "status"},
	)

	opDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_storage_operation_duration_seconds",
			Help:    "Storage backend operation latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)
)

// MeteredBackend wraps a Backend with prometheus operation counters and
// latency histograms.
type MeteredBackend struct {
	inner Backend
}

// WithMetrics decorates b with prometheus metrics.
func WithMetrics(b Backend) *MeteredBackend {
	return &MeteredBackend{inner: b}
}

func (m *MeteredBackend) Name() string { return m.inner.Name() }

func (m *MeteredBackend) observe(op string, start time.Time, err error) {
	status := "ok"
	switch {
	case errors.Is(err, ErrNotFound):
		status = "not_found"
	case err != nil:
		status = "error"
	}
	opsTotal.WithLabelValues(m.inner.Name(), op, status).Inc()
	opDuration.WithLabelValues(m.inner.Name(), op).Observe(time.Since(start).Seconds())
}

func (m *MeteredBackend) Read(ctx context.Context, collection string) ([]Document, error) {
	start := time.Now()
	docs, err := m.inner.Read(ctx, collection)
	m.observe("read", start, err)
	return docs, err
}

func (m *MeteredBackend) Get(ctx context.Context, collection, id string) (Document, error) {
	start := time.Now()
	doc, err := m.inner.Get(ctx, collection, id)
	m.observe("get", start, err)
	return doc, err
}

func (m *MeteredBackend) Write(ctx context.Context, collection, id string, data json.RawMessage) error {
	start := time.Now()
	err := m.inner.Write(ctx, collection, id, data)
	m.observe("write", start, err)
	return err
}

func (m *MeteredBackend) Update(ctx context.Context, collection, id string, data json.RawMessage) error {
	start := time.Now()
	err := m.inner.Update(ctx, collection, id, data)
	m.observe("update", start, err)
	return err
}

func (m *MeteredBackend) Remove(ctx context.Context, collection, id string) error {
	start := time.Now()
	err := m.inner.Remove(ctx, collection, id)
	m.observe("remove", start, err)
	return err
}

func (m *MeteredBackend) Replace(ctx context.Context, collection string, docs []Document) error {
	start := time.Now()
	err := m.inner.Replace(ctx, collection, docs)
	m.observe("replace", start, err)
	return err
}
