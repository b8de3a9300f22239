package contentstore

import (
	"context"
	"errors"
	"time"

	"github.com/ryanbastic/go-gardenledger/internal/metrics"
)

// Instrumented records call counts and latencies of a ContentStore.
type Instrumented struct {
	inner   ContentStore
	backend string
}

func NewInstrumented(inner ContentStore, backend string) *Instrumented {
	return &Instrumented{inner: inner, backend: backend}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}

func (i *Instrumented) observe(op string, start time.Time, err error) {
	metrics.ObserveStoreCall(i.backend, op, outcome(err), time.Since(start))
}

func (i *Instrumented) Get(ctx context.Context, p string) (*Object, error) {
	start := time.Now()
	obj, err := i.inner.Get(ctx, p)
	i.observe("get", start, err)
	return obj, err
}

func (i *Instrumented) Put(ctx context.Context, p string, content []byte, expectedVersion string) (*PutResult, error) {
	start := time.Now()
	res, err := i.inner.Put(ctx, p, content, expectedVersion)
	i.observe("put", start, err)
	return res, err
}

func (i *Instrumented) Delete(ctx context.Context, p string, version string) error {
	start := time.Now()
	err := i.inner.Delete(ctx, p, version)
	i.observe("delete", start, err)
	return err
}

func (i *Instrumented) List(ctx context.Context, folder string) ([]Entry, error) {
	start := time.Now()
	entries, err := i.inner.List(ctx, folder)
	i.observe("list", start, err)
	return entries, err
}

func (i *Instrumented) Ping(ctx context.Context) error {
	if p, ok := i.inner.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
