package contentstore

import (
	"context"
	"errors"
	"time"

	"github.com/ryanbastic/go-gardenledger/internal/circuitbreaker"
	"github.com/ryanbastic/go-gardenledger/internal/metrics"
)

// Guarded routes every call of a ContentStore through a circuit breaker.
// NotFound, Conflict and caller cancellation are expected outcomes and do not
// count towards opening the circuit.
type Guarded struct {
	inner   ContentStore
	breaker *circuitbreaker.Breaker
}

// NewGuarded wraps inner with a breaker that opens after maxFailures
// consecutive transport failures and probes again after resetTimeout.
func NewGuarded(inner ContentStore, backend string, maxFailures int, resetTimeout time.Duration) *Guarded {
	b := circuitbreaker.New(maxFailures, resetTimeout,
		circuitbreaker.WithFailureFilter(isTransportFailure),
		circuitbreaker.WithStateChange(func(_, to circuitbreaker.State) {
			metrics.SetBreakerState(backend, int(to))
		}),
	)
	return &Guarded{inner: inner, breaker: b}
}

func isTransportFailure(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict),
		errors.Is(err, context.Canceled):
		return false
	}
	return true
}

func (g *Guarded) run(op, p string, fn func() error) error {
	err := g.breaker.Execute(fn)
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return &TransportError{Op: op, Path: p, Err: err}
	}
	return err
}

func (g *Guarded) Get(ctx context.Context, p string) (*Object, error) {
	var obj *Object
	err := g.run("get", p, func() error {
		var err error
		obj, err = g.inner.Get(ctx, p)
		return err
	})
	return obj, err
}

func (g *Guarded) Put(ctx context.Context, p string, content []byte, expectedVersion string) (*PutResult, error) {
	var res *PutResult
	err := g.run("put", p, func() error {
		var err error
		res, err = g.inner.Put(ctx, p, content, expectedVersion)
		return err
	})
	return res, err
}

func (g *Guarded) Delete(ctx context.Context, p string, version string) error {
	return g.run("delete", p, func() error {
		return g.inner.Delete(ctx, p, version)
	})
}

func (g *Guarded) List(ctx context.Context, folder string) ([]Entry, error) {
	var entries []Entry
	err := g.run("list", folder, func() error {
		var err error
		entries, err = g.inner.List(ctx, folder)
		return err
	})
	return entries, err
}

// Ping bypasses the breaker so readiness reflects the backend itself.
func (g *Guarded) Ping(ctx context.Context) error {
	if p, ok := g.inner.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// State returns the breaker state.
func (g *Guarded) State() circuitbreaker.State {
	return g.breaker.GetState()
}
