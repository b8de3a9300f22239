package contentstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ryanbastic/go-gardenledger/internal/circuitbreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore fails every call with err until err is cleared.
type flakyStore struct {
	*MemoryStore
	err   error
	calls int
}

func (f *flakyStore) Get(ctx context.Context, p string) (*Object, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.MemoryStore.Get(ctx, p)
}

func (f *flakyStore) Ping(context.Context) error { return f.err }

func TestGuarded_OpensOnTransportErrors(t *testing.T) {
	inner := &flakyStore{
		MemoryStore: NewMemoryStore(""),
		err:         &TransportError{Op: "get", Path: "x", StatusCode: 502, Err: errors.New("bad gateway")},
	}
	g := NewGuarded(inner, "test", 2, time.Hour)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := g.Get(ctx, "data/plants.csv")
		require.True(t, IsTransport(err))
	}
	assert.Equal(t, circuitbreaker.Open, g.State())

	_, err := g.Get(ctx, "data/plants.csv")
	assert.True(t, IsTransport(err))
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.Equal(t, 2, inner.calls, "open circuit must not reach the backend")
}

func TestGuarded_ExpectedErrorsDoNotTrip(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"not found", ErrNotFound},
		{"conflict", fmt.Errorf("put: %w", ErrConflict)},
		{"canceled", context.Canceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := &flakyStore{MemoryStore: NewMemoryStore(""), err: tt.err}
			g := NewGuarded(inner, "test", 1, time.Hour)

			for i := 0; i < 3; i++ {
				_, err := g.Get(context.Background(), "a")
				assert.ErrorIs(t, err, tt.err)
			}
			assert.Equal(t, circuitbreaker.Closed, g.State())
			assert.Equal(t, 3, inner.calls)
		})
	}
}

func TestGuarded_PassesThrough(t *testing.T) {
	g := NewGuarded(NewMemoryStore(""), "test", 3, time.Second)
	ctx := context.Background()

	res, err := g.Put(ctx, "photos/a.jpg", []byte("a"), "")
	require.NoError(t, err)

	entries, err := g.List(ctx, "photos")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, res.Version, entries[0].Version)

	require.NoError(t, g.Delete(ctx, "photos/a.jpg", res.Version))
	_, err = g.Get(ctx, "photos/a.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGuarded_PingBypassesBreaker(t *testing.T) {
	inner := &flakyStore{MemoryStore: NewMemoryStore(""), err: errors.New("down")}
	g := NewGuarded(inner, "test", 1, time.Hour)

	assert.Error(t, g.Ping(context.Background()))
	assert.Equal(t, circuitbreaker.Closed, g.State())
}

func TestInstrumented_PassesThrough(t *testing.T) {
	s := NewInstrumented(NewMemoryStore(""), "memory")
	ctx := context.Background()

	res, err := s.Put(ctx, "a.txt", []byte("a"), "")
	require.NoError(t, err)
	_, err = s.Put(ctx, "a.txt", []byte("b"), "")
	assert.ErrorIs(t, err, ErrConflict)

	obj, err := s.Get(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, res.Version, obj.Version)
	assert.NoError(t, s.Ping(ctx))
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{ErrNotFound, "not_found"},
		{fmt.Errorf("wrapped: %w", ErrConflict), "conflict"},
		{&TransportError{Op: "get", Err: errors.New("x")}, "error"},
	}
	for _, tt := range tests {
		if got := outcome(tt.err); got != tt.want {
			t.Errorf("outcome(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
