package table

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/ryanbastic/go-gardenledger/internal/contentstore"
	"github.com/ryanbastic/go-gardenledger/internal/record"
	"github.com/ryanbastic/go-gardenledger/internal/recordstore"
)

func newStore(p string) *recordstore.Store {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return recordstore.New(contentstore.NewMemoryStore(""), p, record.NewSchema("a", "b"), logger)
}

func TestRegistry_RegisterAndStoreFor(t *testing.T) {
	r := NewRegistry()
	store := newStore("data/plants.csv")
	r.Register("plants", store)

	got, err := r.StoreFor("plants")
	if err != nil {
		t.Fatalf("StoreFor: %v", err)
	}
	if got != store {
		t.Error("StoreFor returned a different store")
	}
}

func TestRegistry_Unknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.StoreFor("weeds")
	if !errors.Is(err, ErrUnknownTable) {
		t.Errorf("got %v, want ErrUnknownTable", err)
	}
}

func TestRegistry_Overwrite(t *testing.T) {
	r := NewRegistry()
	r.Register("plants", newStore("old.csv"))
	r.Register("plants", newStore("new.csv"))

	got, err := r.StoreFor("plants")
	if err != nil {
		t.Fatalf("StoreFor: %v", err)
	}
	if got.Path() != "new.csv" {
		t.Errorf("got path %q, want new.csv", got.Path())
	}
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()
	r.Register("progress", newStore("b.csv"))
	r.Register("plants", newStore("a.csv"))

	names := r.Names()
	if len(names) != 2 || names[0] != "plants" || names[1] != "progress" {
		t.Errorf("Names() = %v, want [plants progress]", names)
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Register("plants", newStore("a.csv"))
		}()
		go func() {
			defer wg.Done()
			_, _ = r.StoreFor("plants")
		}()
	}
	wg.Wait()
	if _, err := r.StoreFor("plants"); err != nil {
		t.Errorf("StoreFor after concurrent writes: %v", err)
	}
}
