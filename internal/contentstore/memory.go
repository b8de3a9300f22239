package contentstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type memObject struct {
	content    []byte
	version    string
	modifiedAt time.Time
}

// MemoryStore is an in-process ContentStore. Folders exist while they hold at least one object.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memObject
	baseURL string
	now     func() time.Time
}

// NewMemoryStore creates an empty store whose locators point at baseURL.
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]memObject),
		baseURL: baseURL,
		now:     time.Now,
	}
}

// SetClock replaces the time source used for modification timestamps.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *MemoryStore) Get(_ context.Context, p string) (*Object, error) {
	p = CleanPath(p)
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[p]
	if !ok {
		return nil, ErrNotFound
	}
	content := make([]byte, len(obj.content))
	copy(content, obj.content)
	return &Object{Path: p, Content: content, Version: obj.version, URL: ContentURL(m.baseURL, p)}, nil
}

func (m *MemoryStore) Put(_ context.Context, p string, content []byte, expectedVersion string) (*PutResult, error) {
	p = CleanPath(p)
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, exists := m.objects[p]
	switch {
	case exists && cur.version != expectedVersion:
		return nil, ErrConflict
	case !exists && expectedVersion != "":
		return nil, ErrConflict
	}

	stored := make([]byte, len(content))
	copy(stored, content)
	version := BlobVersion(stored)
	m.objects[p] = memObject{content: stored, version: version, modifiedAt: m.now()}
	return &PutResult{Version: version, URL: ContentURL(m.baseURL, p)}, nil
}

func (m *MemoryStore) Delete(_ context.Context, p string, version string) error {
	p = CleanPath(p)
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.objects[p]
	if !ok {
		return ErrNotFound
	}
	if version != "" && cur.version != version {
		return ErrConflict
	}
	delete(m.objects, p)
	return nil
}

func (m *MemoryStore) List(_ context.Context, folder string) ([]Entry, error) {
	folder = CleanPath(folder)
	prefix := folder + "/"
	if folder == "" {
		prefix = ""
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var entries []Entry
	for p, obj := range m.objects {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := strings.TrimPrefix(p, prefix)
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			name := rest[:i]
			if !seen[name] {
				seen[name] = true
				entries = append(entries, Entry{Name: name, Path: prefix + name, Dir: true})
			}
			continue
		}
		entries = append(entries, Entry{Name: rest, Path: p, Version: obj.version, ModifiedAt: obj.modifiedAt})
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error { return nil }
