package contentstore

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a path or folder does not exist.
	ErrNotFound = errors.New("content not found")

	// ErrConflict is returned when a write carries a version token that is no
	// longer current, or creates a path that already exists.
	ErrConflict = errors.New("version conflict")
)

// TransportError covers network, authentication, rate-limit and unexpected
// remote failures.
type TransportError struct {
	Op         string
	Path       string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Op, e.Path, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// Object is the content stored at one path.
type Object struct {
	Path    string
	Content []byte
	Version string
	URL     string
}

// PutResult is returned by a successful write.
type PutResult struct {
	Version string
	URL     string
}

// Entry is one child of a folder. ModifiedAt is zero when the backend does not
// expose timestamps.
type Entry struct {
	Name       string
	Path       string
	Version    string
	Dir        bool
	ModifiedAt time.Time
}

// ContentStore is a versioned object store addressed by slash-separated paths.
type ContentStore interface {
	// Get returns the object at p or ErrNotFound.
	Get(ctx context.Context, p string) (*Object, error)

	// Put writes content at p. An empty expectedVersion creates the path and
	// fails with ErrConflict if it already exists; otherwise the write fails
	// with ErrConflict unless expectedVersion is the current version.
	Put(ctx context.Context, p string, content []byte, expectedVersion string) (*PutResult, error)

	// Delete removes the object at p. Backends that check versions return
	// ErrConflict on a stale version.
	Delete(ctx context.Context, p string, version string) error

	// List returns the direct children of folder, or ErrNotFound if the folder
	// does not exist.
	List(ctx context.Context, folder string) ([]Entry, error)
}

// Pinger is implemented by backends that can check reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BlobVersion returns the git blob hash of content, the same token a git
// hosting content API reports as a file's sha.
func BlobVersion(content []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// CleanPath normalises p to a slash-separated path without leading or trailing slashes.
func CleanPath(p string) string {
	p = strings.Trim(path.Clean("/"+p), "/")
	if p == "." {
		return ""
	}
	return p
}

// ContentURL builds the locator served by the content passthrough route.
func ContentURL(baseURL, p string) string {
	segments := strings.Split(CleanPath(p), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(baseURL, "/") + "/v1/content/" + strings.Join(segments, "/")
}
