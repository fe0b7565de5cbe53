// Package docstore provides versioned access to named JSON documents.
// Implementations include Redis (Lua-scripted compare-and-swap),
// PostgreSQL (version-guarded UPDATE), and in-memory (fallback and tests).
//
// The store is the only synchronization primitive in the system: every
// conditional write either installs a new version or fails with
// ErrVersionConflict, and callers resolve conflicts by re-reading.
package docstore

import (
	"context"
	"errors"
)

// Version is the opaque revision token assigned by the store on every
// successful write. Callers never interpret it, only hand it back.
type Version string

// NoVersion marks a document that has never been written. Passing it as
// the expected version makes a conditional write a create-if-absent.
const NoVersion Version = ""

var (
	// ErrVersionConflict is returned by a conditional Put when the
	// store's current version differs from the expected one, including
	// when the document was created or deleted in between.
	ErrVersionConflict = errors.New("docstore: version conflict")

	// ErrUnavailable wraps backend errors that are not conflicts:
	// connectivity, timeouts with known failure, malformed state.
	ErrUnavailable = errors.New("docstore: store unavailable")
)

// Store is the document persistence interface. Get must always hit the
// backend: no caching layer may sit between the ledger and the version
// token, or CAS loses its meaning.
type Store interface {
	// Get returns the document body and its current version. A key that
	// has never been written yields a nil body and NoVersion, not an
	// error.
	Get(ctx context.Context, key string) ([]byte, Version, error)

	// Put writes the document. With expected == nil the write is
	// unconditional (last writer wins; only for non-critical side logs).
	// Otherwise the write succeeds only if the store's current version
	// equals *expected, and fails with ErrVersionConflict if not.
	Put(ctx context.Context, key string, body []byte, expected *Version) error
}

// Expect is a convenience for building the expected-version argument of
// a conditional Put from a version observed on Get.
func Expect(v Version) *Version {
	return &v
}
