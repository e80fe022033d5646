// Package seedsource provides pluggable strategies for obtaining the random
// seed a draw consumes. The seed is never an opaque call into a PRNG: every
// strategy returns the raw seed bytes together with provenance (source name
// and, for beacons, the round number) so the Draw record can capture exactly
// where its randomness came from.
package seedsource

import (
	"context"
	"crypto/rand"
	"fmt"
)

// Seed is a raw random seed plus its provenance.
type Seed struct {
	Bytes       []byte
	SourceName  string
	BeaconRound uint64
}

// Source produces draw seeds. Implementations must be safe for concurrent use.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (*Seed, error)
}

const localSourceName = "LOCAL_CSPRNG"

// LocalSource draws 32 bytes from the operating system CSPRNG. Provenance is
// limited to "this host generated it", which is acceptable for low-stakes
// competitions; public-facing draws should prefer a beacon.
type LocalSource struct{}

// NewLocalSource creates a LocalSource
func NewLocalSource() *LocalSource {
	return &LocalSource{}
}

// Name returns the recorded source name
func (s *LocalSource) Name() string { return localSourceName }

// Fetch generates a fresh 32-byte seed
func (s *LocalSource) Fetch(ctx context.Context) (*Seed, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to read from CSPRNG: %w", err)
	}
	return &Seed{Bytes: buf, SourceName: localSourceName}, nil
}
