package store

import (
	"context"
	"sync"
	"time"
)

// VersionStore tracks a counter per storage key. Every entry is written
// under the version current at write time; Delete bumps it, which turns
// older single and batch entries holding the key into misses.
type VersionStore interface {
	// Snapshot returns the current version; missing => 0.
	Snapshot(ctx context.Context, storageKey string) (uint64, error)
	// SnapshotMany returns versions for many keys; missing => 0.
	SnapshotMany(ctx context.Context, storageKeys []string) (map[string]uint64, error)
	// Bump atomically increments and returns the new version.
	Bump(ctx context.Context, storageKey string) (uint64, error)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}

type localVersion struct {
	v         uint64
	updatedAt time.Time
}

// LocalVersions keeps versions in-process. Only correct when a single
// process writes to the provider; use RedisVersions otherwise.
//
// Entries not bumped for the retention period are pruned by a background
// sweep, after which the key reads as version 0 again.
type LocalVersions struct {
	mu   sync.RWMutex
	vers map[string]localVersion

	ticker    *time.Ticker
	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ VersionStore = (*LocalVersions)(nil)

// NewLocalVersions starts a sweep every cleanupInterval when both arguments
// are positive.
func NewLocalVersions(cleanupInterval, retention time.Duration) *LocalVersions {
	s := &LocalVersions{vers: make(map[string]localVersion)}
	if cleanupInterval > 0 && retention > 0 {
		s.ticker = time.NewTicker(cleanupInterval)
		s.stopCh = make(chan struct{})
		s.wg.Add(1)
		go s.sweepLoop(retention)
	}
	return s
}

func (s *LocalVersions) sweepLoop(retention time.Duration) {
	defer s.wg.Done()
	for {
		select {
		case <-s.ticker.C:
			s.Prune(retention)
		case <-s.stopCh:
			return
		}
	}
}

func (s *LocalVersions) Snapshot(_ context.Context, k string) (uint64, error) {
	s.mu.RLock()
	e := s.vers[k]
	s.mu.RUnlock()
	return e.v, nil
}

// SnapshotMany takes the read lock once for all keys.
func (s *LocalVersions) SnapshotMany(_ context.Context, ks []string) (map[string]uint64, error) {
	out := make(map[string]uint64, len(ks))
	s.mu.RLock()
	for _, k := range ks {
		out[k] = s.vers[k].v
	}
	s.mu.RUnlock()
	return out, nil
}

func (s *LocalVersions) Bump(_ context.Context, k string) (uint64, error) {
	now := time.Now()
	s.mu.Lock()
	e := s.vers[k]
	e.v++
	e.updatedAt = now
	s.vers[k] = e
	s.mu.Unlock()
	return e.v, nil
}

// Prune drops versions last bumped before now-retention and reports how
// many were removed.
func (s *LocalVersions) Prune(retention time.Duration) int {
	if retention <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-retention)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k, e := range s.vers {
		if e.updatedAt.Before(cutoff) {
			delete(s.vers, k)
			removed++
		}
	}
	return removed
}

func (s *LocalVersions) Close(_ context.Context) error {
	s.closeOnce.Do(func() {
		if s.stopCh != nil {
			s.ticker.Stop()
			close(s.stopCh)
			s.wg.Wait()
		}
	})
	return nil
}
