// Package asynchook moves store hook calls off the hot path.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    SelfHealEvery:    10, // sample logs: ~every 10th self-heal
//	    BatchRejectEvery: 1,  // log every batch rejection
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	st, _ := store.New(store.Options{
//	    Namespace: "app:prod:docs",
//	    Provider:  provider,
//	    Versions:  store.NewRedisVersions(rdb, "app:prod:docs", 24*time.Hour),
//	    Hooks:     hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/binjson/store"
)

// Hooks forwards events to inner from a fixed worker pool. Events that do
// not fit the queue are dropped and counted.
type Hooks struct {
	inner   store.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Uint64
}

var _ store.Hooks = (*Hooks)(nil)

func New(inner store.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events after Close are
// dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded on a full queue.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	defer func() {
		// send on a closed queue after Close
		if recover() != nil {
			h.dropped.Add(1)
		}
	}()
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) SelfHeal(k, r string)          { h.try(func() { h.inner.SelfHeal(k, r) }) }
func (h *Hooks) VersionError(n int, err error) { h.try(func() { h.inner.VersionError(n, err) }) }
func (h *Hooks) BatchRejected(ns string, n int, r string) {
	h.try(func() { h.inner.BatchRejected(ns, n, r) })
}
func (h *Hooks) ProviderSetRejected(k string, batch bool) {
	h.try(func() { h.inner.ProviderSetRejected(k, batch) })
}
func (h *Hooks) DeleteOutage(k string, be, de error) {
	h.try(func() { h.inner.DeleteOutage(k, be, de) })
}
