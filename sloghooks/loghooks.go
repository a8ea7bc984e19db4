// Package sloghooks reports store hook events through log/slog.
package sloghooks

import (
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/zeebo/blake3"

	"github.com/unkn0wn-root/binjson/store"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	SelfHealEvery    uint64
	BatchRejectEvery uint64
	// Optional key redactor. Defaults to an 8-byte BLAKE3 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	selfHealCtr    atomic.Uint64
	batchRejectCtr atomic.Uint64
}

var _ store.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := blake3.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n <= 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) SelfHeal(storageKey, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("binjson.self_heal",
		"key", h.redact(storageKey),
		"reason", reason)
}

func (h *Hooks) BatchRejected(ns string, requested int, reason string) {
	if h.l == nil || !sample(h.opts.BatchRejectEvery, &h.batchRejectCtr) {
		return
	}
	h.l.Info("binjson.batch_rejected",
		"ns", ns,
		"requested", requested,
		"reason", reason)
}

func (h *Hooks) ProviderSetRejected(storageKey string, isBatch bool) {
	if h.l == nil {
		return
	}
	h.l.Warn("binjson.provider_set_rejected",
		"key", h.redact(storageKey),
		"is_batch", isBatch)
}

func (h *Hooks) VersionError(count int, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("binjson.version_error",
		"count", count,
		"err", err)
}

func (h *Hooks) DeleteOutage(key string, bumpErr, delErr error) {
	if h.l == nil {
		return
	}
	h.l.Error("binjson.delete_outage",
		"key", h.redact(key),
		"bump_err", bumpErr,
		"del_err", delErr)
}
