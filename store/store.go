// Package store keeps binjson Values in a byte-oriented provider.
//
// Each value is encoded by a codec, optionally zstd-compressed and framed
// with the version it was written under. Reads that hit a corrupt, stale or
// undecodable entry delete it and report a miss. SetMany additionally writes
// one batch entry for the whole key set, which GetMany serves in a single
// provider round-trip while every member version is still current.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/unkn0wn-root/binjson"
	"github.com/unkn0wn-root/binjson/codec"
	"github.com/unkn0wn-root/binjson/internal/util"
	"github.com/unkn0wn-root/binjson/internal/wire"
	"github.com/unkn0wn-root/binjson/provider"
)

const (
	defaultTTL           = 10 * time.Minute
	defaultCompressAbove = 1024
	defaultRetention     = 30 * 24 * time.Hour
	defaultSweep         = time.Hour
)

type Store struct {
	ns            string
	provider      provider.Provider
	codec         codec.Codec[binjson.Value]
	log           binjson.Logger
	hooks         Hooks
	versions      VersionStore
	enabled       bool
	batch         bool
	defaultTTL    time.Duration
	batchTTL      time.Duration
	compressAbove int
	cost          SetCostFunc
}

func New(opts Options) (*Store, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("binjson/store: provider is required")
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("binjson/store: namespace is required")
	}

	s := &Store{
		ns:       opts.Namespace,
		provider: opts.Provider,
		enabled:  !opts.Disabled,
		batch:    !opts.DisableBatch,
	}

	s.codec = util.Coalesce[codec.Codec[binjson.Value]](opts.Codec, codec.Binary{})
	s.log = util.Coalesce[binjson.Logger](opts.Logger, binjson.NopLogger{})
	s.hooks = util.Coalesce[Hooks](opts.Hooks, NopHooks{})
	s.defaultTTL = util.Coalesce(opts.DefaultTTL, defaultTTL)
	s.batchTTL = util.Coalesce(opts.BatchTTL, defaultTTL)
	s.compressAbove = util.Coalesce(opts.CompressAbove, defaultCompressAbove)

	if opts.ComputeSetCost != nil {
		s.cost = opts.ComputeSetCost
	} else {
		s.cost = func(_ string, raw []byte, _ bool, _ int) int64 { return int64(len(raw)) }
	}

	if opts.Versions != nil {
		s.versions = opts.Versions
	} else {
		s.versions = NewLocalVersions(
			util.Coalesce(opts.CleanupInterval, defaultSweep),
			util.Coalesce(opts.VersionRetention, defaultRetention),
		)
	}
	return s, nil
}

func (s *Store) Enabled() bool { return s.enabled }

// Close closes the version store, then the provider.
func (s *Store) Close(ctx context.Context) error {
	if s.versions != nil {
		_ = s.versions.Close(ctx)
	}
	return s.provider.Close(ctx)
}

// Get returns the value stored under key. Corrupt, stale or undecodable
// entries are deleted and reported as a miss; err is only set for
// provider failures.
func (s *Store) Get(ctx context.Context, key string) (binjson.Value, bool, error) {
	if !s.enabled {
		return binjson.Value{}, false, nil
	}
	k := s.valueKey(key)
	raw, ok, err := s.provider.Get(ctx, k)
	if err != nil || !ok {
		return binjson.Value{}, false, err
	}

	e, err := wire.DecodeValue(raw)
	if err != nil {
		s.heal(ctx, k, "corrupt")
		return binjson.Value{}, false, nil
	}
	cur, err := s.versions.Snapshot(ctx, k)
	if err != nil {
		s.hooks.VersionError(1, err)
		s.log.Warn("version snapshot error", binjson.Fields{"key": k, "err": err})
		return binjson.Value{}, false, nil
	}
	if e.Version != cur {
		s.heal(ctx, k, "version_mismatch")
		return binjson.Value{}, false, nil
	}
	v, reason, err := s.open(e)
	if err != nil {
		s.heal(ctx, k, reason)
		return binjson.Value{}, false, nil
	}
	return v, true, nil
}

// Set stores v under key. ttl == 0 uses DefaultTTL.
func (s *Store) Set(ctx context.Context, key string, v binjson.Value, ttl time.Duration) error {
	if !s.enabled {
		return nil
	}
	k := s.valueKey(key)
	ver, err := s.versions.Snapshot(ctx, k)
	if err != nil {
		s.hooks.VersionError(1, err)
		return err
	}
	e, err := s.seal(v, ver)
	if err != nil {
		return err
	}
	return s.put(ctx, k, wire.EncodeValue(e), util.Coalesce(ttl, s.defaultTTL))
}

// Delete removes key and bumps its version, so batch entries holding the
// key stop being served too.
func (s *Store) Delete(ctx context.Context, key string) error {
	if !s.enabled {
		return nil
	}
	k := s.valueKey(key)
	ver, bumpErr := s.versions.Bump(ctx, k)
	delErr := s.provider.Del(ctx, k)

	switch {
	case bumpErr != nil && delErr != nil:
		s.hooks.DeleteOutage(key, bumpErr, delErr)
		s.log.Error("delete failed (version bump and provider delete)", binjson.Fields{"key": key, "bump_err": bumpErr, "del_err": delErr})
		return errors.Join(bumpErr, delErr)
	case bumpErr != nil:
		s.hooks.VersionError(1, bumpErr)
		return bumpErr
	case delErr != nil:
		// the bumped version already hides the entry; it self-heals on read
		s.log.Warn("provider delete failed after version bump", binjson.Fields{"key": key, "err": delErr})
	}
	s.log.Debug("deleted key", binjson.Fields{"key": key, "version": ver})
	return nil
}

// GetMany returns the values found for keys and the keys that missed, in
// request order. A valid batch entry for exactly this key set (order and
// duplicates ignored) answers in one round-trip; otherwise each key is read
// on its own.
func (s *Store) GetMany(ctx context.Context, keys []string) (map[string]binjson.Value, []string, error) {
	out := make(map[string]binjson.Value, len(keys))
	if !s.enabled {
		return out, append([]string(nil), keys...), nil
	}
	if len(keys) == 0 {
		return out, nil, nil
	}

	if !s.batch {
		return s.getEach(ctx, keys)
	}

	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)
	bk := s.batchKey(slices.Compact(sorted))

	raw, ok, err := s.provider.Get(ctx, bk)
	if err == nil && ok {
		found, reason := s.readBatch(ctx, raw)
		if reason == "" {
			var missing []string
			for _, k := range keys {
				if it, ok := found[k]; ok {
					out[k] = it.v
					// warm the single entry with the frame we already hold
					_ = s.put(ctx, s.valueKey(k), wire.EncodeValue(it.e), s.defaultTTL)
				} else {
					missing = append(missing, k)
				}
			}
			return out, missing, nil
		}
		s.hooks.BatchRejected(s.ns, len(keys), reason)
		s.log.Debug("batch rejected", binjson.Fields{"key": bk, "reason": reason})
		_ = s.provider.Del(ctx, bk)
	}
	return s.getEach(ctx, keys)
}

func (s *Store) getEach(ctx context.Context, keys []string) (map[string]binjson.Value, []string, error) {
	out := make(map[string]binjson.Value, len(keys))
	var missing []string
	for _, k := range keys {
		v, ok, err := s.Get(ctx, k)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			out[k] = v
		} else {
			missing = append(missing, k)
		}
	}
	return out, missing, nil
}

type batchHit struct {
	v binjson.Value
	e wire.Entry
}

// readBatch decodes a batch entry. A non-empty reason rejects the batch.
// Members that fail to decode are left out and read as misses.
func (s *Store) readBatch(ctx context.Context, raw []byte) (map[string]batchHit, string) {
	items, err := wire.DecodeBatch(raw)
	if err != nil {
		return nil, "decode_error"
	}
	storage := make([]string, len(items))
	for i, it := range items {
		storage[i] = s.valueKey(it.Key)
	}
	cur, err := s.versions.SnapshotMany(ctx, storage)
	if err != nil {
		s.hooks.VersionError(len(storage), err)
		return nil, "version_error"
	}

	found := make(map[string]batchHit, len(items))
	for i, it := range items {
		if it.Version != cur[storage[i]] {
			return nil, "stale"
		}
		v, _, err := s.open(it.Entry)
		if err != nil {
			continue
		}
		found[it.Key] = batchHit{v: v, e: it.Entry}
	}
	return found, ""
}

// SetMany stores every item as a single entry and, unless batches are
// disabled, the whole set as one batch entry. ttl == 0 uses BatchTTL for the batch and DefaultTTL for the
// singles.
func (s *Store) SetMany(ctx context.Context, items map[string]binjson.Value, ttl time.Duration) error {
	if !s.enabled || len(items) == 0 {
		return nil
	}

	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	storage := make([]string, len(keys))
	for i, k := range keys {
		storage[i] = s.valueKey(k)
	}

	vers, err := s.versions.SnapshotMany(ctx, storage)
	if err != nil {
		s.hooks.VersionError(len(storage), err)
		return err
	}

	batch := make([]wire.BatchItem, len(keys))
	for i, k := range keys {
		e, err := s.seal(items[k], vers[storage[i]])
		if err != nil {
			return fmt.Errorf("binjson/store: %q: %w", k, err)
		}
		batch[i] = wire.BatchItem{Key: k, Entry: e}
	}
	if s.batch {
		raw, err := wire.EncodeBatch(batch)
		if err != nil {
			return err
		}
		if err := s.putBatch(ctx, s.batchKey(keys), raw, len(keys), util.Coalesce(ttl, s.batchTTL)); err != nil {
			return err
		}
	}

	singleTTL := util.Coalesce(ttl, s.defaultTTL)
	if ms, ok := s.provider.(provider.MultiSetter); ok {
		values := make(map[string][]byte, len(batch))
		for i, it := range batch {
			values[storage[i]] = wire.EncodeValue(it.Entry)
		}
		if err := ms.SetMany(ctx, values, singleTTL); err != nil {
			s.log.Warn("single writes after batch failed", binjson.Fields{"items": len(values), "err": err})
		}
		return nil
	}
	for i, it := range batch {
		if err := s.put(ctx, storage[i], wire.EncodeValue(it.Entry), singleTTL); err != nil {
			s.log.Warn("single write after batch failed", binjson.Fields{"key": it.Key, "err": err})
		}
	}
	return nil
}

// seal encodes v and frames it under version ver.
func (s *Store) seal(v binjson.Value, ver uint64) (wire.Entry, error) {
	payload, err := s.codec.Encode(v)
	if err != nil {
		return wire.Entry{}, err
	}
	flags, payload := wire.Pack(payload, s.compressAbove)
	return wire.Entry{Version: ver, Flags: flags, Payload: payload}, nil
}

// open reverses seal. reason names the failing step for self-heal.
func (s *Store) open(e wire.Entry) (binjson.Value, string, error) {
	payload, err := wire.Unpack(e.Flags, e.Payload)
	if err != nil {
		return binjson.Value{}, "corrupt", err
	}
	v, err := s.codec.Decode(payload)
	if err != nil {
		return binjson.Value{}, "value_decode", err
	}
	return v, "", nil
}

func (s *Store) put(ctx context.Context, k string, raw []byte, ttl time.Duration) error {
	ok, err := s.provider.Set(ctx, k, raw, s.cost(k, raw, false, 1), ttl)
	if err != nil {
		return err
	}
	if !ok {
		s.hooks.ProviderSetRejected(k, false)
		s.log.Debug("set rejected by provider (pressure)", binjson.Fields{"key": k})
	}
	return nil
}

func (s *Store) putBatch(ctx context.Context, k string, raw []byte, n int, ttl time.Duration) error {
	ok, err := s.provider.Set(ctx, k, raw, s.cost(k, raw, true, n), ttl)
	if err != nil {
		return err
	}
	if !ok {
		s.hooks.ProviderSetRejected(k, true)
		s.log.Debug("batch set rejected by provider (pressure)", binjson.Fields{"key": k, "items": n})
	}
	return nil
}

func (s *Store) heal(ctx context.Context, k, reason string) {
	_ = s.provider.Del(ctx, k)
	s.hooks.SelfHeal(k, reason)
	s.log.Debug("self-heal delete", binjson.Fields{"key": k, "reason": reason})
}

func (s *Store) valueKey(userKey string) string {
	return "val:" + s.ns + ":" + userKey
}

func (s *Store) batchKey(sortedKeys []string) string {
	return util.BatchKeySorted("batch:"+s.ns, sortedKeys)
}
