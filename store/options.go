package store

import (
	"time"

	"github.com/unkn0wn-root/binjson"
	"github.com/unkn0wn-root/binjson/codec"
	"github.com/unkn0wn-root/binjson/provider"
)

// SetCostFunc computes the cost passed to Provider.Set.
// raw is the framed entry; batch reports a batch entry of items values.
type SetCostFunc func(storageKey string, raw []byte, batch bool, items int) int64

type Options struct {
	// Namespace isolates keys: "val:<ns>:<key>" and "batch:<ns>:<hash>". Required.
	Namespace string
	Provider  provider.Provider // required

	Codec    codec.Codec[binjson.Value] // if nil, codec.Binary{}
	Logger   binjson.Logger             // if nil, NopLogger
	Hooks    Hooks                      // if nil, NopHooks
	Versions VersionStore               // if nil, LocalVersions with the sweep settings below

	DefaultTTL time.Duration // default 10m
	BatchTTL   time.Duration // default 10m

	// CompressAbove is the encoded size from which payloads are zstd
	// compressed. 0 => 1024 bytes; < 0 disables compression.
	CompressAbove int

	CleanupInterval  time.Duration // LocalVersions sweep; default 1h
	VersionRetention time.Duration // LocalVersions retention; default 30d

	ComputeSetCost SetCostFunc // default: len(raw)
	DisableBatch   bool        // default false => SetMany also writes a batch entry
	Disabled       bool        // default false => enabled
}
