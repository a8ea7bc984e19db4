// Package bolt adapts a bbolt database to provider.Provider, giving the
// store a persistent single-node backend.
//
// Every value is kept as an 8-byte little-endian expiry (unix nanoseconds,
// 0 = never) followed by the stored bytes. Expired entries read as misses
// and are removed lazily or by Purge. Cost is ignored.
package bolt

import (
	"context"
	"encoding/binary"
	"errors"
	"time"

	"go.etcd.io/bbolt"

	pr "github.com/unkn0wn-root/binjson/provider"
)

const expiryLen = 8

var ErrNoDB = errors.New("bolt provider: no database (set Path or DB)")

type Provider struct {
	db      *bbolt.DB
	bucket  []byte
	ownsDB  bool
	nowFunc func() time.Time
}

var (
	_ pr.Provider    = (*Provider)(nil)
	_ pr.MultiSetter = (*Provider)(nil)
)

type Config struct {
	// Path opens (or creates) a database file owned by the provider.
	Path string
	// DB uses an already open database; Close leaves it open.
	DB *bbolt.DB
	// Bucket defaults to "binjson".
	Bucket string
	// Timeout bounds the wait for the file lock when opening Path.
	Timeout time.Duration
}

func New(cfg Config) (*Provider, error) {
	p := &Provider{
		db:      cfg.DB,
		bucket:  []byte(cfg.Bucket),
		nowFunc: time.Now,
	}
	if len(p.bucket) == 0 {
		p.bucket = []byte("binjson")
	}
	if p.db == nil {
		if cfg.Path == "" {
			return nil, ErrNoDB
		}
		db, err := bbolt.Open(cfg.Path, 0o600, &bbolt.Options{Timeout: cfg.Timeout})
		if err != nil {
			return nil, err
		}
		p.db = db
		p.ownsDB = true
	}
	err := p.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(p.bucket)
		return err
	})
	if err != nil {
		if p.ownsDB {
			_ = p.db.Close()
		}
		return nil, err
	}
	return p, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	var (
		out     []byte
		found   bool
		expired bool
	)
	err := p.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(p.bucket).Get([]byte(key))
		if raw == nil {
			return nil
		}
		if len(raw) < expiryLen {
			expired = true // unreadable record; drop it
			return nil
		}
		if p.expired(raw) {
			expired = true
			return nil
		}
		// bbolt memory is only valid inside the transaction
		out = append([]byte{}, raw[expiryLen:]...)
		found = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if expired {
		_ = p.deleteIfExpired(key)
		return nil, false, nil
	}
	return out, found, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	err := p.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(p.bucket).Put([]byte(key), p.record(value, ttl))
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetMany implements provider.MultiSetter with a single write transaction.
func (p *Provider) SetMany(_ context.Context, values map[string][]byte, ttl time.Duration) error {
	return p.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(p.bucket)
		for k, v := range values {
			if err := b.Put([]byte(k), p.record(v, ttl)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (p *Provider) Del(_ context.Context, key string) error {
	return p.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(p.bucket).Delete([]byte(key))
	})
}

// Purge removes every expired entry and reports how many were dropped.
func (p *Provider) Purge(_ context.Context) (int, error) {
	removed := 0
	err := p.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(p.bucket)
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			if len(v) < expiryLen || p.expired(v) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}

// Close closes the database when the provider opened it.
func (p *Provider) Close(context.Context) error {
	if !p.ownsDB {
		return nil
	}
	return p.db.Close()
}

func (p *Provider) record(value []byte, ttl time.Duration) []byte {
	rec := make([]byte, expiryLen+len(value))
	if ttl > 0 {
		binary.LittleEndian.PutUint64(rec, uint64(p.nowFunc().Add(ttl).UnixNano()))
	}
	copy(rec[expiryLen:], value)
	return rec
}

func (p *Provider) expired(raw []byte) bool {
	exp := binary.LittleEndian.Uint64(raw)
	return exp != 0 && p.nowFunc().UnixNano() >= int64(exp)
}

// deleteIfExpired re-checks under the write lock so a concurrent Set is kept.
func (p *Provider) deleteIfExpired(key string) error {
	return p.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(p.bucket)
		raw := b.Get([]byte(key))
		if raw == nil || (len(raw) >= expiryLen && !p.expired(raw)) {
			return nil
		}
		return b.Delete([]byte(key))
	})
}
