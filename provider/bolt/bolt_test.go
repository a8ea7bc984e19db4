package bolt

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.etcd.io/bbolt"
)

func createTestDB(t *testing.T) *bbolt.DB {
	t.Helper()
	db, err := bbolt.Open(filepath.Join(t.TempDir(), "test.db"), 0o600, nil)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := New(Config{DB: createTestDB(t), Bucket: "test-bucket"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	if _, ok, err := p.Get(ctx, "k"); ok || err != nil {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}
	if ok, err := p.Set(ctx, "k", []byte("value"), 0, 0); err != nil || !ok {
		t.Fatalf("Set: ok=%v err=%v", ok, err)
	}
	got, ok, err := p.Get(ctx, "k")
	if err != nil || !ok || !bytes.Equal(got, []byte("value")) {
		t.Fatalf("Get: %q ok=%v err=%v", got, ok, err)
	}
	if err := p.Del(ctx, "k"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, ok, _ := p.Get(ctx, "k"); ok {
		t.Fatalf("expected miss after Del")
	}
}

func TestEmptyValueIsAHit(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)
	if _, err := p.Set(ctx, "empty", nil, 0, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := p.Get(ctx, "empty")
	if err != nil || !ok || len(got) != 0 {
		t.Fatalf("Get: %q ok=%v err=%v", got, ok, err)
	}
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)
	now := time.Unix(1_700_000_000, 0)
	p.nowFunc = func() time.Time { return now }

	_, _ = p.Set(ctx, "short", []byte("a"), 0, time.Second)
	_, _ = p.Set(ctx, "long", []byte("b"), 0, time.Hour)
	_, _ = p.Set(ctx, "forever", []byte("c"), 0, 0)

	now = now.Add(time.Minute)
	if _, ok, _ := p.Get(ctx, "short"); ok {
		t.Fatalf("expected short entry to expire")
	}
	if _, ok, _ := p.Get(ctx, "long"); !ok {
		t.Fatalf("long entry expired early")
	}

	now = now.Add(2 * time.Hour)
	n, err := p.Purge(ctx)
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if n != 1 {
		t.Fatalf("purged %d want 1", n)
	}
	if _, ok, _ := p.Get(ctx, "forever"); !ok {
		t.Fatalf("entry without ttl purged")
	}
}

func TestSetMany(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)
	values := map[string][]byte{"a": []byte("1"), "b": []byte("2")}
	if err := p.SetMany(ctx, values, time.Minute); err != nil {
		t.Fatalf("SetMany: %v", err)
	}
	for k, want := range values {
		got, ok, _ := p.Get(ctx, k)
		if !ok || !bytes.Equal(got, want) {
			t.Fatalf("Get(%s)=%q ok=%v", k, got, ok)
		}
	}
}

func TestOwnedDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "owned.db")
	p, err := New(Config{Path: path, Timeout: time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, _ = p.Set(ctx, "k", []byte("v"), 0, 0)
	if err := p.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// reopening sees the persisted entry
	p, err = New(Config{Path: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer p.Close(ctx)
	if got, ok, _ := p.Get(ctx, "k"); !ok || string(got) != "v" {
		t.Fatalf("entry not persisted: %q ok=%v", got, ok)
	}
}

func TestNoDB(t *testing.T) {
	if _, err := New(Config{}); err != ErrNoDB {
		t.Fatalf("err=%v want ErrNoDB", err)
	}
}
