package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestFileCacheRoundTrip(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	ctx := context.Background()

	// Miss before set.
	if _, found, err := c.Get(ctx, "key1"); err != nil || found {
		t.Fatalf("Get before Set = found=%v err=%v", found, err)
	}

	want := []byte("catalog payload")
	if err := c.Set(ctx, "key1", want, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, found, err := c.Get(ctx, "key1")
	if err != nil || !found {
		t.Fatalf("Get after Set = found=%v err=%v", found, err)
	}
	if string(got) != string(want) {
		t.Errorf("Get = %q, want %q", got, want)
	}

	if err := c.Delete(ctx, "key1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found, _ := c.Get(ctx, "key1"); found {
		t.Error("Get after Delete should miss")
	}

	// Deleting a missing key is fine.
	if err := c.Delete(ctx, "absent"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCacheExpiration(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	ctx := context.Background()
	if err := c.Set(ctx, "short", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, found, _ := c.Get(ctx, "short"); found {
		t.Error("expired entry should miss")
	}

	// Zero TTL never expires.
	if err := c.Set(ctx, "forever", []byte("y"), 0); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := c.Get(ctx, "forever"); !found {
		t.Error("zero-TTL entry should persist")
	}
}

func TestNullCache(t *testing.T) {
	c := NewNullCache()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, found, err := c.Get(ctx, "k"); found || err != nil {
		t.Errorf("NullCache Get = found=%v err=%v, want miss", found, err)
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	a := k.CatalogKey([]string{"/recipes"}, CatalogKeyOpts{IncludeInstalled: true})
	b := k.CatalogKey([]string{"/recipes"}, CatalogKeyOpts{IncludeInstalled: true})
	if a != b {
		t.Error("CatalogKey should be deterministic")
	}
	if !strings.HasPrefix(a, "catalog:") {
		t.Errorf("CatalogKey = %q, want catalog: prefix", a)
	}

	c := k.CatalogKey([]string{"/recipes"}, CatalogKeyOpts{IncludeInstalled: false})
	if a == c {
		t.Error("different opts should change the key")
	}

	r1 := k.ResolveKey("usd-22.05", ResolveKeyOpts{Constraints: []string{"platform-linux"}, CatalogHash: "h1"})
	r2 := k.ResolveKey("usd-22.05", ResolveKeyOpts{Constraints: []string{"platform-linux"}, CatalogHash: "h2"})
	if r1 == r2 {
		t.Error("catalog hash should change the resolve key")
	}
}

func TestScopedKeyer(t *testing.T) {
	base := NewDefaultKeyer()
	scoped := NewScopedKeyer(base, "host:build01:")

	plain := base.CatalogKey([]string{"/recipes"}, CatalogKeyOpts{})
	got := scoped.CatalogKey([]string{"/recipes"}, CatalogKeyOpts{})
	if got != "host:build01:"+plain {
		t.Errorf("ScopedKeyer = %q", got)
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	// Non-retryable error returns immediately.
	errFatal := errors.New("bad input")
	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return errFatal
	})
	if err == nil || calls != 1 {
		t.Errorf("non-retryable: calls=%d err=%v", calls, err)
	}

	// Retryable error retries until success.
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrNetwork)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retryable: calls=%d err=%v", calls, err)
	}
}
