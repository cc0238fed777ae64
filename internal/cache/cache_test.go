package cache

import (
	"bytes"
	"testing"
	"time"
)

func TestDocumentKey(t *testing.T) {
	now := time.Now()
	a := DocumentKey("/data/filing.txt", 1024, now)
	b := DocumentKey("/data/filing.txt", 1024, now)
	if a != b {
		t.Error("same identity must produce the same key")
	}
	if a == DocumentKey("/data/filing.txt", 1024, now.Add(time.Second)) {
		t.Error("changed mtime must change the key")
	}
	if a == DocumentKey("/data/filing.txt", 2048, now) {
		t.Error("changed size must change the key")
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	payload := bytes.Repeat([]byte("normalized filing text\n"), 100)

	if err := c.Set("k1", payload, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok := c.Get("k1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !bytes.Equal(got, payload) {
		t.Error("payload mismatch after round trip")
	}
}

func TestDiskCacheExpiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	if err := c.Set("k1", []byte("v"), -time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok := c.Get("k1"); ok {
		t.Error("expired entry served")
	}
}

func TestDiskCacheMiss(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	if _, ok := c.Get("absent"); ok {
		t.Error("expected miss")
	}
}

func TestLayeredCachePromotesFromDisk(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Hour, dir, time.Hour)

	if err := c.Set("k1", []byte("v1"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// A fresh layered cache over the same directory has a cold memory
	// layer; the value must come back from disk and be promoted.
	c2 := NewLayeredCache(time.Hour, dir, time.Hour)
	got, ok := c2.Get("k1")
	if !ok || string(got) != "v1" {
		t.Fatalf("Get = %q, %v", got, ok)
	}
	if _, ok := c2.memory.Get("k1"); !ok {
		t.Error("expected promotion into memory layer")
	}
}

func TestLayeredCacheDelete(t *testing.T) {
	c := NewLayeredCache(time.Hour, t.TempDir(), time.Hour)
	if err := c.Set("k1", []byte("v1"), 0); err != nil {
		t.Fatal(err)
	}
	if err := c.Delete("k1"); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("k1"); ok {
		t.Error("deleted entry still served")
	}
}
