package cache

import (
	"strings"
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	k1 := Key("xwalk", "M16.11")
	k2 := Key("xwalk", "M16.11")
	if k1 != k2 {
		t.Error("same input must produce the same key")
	}

	if Key("xwalk", "M16.11") == Key("embed", "M16.11") {
		t.Error("different kinds must not collide")
	}
	if Key("xwalk", "M16.11") == Key("xwalk", "M16.12") {
		t.Error("different values must not collide")
	}
	if !strings.HasPrefix(k1, "denialguard:v1:xwalk:") {
		t.Errorf("unexpected key format: %s", k1)
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("expected miss for unknown key")
	}

	if err := c.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	val, found := c.Get("k")
	if !found || string(val) != "v" {
		t.Errorf("Get = %q, %v", val, found)
	}

	if err := c.Delete("k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("expected miss after delete")
	}
}

func TestDiskCache(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	if err := c.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	val, found := c.Get("k")
	if !found || string(val) != "v" {
		t.Errorf("Get = %q, %v", val, found)
	}
}

func TestDiskCache_Expiration(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	if err := c.Set("k", []byte("v"), -time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("expired entry must not be returned")
	}
}

func TestLayeredCache_PromotesFromDisk(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Minute)

	// Seed the disk layer only, as if a previous process wrote it.
	disk := NewDiskCache(dir, time.Minute)
	if err := disk.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("seed disk: %v", err)
	}

	val, found := c.Get("k")
	if !found || string(val) != "v" {
		t.Fatalf("layered Get = %q, %v", val, found)
	}

	// A second read should hit memory even if the disk copy vanishes.
	if err := disk.Delete("k"); err != nil {
		t.Fatalf("delete disk copy: %v", err)
	}
	if _, found := c.Get("k"); !found {
		t.Error("expected memory hit after promotion")
	}
}

func TestNopCache(t *testing.T) {
	var c Cache = NopCache{}
	if err := c.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("nop cache must never hit")
	}
}
