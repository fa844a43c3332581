package cache

import (
	"testing"
	"time"
)

func TestSeenCache(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	if c.Seen("https://example.com/a") {
		t.Fatal("unmarked key reported as seen")
	}

	c.Mark("https://example.com/a")
	if !c.Seen("https://example.com/a") {
		t.Fatal("marked key not reported as seen")
	}

	if c.Seen("https://example.com/b") {
		t.Fatal("different key reported as seen")
	}
}

func TestSeenCache_Expiry(t *testing.T) {
	c := New(10 * time.Millisecond)
	defer c.Close()

	c.Mark("hash-1")
	time.Sleep(30 * time.Millisecond)

	if c.Seen("hash-1") {
		t.Fatal("expired key reported as seen")
	}
}

func TestSeenCache_EmptyKeyIgnored(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	c.Mark("")
	if c.Seen("") {
		t.Fatal("empty key must not be tracked")
	}
}
