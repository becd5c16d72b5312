// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package linkconfig

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"grimm.is/moonlink/internal/linkkind"
	"grimm.is/moonlink/internal/logging"
)

func writeDoc(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "moonlink.hcl")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

const fullDoc = `
link "earth_to_earth" {
  base_latency_ms = 1
}

link "earth_to_moon" {
  base_latency_ms   = 1200
  throughput_limit_mbps = 42
}

link "moon_to_earth" {
  base_latency_ms = 1300
}

link "moon_to_moon" {
  base_latency_ms = 25
}
`

func TestNewStoreDecodesPresentSections(t *testing.T) {
	path := writeDoc(t, t.TempDir(), fullDoc)
	store, err := NewStore(path, logging.WithComponent("test"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	params := store.Parameters(linkkind.BaseToRover)
	if params.BaseLatencyMS != 1200 {
		t.Errorf("BaseLatencyMS = %v, want 1200", params.BaseLatencyMS)
	}
	if params.ThroughputLimitMbps != 42 {
		t.Errorf("ThroughputLimitMbps = %v, want 42", params.ThroughputLimitMbps)
	}
	// latency_jitter_ms was omitted from this section; must fall back to default.
	if params.LatencyJitterMS != Defaults()[linkkind.BaseToRover].LatencyJitterMS {
		t.Errorf("LatencyJitterMS = %v, want default %v", params.LatencyJitterMS, Defaults()[linkkind.BaseToRover].LatencyJitterMS)
	}
}

func TestNewStoreMissingFileUsesDefaults(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "does-not-exist.hcl"), logging.WithComponent("test"))
	if err == nil {
		t.Fatal("expected an error for a missing config file")
	}
	if store == nil {
		t.Fatal("NewStore must still return a usable store on open failure")
	}

	snap := store.Snapshot()
	for kind, want := range Defaults() {
		if snap[kind] != want {
			t.Errorf("kind %v: got %+v, want default %+v", kind, snap[kind], want)
		}
	}
}

func TestMissingSectionFallsBackToDefaultWhole(t *testing.T) {
	doc := `
link "earth_to_earth" {
  base_latency_ms = 1
}

link "moon_to_earth" {
  base_latency_ms = 1300
}

link "moon_to_moon" {
  base_latency_ms = 25
}
`
	path := writeDoc(t, t.TempDir(), doc)
	store, err := NewStore(path, logging.WithComponent("test"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	got := store.Parameters(linkkind.BaseToRover)
	want := Defaults()[linkkind.BaseToRover]
	if got != want {
		t.Errorf("missing earth_to_moon section: got %+v, want defaults %+v", got, want)
	}
}

func TestReloadMissingSectionIsFatalAndKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, fullDoc)
	store, err := NewStore(path, logging.WithComponent("test"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	before := store.Snapshot()

	missingSection := `
link "earth_to_earth" {
  base_latency_ms = 1
}
link "earth_to_moon" {
  base_latency_ms = 1200
}
link "moon_to_moon" {
  base_latency_ms = 25
}
`
	if err := os.WriteFile(path, []byte(missingSection), 0o644); err != nil {
		t.Fatalf("rewriting config: %v", err)
	}
	if err := store.Reload(); err == nil {
		t.Fatal("expected Reload to fail when moon_to_earth is missing")
	}

	after := store.Snapshot()
	for kind := range before {
		if before[kind] != after[kind] {
			t.Errorf("kind %v: configuration changed after a reload missing a required section: %+v -> %+v", kind, before[kind], after[kind])
		}
	}
}

func TestReloadSwapsConfiguration(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, fullDoc)
	store, err := NewStore(path, logging.WithComponent("test"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	updated := `
link "earth_to_earth" {
  base_latency_ms = 1
}
link "earth_to_moon" {
  base_latency_ms = 999
}
link "moon_to_earth" {
  base_latency_ms = 1300
}
link "moon_to_moon" {
  base_latency_ms = 25
}
`
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatalf("rewriting config: %v", err)
	}
	if err := store.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	if got := store.Parameters(linkkind.BaseToRover).BaseLatencyMS; got != 999 {
		t.Errorf("after reload BaseLatencyMS = %v, want 999", got)
	}
}

func TestReloadOnBadDocumentKeepsPreviousConfiguration(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, fullDoc)
	store, err := NewStore(path, logging.WithComponent("test"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	before := store.Snapshot()

	if err := os.WriteFile(path, []byte("not valid hcl {{{"), 0o644); err != nil {
		t.Fatalf("rewriting config: %v", err)
	}
	if err := store.Reload(); err == nil {
		t.Fatal("expected Reload to fail on malformed HCL")
	}

	after := store.Snapshot()
	for kind := range before {
		if before[kind] != after[kind] {
			t.Errorf("kind %v: configuration changed after failed reload: %+v -> %+v", kind, before[kind], after[kind])
		}
	}
}

// TestConcurrentSnapshotDuringReload exercises the non-tearing guarantee:
// readers must always observe either the pre-reload or post-reload
// Configuration as a whole, never a mix of the two.
func TestConcurrentSnapshotDuringReload(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, fullDoc)
	store, err := NewStore(path, logging.WithComponent("test"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				snap := store.Snapshot()
				base := snap[linkkind.BaseToRover].BaseLatencyMS
				if base != 1200 && base != 999 {
					t.Errorf("observed torn/unexpected BaseLatencyMS %v", base)
				}
			}
		}
	}()

	for i := 0; i < 5; i++ {
		contents := fullDoc
		if i%2 == 1 {
			contents = `
link "earth_to_earth" { base_latency_ms = 1 }
link "earth_to_moon" { base_latency_ms = 999 }
link "moon_to_earth" { base_latency_ms = 1300 }
link "moon_to_moon" { base_latency_ms = 25 }
`
		}
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			t.Fatalf("rewriting config: %v", err)
		}
		if err := store.Reload(); err != nil {
			t.Fatalf("Reload: %v", err)
		}
	}

	close(stop)
	wg.Wait()
}
