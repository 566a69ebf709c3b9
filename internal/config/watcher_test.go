package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

const watcherTestConfig = `
server:
  listen_addr: ":8080"
audio:
  device: synth
`

func writeConfigFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestWatcher_InitialLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "voxscore.yaml")
	writeConfigFile(t, path, watcherTestConfig)

	w, err := NewWatcher(path, nil, WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	if got := w.Current().Audio.Device; got != DeviceSynth {
		t.Errorf("Current().Audio.Device = %q, want synth", got)
	}
}

func TestWatcher_InitialLoadFails(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "voxscore.yaml")
	writeConfigFile(t, path, "audio:\n  device: tape\n")

	if _, err := NewWatcher(path, nil); err == nil {
		t.Fatal("NewWatcher with invalid config: want error, got nil")
	}
}

func TestWatcher_ReloadOnChange(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "voxscore.yaml")
	writeConfigFile(t, path, watcherTestConfig)

	var (
		mu     sync.Mutex
		gotOld *Config
		gotNew *Config
	)
	changed := make(chan struct{}, 1)

	w, err := NewWatcher(path, func(old, new *Config) {
		mu.Lock()
		gotOld, gotNew = old, new
		mu.Unlock()
		select {
		case changed <- struct{}{}:
		default:
		}
	}, WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	// Ensure a different mtime even on coarse-grained filesystems.
	time.Sleep(20 * time.Millisecond)
	writeConfigFile(t, path, "server:\n  listen_addr: \":9091\"\naudio:\n  device: synth\n")
	future := time.Now().Add(time.Second)
	_ = os.Chtimes(path, future, future)

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}

	mu.Lock()
	defer mu.Unlock()
	if gotOld == nil || gotOld.Server.ListenAddr != ":8080" {
		t.Errorf("onChange old = %+v, want previous config", gotOld)
	}
	if gotNew == nil || gotNew.Server.ListenAddr != ":9091" {
		t.Errorf("onChange new = %+v, want reloaded config", gotNew)
	}
	if w.Current().Server.ListenAddr != ":9091" {
		t.Errorf("Current() = %q, want :9091", w.Current().Server.ListenAddr)
	}
}

func TestWatcher_InvalidReloadKeepsOld(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "voxscore.yaml")
	writeConfigFile(t, path, watcherTestConfig)

	w, err := NewWatcher(path, nil, WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	writeConfigFile(t, path, "store:\n  backend: floppy\n")
	future := time.Now().Add(time.Second)
	_ = os.Chtimes(path, future, future)

	// Give the poller a few cycles to notice the broken file.
	time.Sleep(100 * time.Millisecond)

	if got := w.Current().Audio.Device; got != DeviceSynth {
		t.Errorf("Current() after invalid reload = %q, want original synth config", got)
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "voxscore.yaml")
	writeConfigFile(t, path, watcherTestConfig)

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	w.Stop()
	w.Stop()
}
