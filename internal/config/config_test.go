package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg != Default() {
		t.Errorf("cfg = %+v, want defaults %+v", cfg, Default())
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speedboard.yaml")
	data := []byte("port: 9090\ndelay_scale: 0.5\nseed: 42\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Port)
	}
	if cfg.DelayScale != 0.5 {
		t.Errorf("delay scale = %v, want 0.5", cfg.DelayScale)
	}
	if cfg.Seed != 42 {
		t.Errorf("seed = %d, want 42", cfg.Seed)
	}
	// Untouched fields keep defaults.
	if cfg.IPLookupURL != Default().IPLookupURL {
		t.Errorf("ip lookup url = %q, want default", cfg.IPLookupURL)
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("port: [not a port"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"zero port", func(c *Config) { c.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Port = 70000 }, true},
		{"negative delay scale", func(c *Config) { c.DelayScale = -1 }, true},
		{"zero delay scale is allowed", func(c *Config) { c.DelayScale = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWatchAppliesUpdates(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping filesystem watcher test in short mode")
	}

	path := filepath.Join(t.TempDir(), "speedboard.yaml")
	if err := os.WriteFile(path, []byte("port: 8080\ndelay_scale: 1.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	applied := make(chan Config, 4)
	go func() {
		if err := Watch(ctx, path, func(cfg Config) { applied <- cfg }); err != nil {
			t.Errorf("Watch failed: %v", err)
		}
	}()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("port: 8080\ndelay_scale: 0.25\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-applied:
		if cfg.DelayScale != 0.25 {
			t.Errorf("applied delay scale = %v, want 0.25", cfg.DelayScale)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("watcher never delivered the update")
	}
}
