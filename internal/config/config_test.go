package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Simulation.ErrorProbability != 0.45 {
		t.Errorf("ErrorProbability = %v, want 0.45", cfg.Simulation.ErrorProbability)
	}
	if cfg.Simulation.DelaysMs.Perception != 700 {
		t.Errorf("Perception delay = %d, want 700", cfg.Simulation.DelaysMs.Perception)
	}
	if cfg.Simulation.DelaysMs.Planning != 1000 {
		t.Errorf("Planning delay = %d, want 1000", cfg.Simulation.DelaysMs.Planning)
	}
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want default 8080", cfg.Server.Port)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
port = 9999

[simulation]
error_probability = 0.1

[simulation.delays_ms]
perception = 5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Simulation.ErrorProbability != 0.1 {
		t.Errorf("ErrorProbability = %v, want 0.1", cfg.Simulation.ErrorProbability)
	}
	if cfg.Simulation.DelaysMs.Perception != 5 {
		t.Errorf("Perception delay = %d, want 5", cfg.Simulation.DelaysMs.Perception)
	}
	// Untouched keys keep defaults
	if cfg.Simulation.DelaysMs.Planning != 1000 {
		t.Errorf("Planning delay = %d, want default 1000", cfg.Simulation.DelaysMs.Planning)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("not [valid"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() on invalid TOML should fail")
	}
}

func TestSimConfig_Conversion(t *testing.T) {
	cfg := Default()
	cfg.Simulation.DelaysMs.Perception = 5
	cfg.Simulation.ErrorProbability = 0.2

	sc := cfg.SimConfig()
	if sc.Timings.Perception != 5*time.Millisecond {
		t.Errorf("Perception = %v, want 5ms", sc.Timings.Perception)
	}
	if sc.ErrorProbability != 0.2 {
		t.Errorf("ErrorProbability = %v, want 0.2", sc.ErrorProbability)
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	if got := ExpandPath("~/x.db"); got != filepath.Join(home, "x.db") {
		t.Errorf("ExpandPath(~/x.db) = %q", got)
	}
	if got := ExpandPath("/abs/x.db"); got != "/abs/x.db" {
		t.Errorf("ExpandPath(/abs/x.db) = %q, want unchanged", got)
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[server]\nport = 1111\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(path, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	// Give the watcher a moment before writing
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("[server]\nport = 2222\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Server.Port != 2222 {
			t.Errorf("reloaded Port = %d, want 2222", cfg.Server.Port)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload observed")
	}
}
