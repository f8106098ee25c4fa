package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/autorl-dev/autorl/internal/sim"
)

// Config holds all application configuration
type Config struct {
	General       GeneralConfig       `toml:"general"`
	Server        ServerConfig        `toml:"server"`
	Simulation    SimulationConfig    `toml:"simulation"`
	Demo          DemoConfig          `toml:"demo"`
	Notifications NotificationsConfig `toml:"notifications"`
}

// GeneralConfig holds general settings
type GeneralConfig struct {
	DatabasePath string `toml:"database_path"`
}

// ServerConfig holds HTTP/WebSocket server settings
type ServerConfig struct {
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	HeartbeatSecs int    `toml:"heartbeat_secs"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SimulationConfig holds engine tunables. Delays are in milliseconds,
// matching the reference pacing table.
type SimulationConfig struct {
	ErrorProbability float64      `toml:"error_probability"`
	DelaysMs         DelaysConfig `toml:"delays_ms"`
}

// DelaysConfig holds the per-event delays in milliseconds
type DelaysConfig struct {
	Perception      int `toml:"perception"`
	Planning        int `toml:"planning"`
	ExecutionStart  int `toml:"execution_start"`
	Error           int `toml:"error"`
	RecoveryAnalyze int `toml:"recovery_analyze"`
	RecoveryPlan    int `toml:"recovery_plan"`
	RecoveryExecute int `toml:"recovery_execute"`
	Completed       int `toml:"completed"`
}

// DemoConfig holds demo-loop settings
type DemoConfig struct {
	Enabled       bool   `toml:"enabled"`
	Cron          string `toml:"cron"`
	ScenariosPath string `toml:"scenarios_path"`
}

// NotificationsConfig holds notification settings
type NotificationsConfig struct {
	Desktop      bool   `toml:"desktop"`
	SlackWebhook string `toml:"slack_webhook"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	home, _ := os.UserHomeDir()
	defaults := sim.DefaultConfig()
	return &Config{
		General: GeneralConfig{
			DatabasePath: filepath.Join(home, ".autorl", "fleet.db"),
		},
		Server: ServerConfig{
			Host:          "127.0.0.1",
			Port:          8080,
			HeartbeatSecs: 30,
		},
		Simulation: SimulationConfig{
			ErrorProbability: defaults.ErrorProbability,
			DelaysMs:         delaysFromTimings(defaults.Timings),
		},
		Demo: DemoConfig{
			Enabled: false,
			Cron:    "*/5 * * * *",
		},
		Notifications: NotificationsConfig{
			Desktop: false,
		},
	}
}

// Load reads configuration from a TOML file, falling back to defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.General.DatabasePath = ExpandPath(cfg.General.DatabasePath)
	cfg.Demo.ScenariosPath = ExpandPath(cfg.Demo.ScenariosPath)

	return cfg, nil
}

// SimConfig converts the simulation section to an engine configuration
func (c *Config) SimConfig() sim.Config {
	d := c.Simulation.DelaysMs
	return sim.Config{
		ErrorProbability: c.Simulation.ErrorProbability,
		Timings: sim.Timings{
			Perception:      time.Duration(d.Perception) * time.Millisecond,
			Planning:        time.Duration(d.Planning) * time.Millisecond,
			ExecutionStart:  time.Duration(d.ExecutionStart) * time.Millisecond,
			Error:           time.Duration(d.Error) * time.Millisecond,
			RecoveryAnalyze: time.Duration(d.RecoveryAnalyze) * time.Millisecond,
			RecoveryPlan:    time.Duration(d.RecoveryPlan) * time.Millisecond,
			RecoveryExecute: time.Duration(d.RecoveryExecute) * time.Millisecond,
			Completed:       time.Duration(d.Completed) * time.Millisecond,
		},
	}
}

func delaysFromTimings(t sim.Timings) DelaysConfig {
	return DelaysConfig{
		Perception:      int(t.Perception / time.Millisecond),
		Planning:        int(t.Planning / time.Millisecond),
		ExecutionStart:  int(t.ExecutionStart / time.Millisecond),
		Error:           int(t.Error / time.Millisecond),
		RecoveryAnalyze: int(t.RecoveryAnalyze / time.Millisecond),
		RecoveryPlan:    int(t.RecoveryPlan / time.Millisecond),
		RecoveryExecute: int(t.RecoveryExecute / time.Millisecond),
		Completed:       int(t.Completed / time.Millisecond),
	}
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// DefaultConfigPath returns the default config file location
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "autorl", "config.toml")
}
