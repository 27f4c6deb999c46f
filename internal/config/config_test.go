package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"pixel-swarm/internal/swarm"
	"pixel-swarm/internal/transport"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	return path
}

func TestLoadFileYAML(t *testing.T) {
	content := `
swarm:
  name: lab
  description: Lab canvas
  address: ws://canvas.local:3001/ws
  driver: gorilla
  workers: 64
  start_window: 4s
  cycle_interval: 2s
  max_cycles: 10
  duration: 1m
`
	cfg, err := LoadFile(writeConfig(t, "config.yaml", content))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Swarm.Name != "lab" {
		t.Errorf("expected name 'lab', got '%s'", cfg.Swarm.Name)
	}
	if cfg.Swarm.Workers != 64 {
		t.Errorf("expected workers 64, got %d", cfg.Swarm.Workers)
	}
	if cfg.Swarm.MaxCycles != 10 {
		t.Errorf("expected max_cycles 10, got %d", cfg.Swarm.MaxCycles)
	}
	if cfg.Swarm.CycleInterval != "2s" {
		t.Errorf("expected cycle_interval '2s', got '%s'", cfg.Swarm.CycleInterval)
	}
}

func TestLoadFileJSON(t *testing.T) {
	content := `{
  "swarm": {
    "name": "json-test",
    "preset": "sparse",
    "workers": 25
  }
}`
	cfg, err := LoadFile(writeConfig(t, "config.json", content))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Swarm.Name != "json-test" {
		t.Errorf("expected name 'json-test', got '%s'", cfg.Swarm.Name)
	}
	if cfg.Swarm.Preset != "sparse" {
		t.Errorf("expected preset 'sparse', got '%s'", cfg.Swarm.Preset)
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := LoadFile("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadFileUnsupportedFormat(t *testing.T) {
	_, err := LoadFile(writeConfig(t, "config.txt", "test"))
	if err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestLoadFileMalformed(t *testing.T) {
	_, err := LoadFile(writeConfig(t, "config.yaml", "swarm: [unterminated"))
	if err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestToSwarmConfig(t *testing.T) {
	cfg := &FileConfig{
		Swarm: SwarmConfig{
			Name:          "test",
			Address:       "ws://127.0.0.1:9000/ws",
			Driver:        "gorilla",
			Workers:       49,
			StartWindow:   "3s",
			CycleInterval: "1500ms",
			MaxCycles:     4,
			Duration:      "30s",
		},
	}

	sc, err := cfg.ToSwarmConfig()
	if err != nil {
		t.Fatalf("failed to convert config: %v", err)
	}

	if sc.Name != "test" {
		t.Errorf("expected name 'test', got '%s'", sc.Name)
	}
	if sc.Address != "ws://127.0.0.1:9000/ws" {
		t.Errorf("unexpected address %s", sc.Address)
	}
	if sc.Driver != transport.DriverGorilla {
		t.Errorf("expected gorilla driver, got %s", sc.Driver)
	}
	if sc.Workers != 49 {
		t.Errorf("expected workers 49, got %d", sc.Workers)
	}
	if sc.StartWindow != 3*time.Second {
		t.Errorf("expected start window 3s, got %v", sc.StartWindow)
	}
	if sc.CycleInterval != 1500*time.Millisecond {
		t.Errorf("expected cycle interval 1.5s, got %v", sc.CycleInterval)
	}
	if sc.MaxCycles != 4 {
		t.Errorf("expected max cycles 4, got %d", sc.MaxCycles)
	}
	if sc.Duration != 30*time.Second {
		t.Errorf("expected duration 30s, got %v", sc.Duration)
	}
	if err := sc.Validate(); err != nil {
		t.Errorf("converted config should be valid: %v", err)
	}
}

func TestToSwarmConfigDefaults(t *testing.T) {
	cfg := &FileConfig{}

	sc, err := cfg.ToSwarmConfig()
	if err != nil {
		t.Fatalf("failed to convert config: %v", err)
	}

	def := swarm.DefaultConfig()
	if sc.Workers != def.Workers || sc.Address != def.Address ||
		sc.StartWindow != def.StartWindow || sc.CycleInterval != def.CycleInterval {
		t.Errorf("empty file should yield defaults, got %+v", sc)
	}
}

func TestToSwarmConfigPresetBase(t *testing.T) {
	cfg := &FileConfig{
		Swarm: SwarmConfig{Preset: "quick", Workers: 36},
	}

	sc, err := cfg.ToSwarmConfig()
	if err != nil {
		t.Fatalf("failed to convert config: %v", err)
	}

	quick := swarm.QuickScenario()
	if sc.Workers != 36 {
		t.Errorf("expected file value to win over preset, got %d workers", sc.Workers)
	}
	if sc.CycleInterval != quick.CycleInterval {
		t.Errorf("expected preset cycle interval %v, got %v", quick.CycleInterval, sc.CycleInterval)
	}
}

func TestToSwarmConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		config SwarmConfig
	}{
		{"invalid duration", SwarmConfig{Duration: "invalid"}},
		{"invalid start window", SwarmConfig{StartWindow: "soon"}},
		{"invalid cycle interval", SwarmConfig{CycleInterval: "9"}},
		{"unknown driver", SwarmConfig{Driver: "carrier-pigeon"}},
		{"unknown preset", SwarmConfig{Preset: "huge"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &FileConfig{Swarm: tt.config}
			if _, err := cfg.ToSwarmConfig(); err == nil {
				t.Error("expected conversion error")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		config   FileConfig
		hasError bool
	}{
		{
			name:     "valid config",
			config:   FileConfig{},
			hasError: false,
		},
		{
			name: "secure address",
			config: FileConfig{
				Swarm: SwarmConfig{Address: "wss://canvas.example.com/ws"},
			},
			hasError: false,
		},
		{
			name: "negative workers",
			config: FileConfig{
				Swarm: SwarmConfig{Workers: -1},
			},
			hasError: true,
		},
		{
			name: "http address",
			config: FileConfig{
				Swarm: SwarmConfig{Address: "http://localhost:3001/ws"},
			},
			hasError: true,
		},
		{
			name: "unknown driver",
			config: FileConfig{
				Swarm: SwarmConfig{Driver: "raw"},
			},
			hasError: true,
		},
		{
			name: "unknown preset",
			config: FileConfig{
				Swarm: SwarmConfig{Preset: "nope"},
			},
			hasError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.hasError && err == nil {
				t.Error("expected validation error")
			}
			if !tt.hasError && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}
