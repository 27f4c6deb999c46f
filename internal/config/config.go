package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"pixel-swarm/internal/swarm"
	"pixel-swarm/internal/transport"
)

// FileConfig は設定ファイルの構造
type FileConfig struct {
	Swarm SwarmConfig `yaml:"swarm" json:"swarm"`
}

// SwarmConfig はスウォーム設定
// 時間は "9s" のような time.ParseDuration 形式の文字列で書く
type SwarmConfig struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Preset      string `yaml:"preset" json:"preset"`

	Address string `yaml:"address" json:"address"`
	Driver  string `yaml:"driver" json:"driver"`
	Origin  string `yaml:"origin" json:"origin"`

	Workers       int    `yaml:"workers" json:"workers"`
	StartWindow   string `yaml:"start_window" json:"start_window"`
	CycleInterval string `yaml:"cycle_interval" json:"cycle_interval"`
	MaxCycles     uint64 `yaml:"max_cycles" json:"max_cycles"`
	Duration      string `yaml:"duration" json:"duration"`
}

// LoadFile は設定ファイルを読み込む
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config FileConfig
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	return &config, nil
}

// ToSwarmConfig は FileConfig を swarm.Config に変換する
// preset があればそれを、なければデフォルト設定を土台にする
func (f *FileConfig) ToSwarmConfig() (swarm.Config, error) {
	base := swarm.DefaultConfig()
	if f.Swarm.Preset != "" {
		preset, ok := swarm.GetPreset(f.Swarm.Preset)
		if !ok {
			return base, fmt.Errorf("unknown preset: %s (available: %v)", f.Swarm.Preset, swarm.ListPresets())
		}
		base = preset
	}
	return f.ApplyTo(base)
}

// ApplyTo はファイルに書かれた項目だけを base に上書きする
func (f *FileConfig) ApplyTo(base swarm.Config) (swarm.Config, error) {
	sc := f.Swarm
	config := base

	if sc.Name != "" {
		config.Name = sc.Name
	}
	if sc.Description != "" {
		config.Description = sc.Description
	}
	if sc.Address != "" {
		config.Address = sc.Address
	}
	if sc.Driver != "" {
		d, err := transport.ParseDriver(sc.Driver)
		if err != nil {
			return config, err
		}
		config.Driver = d
	}
	if sc.Origin != "" {
		config.Origin = sc.Origin
	}
	if sc.Workers > 0 {
		config.Workers = sc.Workers
	}
	if sc.MaxCycles > 0 {
		config.MaxCycles = sc.MaxCycles
	}

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"start_window", sc.StartWindow, &config.StartWindow},
		{"cycle_interval", sc.CycleInterval, &config.CycleInterval},
		{"duration", sc.Duration, &config.Duration},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		v, err := time.ParseDuration(d.value)
		if err != nil {
			return config, fmt.Errorf("invalid %s: %w", d.name, err)
		}
		*d.dst = v
	}

	return config, nil
}

// Validate は設定を検証する
func (f *FileConfig) Validate() error {
	sc := f.Swarm

	if sc.Workers < 0 {
		return fmt.Errorf("workers must be non-negative")
	}

	if sc.Address != "" && !strings.HasPrefix(sc.Address, "ws://") && !strings.HasPrefix(sc.Address, "wss://") {
		return fmt.Errorf("address must use ws:// or wss://, got %s", sc.Address)
	}

	if sc.Driver != "" {
		if _, err := transport.ParseDriver(sc.Driver); err != nil {
			return err
		}
	}

	if sc.Preset != "" {
		if _, ok := swarm.GetPreset(sc.Preset); !ok {
			return fmt.Errorf("unknown preset: %s", sc.Preset)
		}
	}

	return nil
}
