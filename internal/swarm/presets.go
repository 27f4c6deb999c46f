package swarm

import (
	"time"

	"pixel-swarm/internal/transport"
)

// ReferenceScenario は標準の設定を返す
// 100ワーカー、10x10グリッド、9秒の分散、9秒周期
func ReferenceScenario() Config {
	return DefaultConfig()
}

// QuickScenario は短時間の動作確認用シナリオを返す
func QuickScenario() Config {
	return Config{
		Name:          "quick",
		Description:   "16 workers on a 4x4 grid, fast cycle, stops after 10s",
		Address:       DefaultAddress,
		Driver:        transport.DriverXNet,
		Workers:       16,
		StartWindow:   1 * time.Second,
		CycleInterval: 1 * time.Second,
		Duration:      10 * time.Second,
	}
}

// DenseScenario は高密度・高頻度のシナリオを返す
func DenseScenario() Config {
	return Config{
		Name:          "dense",
		Description:   "400 workers on a 20x20 grid, 3s cycle",
		Address:       DefaultAddress,
		Driver:        transport.DriverXNet,
		Workers:       400,
		StartWindow:   9 * time.Second,
		CycleInterval: 3 * time.Second,
	}
}

// SparseScenario は少数ワーカーのシナリオを返す
func SparseScenario() Config {
	return Config{
		Name:          "sparse",
		Description:   "9 workers on a 3x3 grid, reference timing",
		Address:       DefaultAddress,
		Driver:        transport.DriverXNet,
		Workers:       9,
		StartWindow:   9 * time.Second,
		CycleInterval: 9 * time.Second,
	}
}

var presets = map[string]func() Config{
	"reference": ReferenceScenario,
	"quick":     QuickScenario,
	"dense":     DenseScenario,
	"sparse":    SparseScenario,
}

// GetPreset は名前からプリセットを取得する
func GetPreset(name string) (Config, bool) {
	if fn, ok := presets[name]; ok {
		return fn(), true
	}
	return Config{}, false
}

// ListPresets は利用可能なプリセット名を返す
func ListPresets() []string {
	return []string{"reference", "quick", "dense", "sparse"}
}
