package palette

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Max は24bitカラーの最大値
const Max Colour = 0xFFFFFF

// Colour は 0xRRGGBB 形式の24bitカラー
type Colour uint32

// FromRGB は各チャネルから Colour を組み立てる
func FromRGB(r, g, b uint8) Colour {
	return Colour(r)<<16 | Colour(g)<<8 | Colour(b)
}

// RGB は各チャネルを返す
func (c Colour) RGB() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// Colorful は go-colorful の Color に変換する
func (c Colour) Colorful() colorful.Color {
	r, g, b := c.RGB()
	return colorful.Color{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
	}
}

// Hex は "#rrggbb" 形式の文字列を返す
func (c Colour) Hex() string {
	return c.Colorful().Hex()
}

// Valid は24bitの範囲に収まっているかを返す
func (c Colour) Valid() bool {
	return c <= Max
}

func (c Colour) String() string {
	return fmt.Sprintf("0x%06X", uint32(c))
}

// Palette は色生成ルールの種類
type Palette int

const (
	// PaletteA は奇数サイクルの黄〜緑グラデーション
	PaletteA Palette = iota
	// PaletteB は偶数サイクルの赤〜青グラデーション
	PaletteB
)

func (p Palette) String() string {
	switch p {
	case PaletteA:
		return "A"
	case PaletteB:
		return "B"
	default:
		return "unknown"
	}
}

// For はサイクル数に対応するパレットを返す
func For(cycle uint64) Palette {
	if cycle%2 == 1 {
		return PaletteA
	}
	return PaletteB
}

// Colorize はサイクル数・ワーカー番号・総数から色を計算する
// index は [0, total) の範囲、total > 0 が前提
func Colorize(cycle uint64, index, total int) Colour {
	if For(cycle) == PaletteA {
		return Yellow(index, total)
	}
	return Gradient(index, total)
}

// Yellow はパレットAの色を返す（赤255固定、緑がワーカー比率で変化）
func Yellow(index, total int) Colour {
	green := scale(index, total)
	return FromRGB(255, green, 0)
}

// Gradient はパレットBの色を返す（赤から青へのグラデーション）
func Gradient(index, total int) Colour {
	red := scale(total-index, total)
	blue := scale(index, total)
	return FromRGB(red, 0, blue)
}

// scale は floor(255 * n / total) を [0, 255] に収めて返す
func scale(n, total int) uint8 {
	if total <= 0 || n <= 0 {
		return 0
	}
	v := 255 * int64(n) / int64(total)
	if v > 255 {
		v = 255
	}
	return uint8(v)
}
