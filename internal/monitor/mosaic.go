package monitor

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"pixel-swarm/internal/grid"
	"pixel-swarm/internal/palette"
)

// cellWidth は1セルあたりの文字数（端末の縦横比を補正）
const cellWidth = 2

var emptyCell = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))

// Cells は座標ごとの色
type Cells map[grid.Coordinate]palette.Colour

// MosaicCells は指定サイクルで全ワーカーが塗る色を計算する
func MosaicCells(total int, cycle uint64) Cells {
	cells := make(Cells, total)
	for i := range total {
		cells[grid.Map(i, total)] = palette.Colorize(cycle, i, total)
	}
	return cells
}

// Render はセルをグリッド状に描画する。未描画セルは "··" で表示する
func Render(cells Cells, width, height int) string {
	var b strings.Builder
	for y := range height {
		for x := range width {
			colour, ok := cells[grid.Coordinate{X: x, Y: y}]
			if !ok {
				b.WriteString(emptyCell.Render(strings.Repeat("·", cellWidth)))
				continue
			}
			style := lipgloss.NewStyle().Background(lipgloss.Color(colour.Hex()))
			b.WriteString(style.Render(strings.Repeat(" ", cellWidth)))
		}
		if y < height-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// RenderMosaic は total ワーカーが cycle 回目に描くモザイクを返す
func RenderMosaic(total int, cycle uint64) string {
	width, height := grid.Bounds(total)
	return Render(MosaicCells(total, cycle), width, height)
}
