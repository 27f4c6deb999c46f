package grid

import (
	"fmt"
	"math"
)

// Coordinate はグリッド上のセル位置
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("{%d, %d}", c.X, c.Y)
}

// Side はワーカー総数からグリッドの一辺を返す
// total が 0 以下の場合は 0
func Side(total int) int {
	if total <= 0 {
		return 0
	}
	side := int(math.Sqrt(float64(total)))
	// 浮動小数点誤差の補正
	for side*side > total {
		side--
	}
	for (side+1)*(side+1) <= total {
		side++
	}
	return side
}

// Map はワーカー番号を座標に変換する
// index >= 0, total > 0 が前提
func Map(index, total int) Coordinate {
	side := Side(total)
	if side == 0 {
		return Coordinate{}
	}
	return Coordinate{
		X: index % side,
		Y: index / side,
	}
}

// Bounds は末尾の不完全な行を含めたグリッドの幅と高さを返す
func Bounds(total int) (width, height int) {
	side := Side(total)
	if side == 0 {
		return 0, 0
	}
	return side, (total + side - 1) / side
}
