package canvas

import (
	"sort"
	"sync"

	"pixel-swarm/internal/command"
	"pixel-swarm/internal/grid"
	"pixel-swarm/internal/palette"
)

// Pixel は保存されたピクセル
// Updated は書き込み順の通し番号（後勝ち判定に使う）
type Pixel struct {
	X       int            `json:"x"`
	Y       int            `json:"y"`
	Colour  palette.Colour `json:"colour"`
	Updated uint64         `json:"updated"`
}

// Store はインメモリのキャンバス
type Store struct {
	mu      sync.RWMutex
	pixels  map[grid.Coordinate]Pixel
	updates uint64
}

// NewStore は空のキャンバスを作成する
func NewStore() *Store {
	return &Store{
		pixels: make(map[grid.Coordinate]Pixel),
	}
}

// Apply はピクセルを書き込み、保存された値を返す
func (s *Store) Apply(p command.Pixel) Pixel {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updates++
	px := Pixel{
		X:       p.X,
		Y:       p.Y,
		Colour:  p.Colour,
		Updated: s.updates,
	}
	s.pixels[p.Coordinate()] = px
	return px
}

// Get は座標のピクセルを返す
func (s *Store) Get(c grid.Coordinate) (Pixel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	px, ok := s.pixels[c]
	return px, ok
}

// All は全ピクセルを (y, x) 順で返す
func (s *Store) All() []Pixel {
	s.mu.RLock()
	pixels := make([]Pixel, 0, len(s.pixels))
	for _, px := range s.pixels {
		pixels = append(pixels, px)
	}
	s.mu.RUnlock()

	sort.Slice(pixels, func(i, j int) bool {
		if pixels[i].Y != pixels[j].Y {
			return pixels[i].Y < pixels[j].Y
		}
		return pixels[i].X < pixels[j].X
	})
	return pixels
}

// Bounds は描画済み領域の幅と高さを返す
func (s *Store) Bounds() (width, height int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for c := range s.pixels {
		if c.X+1 > width {
			width = c.X + 1
		}
		if c.Y+1 > height {
			height = c.Y + 1
		}
	}
	return width, height
}

// Size は描画済みセル数を返す
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pixels)
}

// Updates は書き込み総数を返す
func (s *Store) Updates() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updates
}

// Reset はキャンバスを空にする
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pixels = make(map[grid.Coordinate]Pixel)
	s.updates = 0
}
