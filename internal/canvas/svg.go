package canvas

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"
)

// RenderSVG はキャンバスを1セル cell ピクセルの SVG として書き出す
func RenderSVG(w io.Writer, s *Store, cell int) {
	if cell <= 0 {
		cell = 10
	}
	width, height := s.Bounds()

	doc := svg.New(w)
	doc.Start(width*cell, height*cell)
	doc.Rect(0, 0, width*cell, height*cell, "fill:#000000")
	for _, px := range s.All() {
		doc.Rect(px.X*cell, px.Y*cell, cell, cell,
			fmt.Sprintf("fill:%s", px.Colour.Hex()))
	}
	doc.End()
}
