package models

import "fmt"

// PixelGrid is the unfiltered image data: Rows scanlines of Cols bytes each,
// without the per-row filter-type byte. Rows are stored back to back in Pix.
type PixelGrid struct {
	Rows int
	Cols int
	// Stride is the number of bytes per pixel.
	Stride int
	Pix    []byte
}

func NewPixelGrid(rows, cols, stride int) *PixelGrid {
	return &PixelGrid{
		Rows:   rows,
		Cols:   cols,
		Stride: stride,
		Pix:    make([]byte, rows*cols),
	}
}

// Row returns scanline y as a slice aliasing the grid's storage.
func (g *PixelGrid) Row(y int) []byte {
	return g.Pix[y*g.Cols : (y+1)*g.Cols]
}

// Len is the number of image bytes in the grid.
func (g *PixelGrid) Len() int {
	return len(g.Pix)
}

func (g *PixelGrid) Clone() *PixelGrid {
	pix := make([]byte, len(g.Pix))
	copy(pix, g.Pix)
	return &PixelGrid{Rows: g.Rows, Cols: g.Cols, Stride: g.Stride, Pix: pix}
}

func (g *PixelGrid) String() string {
	return fmt.Sprintf("%dx%d grid (stride %d)", g.Rows, g.Cols, g.Stride)
}
