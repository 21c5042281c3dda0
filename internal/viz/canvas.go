package viz

import "strings"

const brailleBlank = 0x2800

// Braille cells are 2x4 dots:
//
//	1 4
//	2 5
//	3 6
//	7 8
var dotBits = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a grid of braille cells addressed in dot coordinates. A canvas
// of Width x Height cells has PixelWidth x PixelHeight dots.
type Canvas struct {
	Width, Height int
	cells         [][]rune
}

func NewCanvas(w, h int) *Canvas {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	c := &Canvas{Width: w, Height: h, cells: make([][]rune, h)}
	for i := range c.cells {
		c.cells[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) PixelWidth() int  { return c.Width * 2 }
func (c *Canvas) PixelHeight() int { return c.Height * 4 }

// dot resolves a dot coordinate to its cell and bit. ok is false off-canvas.
func (c *Canvas) dot(x, y int) (row, col int, bit rune, ok bool) {
	if x < 0 || y < 0 {
		return 0, 0, 0, false
	}
	row, col = y/4, x/2
	if row >= c.Height || col >= c.Width {
		return 0, 0, 0, false
	}
	return row, col, dotBits[y%4][x%2], true
}

func (c *Canvas) Set(x, y int) {
	if row, col, bit, ok := c.dot(x, y); ok {
		c.cells[row][col] |= bit
	}
}

func (c *Canvas) Unset(x, y int) {
	if row, col, bit, ok := c.dot(x, y); ok {
		c.cells[row][col] &^= bit
	}
}

// IsSet reports whether the dot at (x, y) is lit.
func (c *Canvas) IsSet(x, y int) bool {
	row, col, bit, ok := c.dot(x, y)
	return ok && c.cells[row][col]&bit != 0
}

// Lit counts lit dots.
func (c *Canvas) Lit() int {
	n := 0
	for _, row := range c.cells {
		for _, r := range row {
			for bits := r - brailleBlank; bits != 0; bits &= bits - 1 {
				n++
			}
		}
	}
	return n
}

func (c *Canvas) Clear() {
	for _, row := range c.cells {
		for j := range row {
			row[j] = brailleBlank
		}
	}
}

// DrawLine plots a Bresenham line between two dots. Off-canvas segments
// are clipped dot by dot.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), -absInt(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// Lines returns the canvas rows without trailing newlines.
func (c *Canvas) Lines() []string {
	out := make([]string, len(c.cells))
	for i, row := range c.cells {
		out[i] = string(row)
	}
	return out
}

func (c *Canvas) String() string {
	return strings.Join(c.Lines(), "\n")
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
