// Package braille implements ports.Surface on a terminal grid where every
// cell is a 2x4 braille dot matrix. Colours are ignored; the caller styles
// the resulting rows.
package braille

import (
	"image/color"
	"math"
	"strings"

	"ecgrisk/ports"
)

const brailleBase = 0x2800

// dot bit for (x%2, y%4) inside a cell
var dots = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Canvas is cols x rows character cells, 2*cols x 4*rows dots.
type Canvas struct {
	cols, rows int
	cells      [][]rune
	text       map[int]map[int]rune
}

// New returns an empty canvas.
func New(cols, rows int) *Canvas {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	c := &Canvas{cols: cols, rows: rows}
	c.Clear(nil)
	return c
}

// Size is in dots.
func (c *Canvas) Size() (int, int) { return c.cols * 2, c.rows * 4 }

func (c *Canvas) Clear(color.Color) {
	c.cells = make([][]rune, c.rows)
	for i := range c.cells {
		c.cells[i] = make([]rune, c.cols)
	}
	c.text = map[int]map[int]rune{}
}

// DrawLine ignores width; a terminal dot is the finest pen.
func (c *Canvas) DrawLine(a, b ports.Point, _ color.Color, _ float64) {
	dx, dy := b.X-a.X, b.Y-a.Y
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps == 0 {
		c.Set(a.X, a.Y)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		c.Set(a.X+dx*t, a.Y+dy*t)
	}
}

func (c *Canvas) StrokePath(pts []ports.Point, col color.Color, width float64) {
	if len(pts) == 1 {
		c.Set(pts[0].X, pts[0].Y)
	}
	for i := 1; i < len(pts); i++ {
		c.DrawLine(pts[i-1], pts[i], col, width)
	}
}

// DrawText overlays characters; at is in dots and snaps to the cell grid.
func (c *Canvas) DrawText(at ports.Point, text string, _ color.Color) {
	row := int(at.Y) / 4
	col := int(at.X) / 2
	if row < 0 || row >= c.rows {
		return
	}
	if c.text[row] == nil {
		c.text[row] = map[int]rune{}
	}
	for _, r := range text {
		if col >= c.cols {
			break
		}
		if col >= 0 {
			c.text[row][col] = r
		}
		col++
	}
}

// Set turns on the dot at (x, y); out-of-range dots are dropped.
func (c *Canvas) Set(x, y float64) {
	px, py := int(math.Round(x)), int(math.Round(y))
	w, h := c.Size()
	if px < 0 || py < 0 || px >= w || py >= h {
		return
	}
	c.cells[py/4][px/2] |= dots[py%4][px%2]
}

// Rows renders each cell row as a string.
func (c *Canvas) Rows() []string {
	out := make([]string, c.rows)
	for y, row := range c.cells {
		var sb strings.Builder
		for x, bits := range row {
			if r, ok := c.text[y][x]; ok {
				sb.WriteRune(r)
				continue
			}
			sb.WriteRune(brailleBase + bits)
		}
		out[y] = sb.String()
	}
	return out
}

// String joins Rows with newlines.
func (c *Canvas) String() string {
	return strings.Join(c.Rows(), "\n")
}
