package render

import (
	"image/color"

	"ecgrisk/ports"
)

// Op is one recorded drawing call.
type Op struct {
	Kind   string
	Points []ports.Point
	Color  color.Color
	Width  float64
	Text   string
}

// Recorder is a TextSurface that records calls instead of drawing. Tests and
// the headless CLI use it to inspect what a redraw would produce.
type Recorder struct {
	W, H int
	Ops  []Op
}

// NewRecorder returns an empty recorder of the given size.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{W: width, H: height}
}

func (r *Recorder) Size() (int, int) { return r.W, r.H }

func (r *Recorder) Clear(c color.Color) {
	r.Ops = append(r.Ops, Op{Kind: "clear", Color: c})
}

func (r *Recorder) DrawLine(a, b ports.Point, c color.Color, width float64) {
	r.Ops = append(r.Ops, Op{Kind: "line", Points: []ports.Point{a, b}, Color: c, Width: width})
}

func (r *Recorder) StrokePath(pts []ports.Point, c color.Color, width float64) {
	cp := make([]ports.Point, len(pts))
	copy(cp, pts)
	r.Ops = append(r.Ops, Op{Kind: "path", Points: cp, Color: c, Width: width})
}

func (r *Recorder) DrawText(at ports.Point, text string, c color.Color) {
	r.Ops = append(r.Ops, Op{Kind: "text", Points: []ports.Point{at}, Color: c, Text: text})
}

// Count returns how many ops of kind were recorded.
func (r *Recorder) Count(kind string) int {
	n := 0
	for _, op := range r.Ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Paths returns the recorded polylines in order.
func (r *Recorder) Paths() [][]ports.Point {
	var out [][]ports.Point
	for _, op := range r.Ops {
		if op.Kind == "path" {
			out = append(out, op.Points)
		}
	}
	return out
}

// Reset drops recorded ops.
func (r *Recorder) Reset() { r.Ops = r.Ops[:0] }
