package render

import (
	"image/color"
	"reflect"

	"ecgrisk/ports"
)

// Default surface geometry and colours.
const (
	DefaultWidth       = 600
	DefaultHeight      = 200
	DefaultGridSpacing = 20
	AmplitudeScale     = 0.4
)

var (
	DefaultStroke     = color.RGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff}
	DefaultBackground = color.RGBA{R: 0x0f, G: 0x17, B: 0x2a, A: 0xff}
	DefaultGrid       = color.RGBA{R: 0x1e, G: 0x29, B: 0x3b, A: 0xff}
	DefaultCaption    = color.RGBA{R: 0xe2, G: 0xe8, B: 0xf0, A: 0xff}
)

// WaveformOptions configures a Waveform.
type WaveformOptions struct {
	Width       int
	Height      int
	Color       color.Color
	Title       string
	Background  color.Color
	GridColor   color.Color
	GridSpacing int
	ShowGrid    bool
	LineWidth   float64
}

// DefaultWaveformOptions returns a 600x200 blue trace on a dark clinical grid.
func DefaultWaveformOptions() WaveformOptions {
	return WaveformOptions{
		Width:       DefaultWidth,
		Height:      DefaultHeight,
		Color:       DefaultStroke,
		Background:  DefaultBackground,
		GridColor:   DefaultGrid,
		GridSpacing: DefaultGridSpacing,
		ShowGrid:    true,
		LineWidth:   2,
	}
}

func (o WaveformOptions) withDefaults() WaveformOptions {
	d := DefaultWaveformOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.Color == nil {
		o.Color = d.Color
	}
	if o.Background == nil {
		o.Background = d.Background
	}
	if o.GridColor == nil {
		o.GridColor = d.GridColor
	}
	if o.GridSpacing <= 0 {
		o.GridSpacing = d.GridSpacing
	}
	if o.LineWidth <= 0 {
		o.LineWidth = d.LineWidth
	}
	return o
}

// Waveform paints a scrolling window of a signal.
type Waveform struct {
	opts WaveformOptions
}

// NewWaveform creates a renderer; zero option fields take their defaults.
func NewWaveform(opts WaveformOptions) *Waveform {
	return &Waveform{opts: opts.withDefaults()}
}

// Options returns the effective options.
func (w *Waveform) Options() WaveformOptions { return w.opts }

// Render draws samples[start:start+windowLen] onto s, clamped to the sample
// bounds. A nil surface is a silent no-op; the next redraw checks again.
func (w *Waveform) Render(s ports.Surface, samples []float64, start, windowLen int) {
	if start < 0 {
		start = 0
	}
	if start > len(samples) {
		start = len(samples)
	}
	end := start + windowLen
	if windowLen < 0 || end > len(samples) {
		end = len(samples)
	}
	w.RenderWindow(s, samples[start:end])
}

// RenderWindow draws an already sliced visible window.
func (w *Waveform) RenderWindow(s ports.Surface, window []float64) {
	if Detached(s) {
		return
	}
	width, height := s.Size()
	if width <= 0 || height <= 0 {
		return
	}

	s.Clear(w.opts.Background)
	if w.opts.ShowGrid {
		Grid(s, w.opts.GridSpacing, w.opts.GridColor)
	}
	if pts := Polyline(window, width, height); len(pts) > 0 {
		s.StrokePath(pts, w.opts.Color, w.opts.LineWidth)
	}
	if w.opts.Title != "" {
		Caption(s, Point(8, 16), w.opts.Title, DefaultCaption)
	}
}

// WithGrid returns a copy of the renderer with the grid switched on or off.
func (w *Waveform) WithGrid(on bool) *Waveform {
	opts := w.opts
	opts.ShowGrid = on
	return &Waveform{opts: opts}
}

// Grid strokes vertical and horizontal lines every spacing pixels.
func Grid(s ports.Surface, spacing int, c color.Color) {
	if spacing <= 0 {
		return
	}
	width, height := s.Size()
	for x := 0; x <= width; x += spacing {
		s.DrawLine(Point(float64(x), 0), Point(float64(x), float64(height)), c, 1)
	}
	for y := 0; y <= height; y += spacing {
		s.DrawLine(Point(0, float64(y)), Point(float64(width), float64(y)), c, 1)
	}
}

// Polyline maps samples onto the surface: x spans the full width and
// y = height/2 + v*height*0.4.
func Polyline(samples []float64, width, height int) []ports.Point {
	if len(samples) == 0 {
		return nil
	}
	mid := float64(height) / 2
	scale := float64(height) * AmplitudeScale

	pts := make([]ports.Point, len(samples))
	if len(samples) == 1 {
		pts[0] = Point(0, mid+samples[0]*scale)
		return pts
	}
	step := float64(width) / float64(len(samples)-1)
	for i, v := range samples {
		pts[i] = Point(float64(i)*step, mid+v*scale)
	}
	return pts
}

// Detached reports whether s is nil, including a nil pointer stored in the
// interface.
func Detached(s ports.Surface) bool {
	if s == nil {
		return true
	}
	v := reflect.ValueOf(s)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// Caption writes text when the surface supports it.
func Caption(s ports.Surface, at ports.Point, text string, c color.Color) {
	if ts, ok := s.(ports.TextSurface); ok {
		ts.DrawText(at, text, c)
	}
}

// Point is shorthand for ports.Point{X: x, Y: y}.
func Point(x, y float64) ports.Point {
	return ports.Point{X: x, Y: y}
}
