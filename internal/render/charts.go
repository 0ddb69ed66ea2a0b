package render

import (
	"image/color"
	"math"

	"ecgrisk/ports"
)

// Palette cycles series colours for multi-series charts.
var Palette = []color.RGBA{
	{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff},
	{R: 0xef, G: 0x44, B: 0x44, A: 0xff},
	{R: 0x22, G: 0xc5, B: 0x5e, A: 0xff},
	{R: 0xf5, G: 0x9e, B: 0x0b, A: 0xff},
	{R: 0xa8, G: 0x55, B: 0xf7, A: 0xff},
}

// SeriesColor returns the palette colour for series i.
func SeriesColor(i int) color.RGBA {
	return Palette[i%len(Palette)]
}

// Series is one named line of values.
type Series struct {
	Name   string
	Values []float64
}

// Radar draws each series as a closed polygon over len(axes) spokes.
// Values are expected in [0,1]; anything outside is clamped.
func Radar(s ports.Surface, axes []string, series []Series) {
	if Detached(s) || len(axes) < 3 {
		return
	}
	width, height := s.Size()
	cx, cy := float64(width)/2, float64(height)/2
	radius := math.Min(cx, cy) * 0.75

	s.Clear(DefaultBackground)
	for ring := 1; ring <= 4; ring++ {
		r := radius * float64(ring) / 4
		s.StrokePath(closed(polygon(cx, cy, r, onesOf(len(axes)))), DefaultGrid, 1)
	}
	for i, name := range axes {
		tip := spoke(cx, cy, radius, i, len(axes))
		s.DrawLine(Point(cx, cy), tip, DefaultGrid, 1)
		Caption(s, spoke(cx, cy, radius*1.1, i, len(axes)), name, DefaultCaption)
	}
	for i, sr := range series {
		vals := make([]float64, len(axes))
		for j := range vals {
			if j < len(sr.Values) {
				vals[j] = clamp01(sr.Values[j])
			}
		}
		s.StrokePath(closed(polygon(cx, cy, radius, vals)), SeriesColor(i), 2)
	}
}

// LineChart draws series scaled to their joint min/max with a 10% margin.
func LineChart(s ports.Surface, series []Series) {
	if Detached(s) {
		return
	}
	width, height := s.Size()
	lo, hi, longest := math.Inf(1), math.Inf(-1), 0
	for _, sr := range series {
		for _, v := range sr.Values {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		if len(sr.Values) > longest {
			longest = len(sr.Values)
		}
	}

	s.Clear(DefaultBackground)
	Grid(s, DefaultGridSpacing*2, DefaultGrid)
	if longest == 0 {
		return
	}
	if hi == lo {
		hi, lo = hi+0.5, lo-0.5
	}

	mx, my := float64(width)*0.1, float64(height)*0.1
	plotW, plotH := float64(width)-2*mx, float64(height)-2*my
	for i, sr := range series {
		pts := make([]ports.Point, len(sr.Values))
		for j, v := range sr.Values {
			x := mx
			if longest > 1 {
				x += float64(j) * plotW / float64(longest-1)
			}
			y := my + plotH*(1-(v-lo)/(hi-lo))
			pts[j] = Point(x, y)
		}
		s.StrokePath(pts, SeriesColor(i), 2)
		Caption(s, Point(mx, my/2+float64(i)*12), sr.Name, SeriesColor(i))
	}
}

func spoke(cx, cy, r float64, i, n int) ports.Point {
	angle := -math.Pi/2 + 2*math.Pi*float64(i)/float64(n)
	return Point(cx+r*math.Cos(angle), cy+r*math.Sin(angle))
}

func polygon(cx, cy, radius float64, values []float64) []ports.Point {
	pts := make([]ports.Point, len(values))
	for i, v := range values {
		pts[i] = spoke(cx, cy, radius*v, i, len(values))
	}
	return pts
}

func closed(pts []ports.Point) []ports.Point {
	if len(pts) == 0 {
		return pts
	}
	return append(pts, pts[0])
}

func onesOf(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
