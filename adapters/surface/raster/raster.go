// Package raster implements ports.TextSurface on an in-memory RGBA image.
package raster

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"ecgrisk/ports"
)

// Surface draws onto an *image.RGBA.
type Surface struct {
	img *image.RGBA
}

// New allocates a width x height transparent surface.
func New(width, height int) *Surface {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Surface{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// Image exposes the backing image.
func (s *Surface) Image() *image.RGBA { return s.img }

func (s *Surface) Size() (int, int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

func (s *Surface) Clear(c color.Color) {
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// DrawLine rasterizes with a DDA walk, widening the pen into a square brush.
func (s *Surface) DrawLine(a, b ports.Point, c color.Color, width float64) {
	dx, dy := b.X-a.X, b.Y-a.Y
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps == 0 {
		s.plot(a.X, a.Y, c, width)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		s.plot(a.X+dx*t, a.Y+dy*t, c, width)
	}
}

func (s *Surface) StrokePath(pts []ports.Point, c color.Color, width float64) {
	if len(pts) == 1 {
		s.plot(pts[0].X, pts[0].Y, c, width)
		return
	}
	for i := 1; i < len(pts); i++ {
		s.DrawLine(pts[i-1], pts[i], c, width)
	}
}

// DrawText writes with the 7x13 bitmap face.
func (s *Surface) DrawText(at ports.Point, text string, c color.Color) {
	d := &font.Drawer{
		Dst:  s.img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(int(at.X)), Y: fixed.I(int(at.Y))},
	}
	d.DrawString(text)
}

// EncodePNG writes the surface as PNG.
func (s *Surface) EncodePNG(w io.Writer) error {
	return png.Encode(w, s.img)
}

func (s *Surface) plot(x, y float64, c color.Color, width float64) {
	half := int(math.Max(0, math.Round(width/2-0.5)))
	cx, cy := int(math.Round(x)), int(math.Round(y))
	for py := cy - half; py <= cy+half; py++ {
		for px := cx - half; px <= cx+half; px++ {
			if image.Pt(px, py).In(s.img.Bounds()) {
				s.img.Set(px, py, c)
			}
		}
	}
}
