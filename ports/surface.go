package ports

import "image/color"

// Point is a position on a drawing surface in pixels, origin top-left.
type Point struct {
	X, Y float64
}

// Surface is an immediate-mode 2-D drawing target. Raster images, SVG
// documents and terminal braille grids all implement it.
type Surface interface {
	// Size returns the surface dimensions in pixels.
	Size() (width, height int)

	// Clear fills the whole surface with c.
	Clear(c color.Color)

	// DrawLine strokes a straight segment from a to b.
	DrawLine(a, b Point, c color.Color, width float64)

	// StrokePath strokes a connected polyline through pts.
	StrokePath(pts []Point, c color.Color, width float64)
}

// TextSurface is a Surface that can also place captions.
type TextSurface interface {
	Surface

	// DrawText writes text with its baseline starting at at.
	DrawText(at Point, text string, c color.Color)
}
