// Package svg implements ports.TextSurface by accumulating SVG elements.
package svg

import (
	"fmt"
	"html"
	"image/color"
	"io"
	"strconv"
	"strings"

	"ecgrisk/ports"
)

// Surface buffers drawing calls as SVG markup.
type Surface struct {
	width, height int
	elems         []string
}

// New creates an empty SVG surface.
func New(width, height int) *Surface {
	return &Surface{width: width, height: height}
}

func (s *Surface) Size() (int, int) { return s.width, s.height }

// Clear discards earlier elements and paints a full-size background rect.
func (s *Surface) Clear(c color.Color) {
	s.elems = s.elems[:0]
	s.elems = append(s.elems, fmt.Sprintf(`<rect width="%d" height="%d" fill="%s"/>`, s.width, s.height, hex(c)))
}

func (s *Surface) DrawLine(a, b ports.Point, c color.Color, width float64) {
	s.elems = append(s.elems, fmt.Sprintf(`<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s"/>`,
		num(a.X), num(a.Y), num(b.X), num(b.Y), hex(c), num(width)))
}

func (s *Surface) StrokePath(pts []ports.Point, c color.Color, width float64) {
	if len(pts) == 0 {
		return
	}
	var sb strings.Builder
	for i, p := range pts {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(num(p.X))
		sb.WriteByte(',')
		sb.WriteString(num(p.Y))
	}
	s.elems = append(s.elems, fmt.Sprintf(`<polyline points="%s" fill="none" stroke="%s" stroke-width="%s" stroke-linejoin="round"/>`,
		sb.String(), hex(c), num(width)))
}

func (s *Surface) DrawText(at ports.Point, text string, c color.Color) {
	s.elems = append(s.elems, fmt.Sprintf(`<text x="%s" y="%s" fill="%s" font-family="monospace" font-size="12">%s</text>`,
		num(at.X), num(at.Y), hex(c), html.EscapeString(text)))
}

// Elements returns the number of buffered elements.
func (s *Surface) Elements() int { return len(s.elems) }

// WriteTo writes the complete document.
func (s *Surface) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		s.width, s.height, s.width, s.height)
	sb.WriteByte('\n')
	for _, e := range s.elems {
		sb.WriteString(e)
		sb.WriteByte('\n')
	}
	sb.WriteString("</svg>\n")
	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

func hex(c color.Color) string {
	r, g, b, a := c.RGBA()
	if a == 0 {
		return "none"
	}
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
