package braille

import (
	"strings"
	"testing"
	"unicode/utf8"

	"ecgrisk/domain/signal"
	"ecgrisk/internal/render"
	"ecgrisk/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeInDots(t *testing.T) {
	w, h := New(40, 10).Size()
	assert.Equal(t, 80, w)
	assert.Equal(t, 40, h)
}

func TestSetDots(t *testing.T) {
	c := New(2, 1)
	c.Set(0, 0)
	c.Set(1, 3)
	c.Set(99, 99)

	rows := c.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, string([]rune{0x2800 + 0x01 + 0x80, 0x2800}), rows[0])
}

func TestClearEmptiesCanvas(t *testing.T) {
	c := New(3, 2)
	c.DrawLine(ports.Point{}, ports.Point{X: 5, Y: 7}, nil, 1)
	c.Clear(nil)
	assert.Equal(t, strings.Repeat("⠀", 3)+"\n"+strings.Repeat("⠀", 3), c.String())
}

func TestDrawTextOverlaysCells(t *testing.T) {
	c := New(5, 2)
	c.DrawText(ports.Point{X: 2, Y: 4}, "hello world", nil)
	rows := c.Rows()
	assert.Equal(t, "⠀hell", rows[1])
}

func TestWaveformFitsGrid(t *testing.T) {
	c := New(60, 12)
	render.NewWaveform(render.DefaultWaveformOptions()).Render(c, signal.Synthesize(500, 1).Samples(), 0, 200)

	rows := c.Rows()
	require.Len(t, rows, 12)
	for _, r := range rows {
		assert.Equal(t, 60, utf8.RuneCountInString(r))
	}
	assert.NotEqual(t, strings.Repeat("⠀", 60), rows[6])
}
