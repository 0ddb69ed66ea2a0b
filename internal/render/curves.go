package render

import (
	"fmt"
	"io"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"ecgrisk/domain/model"
)

// CurvesPNG renders a model's learning curves as a PNG with axes and a
// legend. Loss and accuracy share the 0..1 axis.
func CurvesPNG(w io.Writer, tc model.TrainingCurve, width, height int) error {
	if len(tc.Epochs) < 2 {
		return fmt.Errorf("need at least 2 epochs, got %d", len(tc.Epochs))
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight * 2
	}

	line := func(name string, ys []float64, i int, dashed bool) chart.Series {
		st := chart.Style{StrokeColor: toDrawing(SeriesColor(i)), StrokeWidth: 2}
		if dashed {
			st.StrokeDashArray = []float64{5, 3}
		}
		return chart.ContinuousSeries{Name: name, XValues: tc.Epochs, YValues: ys, Style: st}
	}

	ch := chart.Chart{
		Title:      tc.Model + " training",
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 12, Bottom: 16}},
		XAxis:      chart.XAxis{Name: "epoch"},
		YAxis:      chart.YAxis{Name: "value", Range: &chart.ContinuousRange{Min: 0, Max: 1}},
		Series: []chart.Series{
			line("train loss", tc.TrainLoss, 0, false),
			line("val loss", tc.ValLoss, 0, true),
			line("train acc", tc.TrainAcc, 2, false),
			line("val acc", tc.ValAcc, 2, true),
		},
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render curves for %s: %w", tc.Model, err)
	}
	return nil
}

func toDrawing(c interface{ RGBA() (r, g, b, a uint32) }) drawing.Color {
	r, g, b, a := c.RGBA()
	return drawing.Color{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}
