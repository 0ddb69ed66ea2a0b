package ui

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ecgrisk/adapters/surface/raster"
	"ecgrisk/adapters/surface/svg"
	"ecgrisk/domain/model"
	"ecgrisk/internal/errors"
	"ecgrisk/internal/render"
)

// Chart sizes for the model endpoints.
const (
	radarSize    = 420
	curvesWidth  = 800
	curvesHeight = 400
	curveEpochs  = 50
)

func (s *Server) surfaceSize() (int, int) {
	opts := s.deps.Sessions.Settings().Waveform
	w, h := opts.Width, opts.Height
	if w <= 0 || h <= 0 {
		return render.DefaultWidth, render.DefaultHeight
	}
	return w, h
}

func (s *Server) handleWaveformPNG(c *gin.Context) {
	surf := raster.New(s.surfaceSize())
	currentSession(c).Player.RenderTo(surf)
	writePNG(c, surf.EncodePNG)
}

func (s *Server) handleWaveformSVG(c *gin.Context) {
	surf := svg.New(s.surfaceSize())
	currentSession(c).Player.RenderTo(surf)

	var buf bytes.Buffer
	if _, err := surf.WriteTo(&buf); err != nil {
		abortWithError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/svg+xml", buf.Bytes())
}

func (s *Server) handleRadarPNG(c *gin.Context) {
	var series []render.Series
	for _, cmp := range model.Comparisons() {
		series = append(series, render.Series{Name: cmp.Name, Values: cmp.Metrics()})
	}
	surf := raster.New(radarSize, radarSize)
	render.Radar(surf, model.MetricNames, series)
	writePNG(c, surf.EncodePNG)
}

func (s *Server) handleCurvesPNG(c *gin.Context) {
	name := c.Param("name")
	if _, ok := model.Lookup(name); !ok {
		abortWithError(c, errors.NotFound("model "+name))
		return
	}
	epochs := curveEpochs
	if raw := c.Query("epochs"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 2 || n > 1000 {
			abortWithError(c, errors.InvalidInput("epochs must be between 2 and 1000"))
			return
		}
		epochs = n
	}

	tc := model.Curves(name, epochs, 1)
	writePNG(c, func(w io.Writer) error {
		return render.CurvesPNG(w, tc, curvesWidth, curvesHeight)
	})
}

// writePNG buffers the image so an encoding error can still become a 500.
func writePNG(c *gin.Context, encode func(io.Writer) error) {
	var buf bytes.Buffer
	if err := encode(&buf); err != nil {
		log.Printf("[UI] PNG encoding failed for %s: %v", c.Request.URL.Path, err)
		abortWithError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}
