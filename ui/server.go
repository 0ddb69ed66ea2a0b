// Package ui serves the ECG risk dashboard: the page, the session API that
// drives playback, rendered waveforms and the live event streams.
package ui

import (
	"embed"
	"html/template"
	"io/fs"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"ecgrisk/internal/api"
	"ecgrisk/internal/session"
	"ecgrisk/ports"
)

//go:embed templates/*.html static/*
var embeddedFiles embed.FS

// Deps are the collaborators the dashboard needs.
type Deps struct {
	Sessions  *session.Manager
	Patients  ports.PatientRepository
	Predictor ports.Predictor
	SSE       *api.SSEHub
	WS        *api.WSHub
}

// Server represents the web server for the dashboard
type Server struct {
	router    *gin.Engine
	deps      Deps
	templates *template.Template
}

// NewServer parses templates and registers routes.
func NewServer(deps Deps) (*Server, error) {
	templates, err := parseTemplates(embeddedFiles)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:    gin.New(),
		deps:      deps,
		templates: templates,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// Handler exposes the router, for http.Server and tests.
func (s *Server) Handler() http.Handler { return s.router }

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Logger(), gin.Recovery())

	staticFS, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		log.Printf("[setupMiddleware] Error creating static filesystem: %v", err)
		return
	}
	s.router.StaticFS("/static", http.FS(staticFS))
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)

	api := s.router.Group("/api")
	api.POST("/sessions", s.handleCreateSession)

	sess := api.Group("/sessions/:id", s.loadSession())
	sess.GET("/state", s.handleState)
	sess.DELETE("", s.handleCloseSession)
	sess.POST("/play", s.handlePlayback(playbackPlay))
	sess.POST("/pause", s.handlePlayback(playbackPause))
	sess.POST("/toggle", s.handlePlayback(playbackToggle))
	sess.POST("/reset", s.handlePlayback(playbackReset))
	sess.POST("/regenerate", s.handleRegenerate)
	sess.POST("/patient/:pid", s.handleSelectPatient)
	sess.POST("/model/:name", s.handleSelectModel)
	sess.POST("/features/:name", s.handleToggleFeature)
	sess.POST("/predict", s.handlePredictNow)
	sess.GET("/waveform.png", s.handleWaveformPNG)
	sess.GET("/waveform.svg", s.handleWaveformSVG)
	sess.GET("/events", s.handleEvents)
	sess.GET("/ws", s.handleWS)

	api.GET("/patients", s.handleListPatients)
	api.GET("/patients/:pid", s.handleGetPatient)
	api.GET("/models", s.handleListModels)
	api.GET("/models/radar.png", s.handleRadarPNG)
	api.GET("/models/:name/curves.png", s.handleCurvesPNG)
	api.GET("/export.xlsx", s.handleExport)
}
