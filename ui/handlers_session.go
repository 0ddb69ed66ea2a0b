package ui

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"ecgrisk/domain/core"
	"ecgrisk/domain/model"
	"ecgrisk/domain/state"
	"ecgrisk/internal/errors"
	"ecgrisk/internal/session"
)

// StateView is the JSON shape of a session's state.
type StateView struct {
	SessionID    core.SessionID    `json:"session_id"`
	Patient      core.PatientID    `json:"patient"`
	Model        string            `json:"model"`
	Features     []string          `json:"features"`
	Playing      bool              `json:"playing"`
	Offset       int               `json:"offset"`
	Start        int               `json:"start"`
	WindowSize   int               `json:"window_size"`
	SignalLength int               `json:"signal_length"`
	Step         int               `json:"step"`
	Window       []float64         `json:"window"`
	HeartRate    int               `json:"heart_rate,omitempty"`
	Prediction   *model.Prediction `json:"prediction,omitempty"`
	Version      int               `json:"version"`
}

func viewOf(sess *session.Session) StateView {
	st, f := sess.Player.View()
	return StateView{
		SessionID:    st.SessionID,
		Patient:      st.SelectedPatient,
		Model:        st.SelectedModel,
		Features:     st.EnabledFeatures(),
		Playing:      st.Playback.Playing,
		Offset:       st.Playback.Offset,
		Start:        st.WindowStart(),
		WindowSize:   st.Geometry.WindowLen,
		SignalLength: st.Signal.Len(),
		Step:         st.Step,
		Window:       f.Window,
		HeartRate:    f.HeartRate,
		Prediction:   f.Prediction,
		Version:      st.Version,
	}
}

type createSessionRequest struct {
	Patient string `json:"patient"`
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var req createSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}
	if req.Patient == "" {
		req.Patient = c.Query("patient")
	}

	sess, err := s.deps.Sessions.Create(c.Request.Context(), core.PatientID(req.Patient))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, viewOf(sess))
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, viewOf(currentSession(c)))
}

func (s *Server) handleCloseSession(c *gin.Context) {
	if err := s.deps.Sessions.Close(c.Request.Context(), currentSession(c).ID); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type playbackAction int

const (
	playbackPlay playbackAction = iota
	playbackPause
	playbackToggle
	playbackReset
)

func (s *Server) handlePlayback(action playbackAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := currentSession(c).Player
		switch action {
		case playbackPlay:
			p.Play()
		case playbackPause:
			p.Pause()
		case playbackToggle:
			p.Toggle()
		case playbackReset:
			p.Reset()
		}
		c.JSON(http.StatusOK, viewOf(currentSession(c)))
	}
}

func (s *Server) handleRegenerate(c *gin.Context) {
	seed := time.Now().UnixNano()
	if raw := c.Query("seed"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "seed must be an integer"})
			return
		}
		seed = v
	}
	sess := currentSession(c)
	if _, err := s.deps.Sessions.Regenerate(c.Request.Context(), sess.ID, seed); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(sess))
}

func (s *Server) handleSelectPatient(c *gin.Context) {
	pid, err := core.ParsePatientID(c.Param("pid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess := currentSession(c)
	if _, err := s.deps.Sessions.SelectPatient(c.Request.Context(), sess.ID, pid); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(sess))
}

func (s *Server) handleSelectModel(c *gin.Context) {
	name := c.Param("name")
	if _, ok := model.Lookup(name); !ok {
		abortWithError(c, errors.NotFound("model "+name))
		return
	}
	sess := currentSession(c)
	sess.Player.SelectModel(name)
	c.JSON(http.StatusOK, viewOf(sess))
}

func (s *Server) handleToggleFeature(c *gin.Context) {
	name := c.Param("name")
	if !knownFeature(name) {
		abortWithError(c, errors.InvalidInput("unknown feature "+name))
		return
	}
	sess := currentSession(c)
	sess.Player.ToggleFeature(name)
	c.JSON(http.StatusOK, viewOf(sess))
}

func (s *Server) handlePredictNow(c *gin.Context) {
	sess := currentSession(c)
	pred, err := sess.Feed.Once(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, pred)
}

func (s *Server) handleEvents(c *gin.Context) {
	s.deps.SSE.Stream(c, currentSession(c).ID)
}

func (s *Server) handleWS(c *gin.Context) {
	s.deps.WS.Serve(c.Writer, c.Request, currentSession(c).ID)
}

func knownFeature(name string) bool {
	for _, f := range state.KnownFeatures {
		if f == name {
			return true
		}
	}
	return false
}
