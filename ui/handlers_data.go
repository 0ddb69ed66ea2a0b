package ui

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"ecgrisk/domain/core"
	"ecgrisk/domain/model"
	"ecgrisk/domain/patient"
	"ecgrisk/domain/state"
	"ecgrisk/internal/errors"
	"ecgrisk/internal/export"
)

// PatientView is a case with its notes rendered.
type PatientView struct {
	patient.Patient
	NotesHTML template.HTML `json:"notes_html"`
}

// ModelView is a comparison row with its AUC interval.
type ModelView struct {
	model.Comparison
	AUCInterval *model.Interval `json:"auc_interval,omitempty"`
}

func (s *Server) handleIndex(c *gin.Context) {
	patients, err := s.deps.Patients.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	s.renderTemplate(c, "index.html", gin.H{
		"Patients": patients,
		"Models":   model.Comparisons(),
		"Default":  model.DefaultModel,
		"Features": state.KnownFeatures,
	})
}

func (s *Server) handleListPatients(c *gin.Context) {
	patients, err := s.deps.Patients.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"patients": patients})
}

func (s *Server) handleGetPatient(c *gin.Context) {
	p, err := s.deps.Patients.Get(c.Request.Context(), core.PatientID(c.Param("pid")))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if c.Query("format") == "html" {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(export.Summary(*p)))
		return
	}
	c.JSON(http.StatusOK, PatientView{Patient: *p, NotesHTML: export.NotesHTML(*p)})
}

func (s *Server) handleListModels(c *gin.Context) {
	rows := model.Comparisons()
	out := make([]ModelView, 0, len(rows))
	for _, row := range rows {
		v := ModelView{Comparison: row}
		if ci, err := model.AUCInterval(row.AUC, export.ValidationPositives, export.ValidationNegatives, export.IntervalLevel); err == nil {
			v.AUCInterval = &ci
		}
		out = append(out, v)
	}
	c.JSON(http.StatusOK, gin.H{"models": out, "default": model.DefaultModel})
}

// handleExport builds a workbook for one session: its patient, the full
// signal, a fresh prediction from every model and the comparison table.
func (s *Server) handleExport(c *gin.Context) {
	id, err := core.ParseSessionID(c.Query("session_id"))
	if err != nil {
		abortWithError(c, errors.InvalidInput("session_id query parameter required"))
		return
	}
	ctx := c.Request.Context()
	sess, err := s.deps.Sessions.Get(ctx, id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	st := sess.Player.State()

	var pt *patient.Patient
	if p, err := s.deps.Patients.Get(ctx, st.SelectedPatient); err == nil {
		pt = p
	}
	report := export.Build(ctx, s.deps.Predictor, pt, st.Signal)

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, report); err != nil {
		abortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="ecg-%s.xlsx"`, st.SelectedPatient))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
