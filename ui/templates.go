package ui

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ecgrisk/domain/model"
)

// templateFuncs are available to every dashboard template.
var templateFuncs = template.FuncMap{
	"pct":   func(v float64) string { return fmt.Sprintf("%.0f%%", v*100) },
	"upper": strings.ToUpper,
	// riskClass picks the CSS class of a risk badge.
	"riskClass": func(v float64) string {
		if v >= model.RiskThreshold {
			return "risk-high"
		}
		return "risk-low"
	},
	"params": func(n int) string {
		switch {
		case n == 0:
			return "n/a"
		case n >= 1_000_000:
			return fmt.Sprintf("%.1fM", float64(n)/1e6)
		default:
			return fmt.Sprintf("%dk", n/1000)
		}
	},
}

func parseTemplates(fsys fs.FS) (*template.Template, error) {
	t, err := template.New("").Funcs(templateFuncs).ParseFS(fsys, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return t, nil
}

// renderTemplate executes a template with the given data
func (s *Server) renderTemplate(c *gin.Context, templateName string, data interface{}) {
	// render to a buffer so a template error can still become a 500
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		log.Printf("[UI] Template error for %s: %v", templateName, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "template rendering failed"})
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
