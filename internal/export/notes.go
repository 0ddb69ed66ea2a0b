package export

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"ecgrisk/domain/patient"
)

// NotesHTML renders a patient's Markdown notes as an HTML fragment.
func NotesHTML(p patient.Patient) template.HTML {
	// parsers keep state; one per call
	ps := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank | html.SkipHTML})
	return template.HTML(markdown.ToHTML([]byte(p.Notes), ps, renderer))
}

// Summary renders a patient card as Markdown, then HTML.
func Summary(p patient.Patient) template.HTML {
	var md bytes.Buffer
	fmt.Fprintf(&md, "### %s (%s)\n\n", p.Name, p.ID)
	fmt.Fprintf(&md, "| Age | Sex | LVEF | Label | Risk |\n|---|---|---|---|---|\n")
	fmt.Fprintf(&md, "| %d | %s | %.0f%% | **%s** | %.2f |\n\n", p.Age, p.Sex, p.LVEF, p.Label, p.Risk)
	md.WriteString(p.Notes)

	ps := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	return template.HTML(markdown.ToHTML(md.Bytes(), ps, renderer))
}
