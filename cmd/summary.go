package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/lehigh-university-libraries/imposer/internal/pipeline"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorDim    = lipgloss.Color("240")

	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleOK      = lipgloss.NewStyle().Foreground(colorGreen)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleError   = lipgloss.NewStyle().Foreground(colorRed)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleCell    = lipgloss.NewStyle().PaddingRight(2)
)

// renderSummary formats one line per manifest
func renderSummary(results []pipeline.Result) string {
	var b strings.Builder
	b.WriteString(styleTitle.Render("Summary"))
	b.WriteString("\n")

	for _, r := range results {
		status := styleOK.Render("✓")
		detail := fmt.Sprintf("%d pages, %d sheets, %d binders", r.Pages, len(r.Sheets), len(r.Binders))
		switch {
		case r.Err != nil:
			status = styleError.Render("✗")
			detail = styleError.Render(r.Err.Error())
		case r.Failed():
			status = styleError.Render("✗")
			detail += styleError.Render(" (binder failed)")
		case len(r.Warnings) > 0:
			status = styleWarning.Render("!")
			detail += styleWarning.Render(fmt.Sprintf(" (%d warnings)", len(r.Warnings)))
		}

		row := lipgloss.JoinHorizontal(lipgloss.Top,
			styleCell.Render(status),
			styleCell.Width(12).Render(r.Manifest),
			styleCell.Render(detail),
			styleDim.Render(fmt.Sprintf("%s %s", r.OutputDir, r.Duration.Round(time.Millisecond))),
		)
		b.WriteString(row)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
