// Package display renders desk state for the terminal. Every function here
// returns a string and has no side effects.
package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dyike/CortexReview/consts"
	"github.com/dyike/CortexReview/models"
)

const meterCells = 10

// RenderAnalysis draws the verdict banner, score, feedback, pillars and
// checklist, in that order.
func RenderAnalysis(r *models.AnalysisResult) string {
	if r == nil {
		return dimStyle.Render("No evaluation yet.")
	}

	var b strings.Builder

	banner := rejectedBanner
	icon := "✖"
	if r.IsSetupValid {
		banner = approvedBanner
		icon = "✔"
	}
	b.WriteString(banner.Render(fmt.Sprintf("%s %s", icon, strings.ToUpper(r.Verdict))))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("SETUP      "))
	b.WriteString(r.SetupType)
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("CONFLUENCE "))
	b.WriteString(ScoreMeter(r.ConfluenceScore))
	b.WriteString("\n\n")

	b.WriteString(panelStyle.Render(labelStyle.Render("COACH FEEDBACK") + "\n" + r.Feedback))
	b.WriteString("\n\n")

	b.WriteString(renderPillar("STRATEGY", r.Pillars.Strategy))
	b.WriteString("\n")
	b.WriteString(renderPillar("RISK", r.Pillars.Risk))
	b.WriteString("\n")
	b.WriteString(renderPillar("PSYCHOLOGY", r.Pillars.Psychology))
	b.WriteString("\n\n")

	b.WriteString(RenderChecklist(r.Checklist))
	return b.String()
}

// ScoreMeter renders "N/10" followed by a ten-cell bar.
func ScoreMeter(score int) string {
	filled := min(max(score, 0), meterCells)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", meterCells-filled)

	style := scoreLow
	switch {
	case score >= 8:
		style = scoreHigh
	case score >= 5:
		style = scoreMid
	}
	return style.Render(fmt.Sprintf("%d/10", score)) + " " + style.Render(bar)
}

func renderPillar(title, body string) string {
	if strings.TrimSpace(body) == "" {
		body = dimStyle.Render("(no assessment)")
	}
	return pillarStyle.Render(labelStyle.Render(title) + "\n" + body)
}

// RenderChecklist keeps the order the model returned.
func RenderChecklist(items []models.ChecklistItem) string {
	met := 0
	var lines []string
	for _, item := range items {
		if item.Checked {
			met++
			lines = append(lines, checkedStyle.Render("[x] "+item.Item))
		} else {
			lines = append(lines, uncheckedStyle.Render("[ ] "+item.Item))
		}
	}
	header := labelStyle.Render(fmt.Sprintf("EXECUTION CHECKLIST  %d/%d", met, len(items)))
	return panelStyle.Render(header + "\n" + strings.Join(lines, "\n"))
}

// RenderImageCard summarises the held screenshot.
func RenderImageCard(img *models.TradeImage) string {
	if img == nil {
		return panelStyle.Render(dimStyle.Render("No trade image loaded. Upload an execution screenshot to begin."))
	}
	rows := [][2]string{
		{"SOURCE", img.Source},
		{"TYPE", img.MIMEType},
		{"SIZE", HumanSize(img.Size)},
		{"ID", img.ID},
		{"LOADED", img.Timestamp.Format("2006-01-02 15:04:05")},
	}
	var lines []string
	for _, row := range rows {
		lines = append(lines, labelStyle.Render(fmt.Sprintf("%-7s", row[0]))+" "+row[1])
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

// RenderStatus is the one-line desk header.
func RenderStatus(state consts.DeskState) string {
	tag := titleStyle.Render("CORTEX REVIEW")
	status := dimStyle.Render("STATUS: ")
	switch state {
	case consts.State_AnalysisComplete:
		status += checkedStyle.Render(state.Label())
	case consts.State_Analyzing:
		status += scoreMid.Render(state.Label())
	default:
		status += state.Label()
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, tag, "  ", status)
}

// RenderErrorNotice is the blocking notice shown when an evaluation fails.
func RenderErrorNotice(message string) string {
	return noticeStyle.Render("⚠ " + message)
}

func HumanSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
