package display

import (
	"fmt"
	"strings"

	"github.com/dyike/CortexReview/internal/playbook"
)

// RenderPlaybook is the reference panel listing the rules the desk grades
// against.
func RenderPlaybook(pb *playbook.Playbook) string {
	if pb == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s PLAYBOOK v%s", strings.ToUpper(pb.Name), pb.Version)))
	b.WriteString("\n")
	if pb.Summary != "" {
		b.WriteString(dimStyle.Width(panelWidth).Render(strings.TrimSpace(pb.Summary)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(renderPillar("STRATEGY", strings.TrimSpace(pb.Pillars.Strategy)))
	b.WriteString("\n")
	b.WriteString(renderPillar("RISK", strings.TrimSpace(pb.Pillars.Risk)))
	b.WriteString("\n")
	b.WriteString(renderPillar("PSYCHOLOGY", strings.TrimSpace(pb.Pillars.Psychology)))
	b.WriteString("\n\n")

	var rules []string
	for i, r := range pb.Rules {
		rules = append(rules, fmt.Sprintf("%s %s", labelStyle.Render(fmt.Sprintf("%d. %s", i+1, r.Title)), r.Detail))
	}
	if len(rules) > 0 {
		b.WriteString(panelStyle.Render(labelStyle.Render("RULES") + "\n" + strings.Join(rules, "\n")))
		b.WriteString("\n")
	}

	var items []string
	for _, item := range pb.Checklist {
		items = append(items, "• "+item)
	}
	b.WriteString(panelStyle.Render(labelStyle.Render("CHECKLIST") + "\n" + strings.Join(items, "\n")))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Setups: " + strings.Join(pb.SetupTypes, " · ")))
	return b.String()
}
