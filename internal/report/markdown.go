// Package report exports an evaluated trade as a markdown document.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dyike/CortexReview/internal/logger"
	"github.com/dyike/CortexReview/models"
)

// Markdown renders the image metadata and its evaluation.
func Markdown(img *models.TradeImage, playbookName string) (string, error) {
	if !img.HasAnalysis() {
		return "", fmt.Errorf("image has no analysis to report")
	}
	a := img.Analysis

	var b strings.Builder
	fmt.Fprintf(&b, "# Trade Review: %s\n\n", a.Verdict)
	fmt.Fprintf(&b, "- **Source:** %s\n", img.Source)
	fmt.Fprintf(&b, "- **Evaluated:** %s\n", img.Timestamp.Format("2006-01-02 15:04:05"))
	if playbookName != "" {
		fmt.Fprintf(&b, "- **Playbook:** %s\n", playbookName)
	}
	fmt.Fprintf(&b, "- **Setup:** %s\n", a.SetupType)
	fmt.Fprintf(&b, "- **Confluence:** %d/10\n", a.ConfluenceScore)
	fmt.Fprintf(&b, "- **Valid setup:** %s\n\n", yesNo(a.IsSetupValid))

	b.WriteString("## Coach Feedback\n\n")
	b.WriteString(strings.TrimSpace(a.Feedback))
	b.WriteString("\n\n")

	b.WriteString("## Pillars\n\n")
	fmt.Fprintf(&b, "### Strategy\n\n%s\n\n", strings.TrimSpace(a.Pillars.Strategy))
	fmt.Fprintf(&b, "### Risk\n\n%s\n\n", strings.TrimSpace(a.Pillars.Risk))
	fmt.Fprintf(&b, "### Psychology\n\n%s\n\n", strings.TrimSpace(a.Pillars.Psychology))

	fmt.Fprintf(&b, "## Checklist (%d/%d)\n\n", a.CheckedCount(), len(a.Checklist))
	for _, item := range a.Checklist {
		mark := " "
		if item.Checked {
			mark = "x"
		}
		fmt.Fprintf(&b, "- [%s] %s\n", mark, item.Item)
	}
	return b.String(), nil
}

// WriteMarkdown writes content to path, creating parent directories.
func WriteMarkdown(path, content string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	logger.Log.Infof("report written to: %s", path)
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
