package playbook

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed prompts
var promptFiles embed.FS

func loadPrompt(name string) (string, error) {
	content, err := promptFiles.ReadFile(fmt.Sprintf("prompts/%s.md", name))
	if err != nil {
		return "", fmt.Errorf("failed to load prompt %s: %w", name, err)
	}
	return string(content), nil
}

// loadPromptWithContext replaces {{.Key}} placeholders with values.
func loadPromptWithContext(name string, context map[string]string) (string, error) {
	content, err := loadPrompt(name)
	if err != nil {
		return "", err
	}
	for key, value := range context {
		content = strings.ReplaceAll(content, fmt.Sprintf("{{.%s}}", key), value)
	}
	return strings.TrimSpace(content), nil
}

// SystemInstruction frames the model as the playbook's coach.
func (p *Playbook) SystemInstruction() (string, error) {
	var rules strings.Builder
	for i, r := range p.Rules {
		fmt.Fprintf(&rules, "%d. %s: %s\n", i+1, r.Title, r.Detail)
	}
	return loadPromptWithContext("system", map[string]string{
		"Name":    p.Name,
		"Version": p.Version,
		"Summary": strings.TrimSpace(p.Summary),
		"Rules":   strings.TrimRight(rules.String(), "\n"),
	})
}

// EvaluationPrompt is the user turn sent with the screenshot. schema is the
// JSON shape the reply must follow.
func (p *Playbook) EvaluationPrompt(schema string) (string, error) {
	var checklist strings.Builder
	for i, item := range p.Checklist {
		fmt.Fprintf(&checklist, "%d. %s\n", i+1, item)
	}
	return loadPromptWithContext("evaluate", map[string]string{
		"PillarStrategy":   strings.TrimSpace(p.Pillars.Strategy),
		"PillarRisk":       strings.TrimSpace(p.Pillars.Risk),
		"PillarPsychology": strings.TrimSpace(p.Pillars.Psychology),
		"SetupTypes":       strings.Join(p.SetupTypes, ", "),
		"Checklist":        strings.TrimRight(checklist.String(), "\n"),
		"Approved":         p.Verdicts.Approved,
		"Rejected":         p.Verdicts.Rejected,
		"Schema":           schema,
	})
}
