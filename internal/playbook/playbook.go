// Package playbook holds the trading rubric that every execution is judged
// against and turns it into model instructions.
package playbook

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed marscalper.yaml
var defaultPlaybook []byte

var ErrInvalidPlaybook = errors.New("invalid playbook")

type Playbook struct {
	Name       string      `yaml:"name" json:"name"`
	Version    string      `yaml:"version" json:"version"`
	Summary    string      `yaml:"summary" json:"summary"`
	Pillars    PillarGuide `yaml:"pillars" json:"pillars"`
	Rules      []Rule      `yaml:"rules" json:"rules"`
	Checklist  []string    `yaml:"checklist" json:"checklist"`
	SetupTypes []string    `yaml:"setup_types" json:"setup_types"`
	Verdicts   Verdicts    `yaml:"verdicts" json:"verdicts"`
}

// PillarGuide describes what the model should look at for each pillar.
type PillarGuide struct {
	Strategy   string `yaml:"strategy" json:"strategy"`
	Risk       string `yaml:"risk" json:"risk"`
	Psychology string `yaml:"psychology" json:"psychology"`
}

type Rule struct {
	Title  string `yaml:"title" json:"title"`
	Detail string `yaml:"detail" json:"detail"`
}

type Verdicts struct {
	Approved string `yaml:"approved" json:"approved"`
	Rejected string `yaml:"rejected" json:"rejected"`
}

// Default returns the built-in MarScalper playbook.
func Default() (*Playbook, error) {
	return Parse(defaultPlaybook)
}

// Load reads a playbook from path. An empty path yields the built-in one.
func Load(path string) (*Playbook, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read playbook %s: %w", path, err)
	}
	pb, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("playbook %s: %w", path, err)
	}
	return pb, nil
}

func Parse(data []byte) (*Playbook, error) {
	var pb Playbook
	if err := yaml.Unmarshal(data, &pb); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPlaybook, err)
	}
	if err := pb.Validate(); err != nil {
		return nil, err
	}
	return &pb, nil
}

func (p *Playbook) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidPlaybook)
	case len(p.Checklist) == 0:
		return fmt.Errorf("%w: checklist is empty", ErrInvalidPlaybook)
	case len(p.SetupTypes) == 0:
		return fmt.Errorf("%w: no setup types", ErrInvalidPlaybook)
	case p.Verdicts.Approved == "" || p.Verdicts.Rejected == "":
		return fmt.Errorf("%w: both verdict labels are required", ErrInvalidPlaybook)
	}
	seen := make(map[string]struct{}, len(p.Checklist))
	for i, item := range p.Checklist {
		item = strings.TrimSpace(item)
		if item == "" {
			return fmt.Errorf("%w: checklist item %d is blank", ErrInvalidPlaybook, i+1)
		}
		if _, dup := seen[item]; dup {
			return fmt.Errorf("%w: duplicate checklist item %q", ErrInvalidPlaybook, item)
		}
		seen[item] = struct{}{}
	}
	return nil
}

// Verdict returns the label the model is told to use for the given outcome.
func (p *Playbook) Verdict(valid bool) string {
	if valid {
		return p.Verdicts.Approved
	}
	return p.Verdicts.Rejected
}
