package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"google.golang.org/genai"

	"github.com/dyike/CortexReview/internal/playbook"
	"github.com/dyike/CortexReview/models"
)

const (
	MinConfluenceScore = 1
	MaxConfluenceScore = 10
)

// SchemaText is the reply shape spelled out for providers that can't take a
// structured schema.
const SchemaText = `{
  "isSetupValid": boolean,
  "verdict": string,
  "setupType": string,
  "confluenceScore": integer 1-10,
  "feedback": string,
  "pillars": {"strategy": string, "risk": string, "psychology": string},
  "checklist": [{"item": string, "checked": boolean}]
}`

// ResponseSchema is the structured output contract handed to Gemini. When a
// playbook is given the verdict and setup type are constrained to its labels.
func ResponseSchema(pb *playbook.Playbook) *genai.Schema {
	str := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc}
	}
	s := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"isSetupValid": {Type: genai.TypeBoolean, Description: "True if the execution follows the playbook."},
			"verdict":      str("Verdict label from the playbook."),
			"setupType":    str("Setup classification."),
			"confluenceScore": {
				Type:        genai.TypeInteger,
				Description: "Confluence score from 1 to 10.",
				Minimum:     genai.Ptr[float64](MinConfluenceScore),
				Maximum:     genai.Ptr[float64](MaxConfluenceScore),
			},
			"feedback": str("Overall coaching feedback."),
			"pillars": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"strategy":   str("Strategy assessment."),
					"risk":       str("Risk assessment."),
					"psychology": str("Psychology assessment."),
				},
				Required:         []string{"strategy", "risk", "psychology"},
				PropertyOrdering: []string{"strategy", "risk", "psychology"},
			},
			"checklist": {
				Type:     genai.TypeArray,
				MinItems: genai.Ptr[int64](1),
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"item":    str("Checklist criterion."),
						"checked": {Type: genai.TypeBoolean},
					},
					Required:         []string{"item", "checked"},
					PropertyOrdering: []string{"item", "checked"},
				},
			},
		},
		Required: []string{
			"isSetupValid", "verdict", "setupType", "confluenceScore",
			"feedback", "pillars", "checklist",
		},
		PropertyOrdering: []string{
			"isSetupValid", "verdict", "setupType", "confluenceScore",
			"feedback", "pillars", "checklist",
		},
	}
	if pb != nil {
		s.Properties["verdict"].Enum = []string{pb.Verdicts.Approved, pb.Verdicts.Rejected}
		s.Properties["setupType"].Enum = append([]string(nil), pb.SetupTypes...)
	}
	return s
}

// Decode parses a provider reply into a validated result. Markdown code
// fences around the JSON are tolerated.
func Decode(raw []byte) (*models.AnalysisResult, error) {
	text := stripFences(string(raw))
	if text == "" {
		return nil, ErrEmptyResponse
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.DisallowUnknownFields()
	var result models.AnalysisResult
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResult, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after JSON object", ErrInvalidResult)
	}
	if err := Validate(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Validate rejects results that break the contract instead of repairing them.
func Validate(r *models.AnalysisResult) error {
	if r == nil {
		return fmt.Errorf("%w: nil result", ErrInvalidResult)
	}
	if r.ConfluenceScore < MinConfluenceScore || r.ConfluenceScore > MaxConfluenceScore {
		return fmt.Errorf("%w: confluenceScore %d outside [%d,%d]",
			ErrInvalidResult, r.ConfluenceScore, MinConfluenceScore, MaxConfluenceScore)
	}
	if strings.TrimSpace(r.Verdict) == "" {
		return fmt.Errorf("%w: verdict is empty", ErrInvalidResult)
	}
	if strings.TrimSpace(r.SetupType) == "" {
		return fmt.Errorf("%w: setupType is empty", ErrInvalidResult)
	}
	if strings.TrimSpace(r.Pillars.Strategy) == "" ||
		strings.TrimSpace(r.Pillars.Risk) == "" ||
		strings.TrimSpace(r.Pillars.Psychology) == "" {
		return fmt.Errorf("%w: missing pillar assessment", ErrInvalidResult)
	}
	if len(r.Checklist) == 0 {
		return fmt.Errorf("%w: checklist is empty", ErrInvalidResult)
	}
	for i, item := range r.Checklist {
		if strings.TrimSpace(item.Item) == "" {
			return fmt.Errorf("%w: checklist item %d has no label", ErrInvalidResult, i+1)
		}
	}
	return nil
}

// MatchPlaybook checks the labels of r against pb. The verdict must be the one
// pb assigns to isSetupValid and the setup type must be one pb names.
func MatchPlaybook(r *models.AnalysisResult, pb *playbook.Playbook) error {
	if pb == nil {
		return nil
	}
	if want := pb.Verdict(r.IsSetupValid); r.Verdict != want {
		return fmt.Errorf("%w: verdict %q does not match isSetupValid=%t (want %q)",
			ErrInvalidResult, r.Verdict, r.IsSetupValid, want)
	}
	if !slices.Contains(pb.SetupTypes, r.SetupType) {
		return fmt.Errorf("%w: setupType %q is not a %s setup", ErrInvalidResult, r.SetupType, pb.Name)
	}
	return nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
