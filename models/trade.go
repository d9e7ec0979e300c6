package models

import "time"

// TradeImage is the single execution screenshot held by a desk session.
type TradeImage struct {
	ID        string          `json:"id"`
	DataURL   string          `json:"data_url"`
	MIMEType  string          `json:"mime_type"`
	Source    string          `json:"source"`
	Size      int             `json:"size"`
	Timestamp time.Time       `json:"timestamp"`
	Analysis  *AnalysisResult `json:"analysis,omitempty"`
}

// Clone returns a deep copy so callers can't mutate the desk's record.
func (t *TradeImage) Clone() *TradeImage {
	if t == nil {
		return nil
	}
	cp := *t
	cp.Analysis = t.Analysis.Clone()
	return &cp
}

// HasAnalysis reports whether a verdict has been attached.
func (t *TradeImage) HasAnalysis() bool {
	return t != nil && t.Analysis != nil
}

// Pillars are the three sub-assessments of an evaluation.
type Pillars struct {
	Strategy   string `json:"strategy"`
	Risk       string `json:"risk"`
	Psychology string `json:"psychology"`
}

// ChecklistItem is one playbook criterion and whether the execution met it.
type ChecklistItem struct {
	Item    string `json:"item"`
	Checked bool   `json:"checked"`
}

// AnalysisResult is the structured verdict returned by the analysis provider.
type AnalysisResult struct {
	IsSetupValid    bool            `json:"isSetupValid"`
	Verdict         string          `json:"verdict"`
	SetupType       string          `json:"setupType"`
	ConfluenceScore int             `json:"confluenceScore"`
	Feedback        string          `json:"feedback"`
	Pillars         Pillars         `json:"pillars"`
	Checklist       []ChecklistItem `json:"checklist"`
}

func (a *AnalysisResult) Clone() *AnalysisResult {
	if a == nil {
		return nil
	}
	cp := *a
	cp.Checklist = append([]ChecklistItem(nil), a.Checklist...)
	return &cp
}

// CheckedCount returns how many checklist items were met.
func (a *AnalysisResult) CheckedCount() int {
	n := 0
	for _, item := range a.Checklist {
		if item.Checked {
			n++
		}
	}
	return n
}
