package consts

// DeskState is where a review desk sits in the upload/evaluate cycle.
type DeskState string

const (
	State_Empty            DeskState = "empty"
	State_ImageLoaded      DeskState = "image_loaded"
	State_Analyzing        DeskState = "analyzing"
	State_AnalysisComplete DeskState = "analysis_complete"
)

func (s DeskState) String() string {
	return string(s)
}

// Label is the short uppercase tag shown by the front ends.
func (s DeskState) Label() string {
	switch s {
	case State_Empty:
		return "AWAITING DATA"
	case State_ImageLoaded:
		return "READY"
	case State_Analyzing:
		return "PROCESSING PARAMETERS"
	case State_AnalysisComplete:
		return "EVALUATED"
	default:
		return "UNKNOWN"
	}
}
