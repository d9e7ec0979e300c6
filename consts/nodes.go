package consts

// eino chain node names for the OpenAI-compatible evaluator
const (
	Node_Load      = "load"
	Node_Evaluator = "evaluator"
	Node_Extract   = "extract"

	Chain_Evaluation = "CortexReview-Evaluation"
)

// provider names accepted in config
const (
	Provider_Gemini = "gemini"
	Provider_OpenAI = "openai"
)
