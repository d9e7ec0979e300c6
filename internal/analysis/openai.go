package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	aclopenai "github.com/cloudwego/eino-ext/libs/acl/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/dyike/CortexReview/consts"
)

type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// OpenAIProvider runs the evaluation through an eino chain:
// load -> evaluator (chat model) -> extract.
type OpenAIProvider struct {
	runnable compose.Runnable[*Request, []byte]
	model    string
}

func NewOpenAIProvider(ctx context.Context, cfg *OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	temperature := cfg.Temperature
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Timeout:     cfg.Timeout,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
		ResponseFormat: &aclopenai.ChatCompletionResponseFormat{
			Type: aclopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	return newOpenAIProvider(ctx, chatModel, cfg.Model)
}

func newOpenAIProvider(ctx context.Context, cm model.BaseChatModel, modelName string) (*OpenAIProvider, error) {
	runnable, err := buildEvaluationChain(ctx, cm)
	if err != nil {
		return nil, err
	}
	return &OpenAIProvider{runnable: runnable, model: modelName}, nil
}

func (p *OpenAIProvider) Name() string  { return consts.Provider_OpenAI }
func (p *OpenAIProvider) Model() string { return p.model }

func (p *OpenAIProvider) Generate(ctx context.Context, req *Request) ([]byte, error) {
	return p.runnable.Invoke(ctx, req, compose.WithCallbacks(&chainLogger{}))
}

func buildEvaluationChain(ctx context.Context, cm model.BaseChatModel) (compose.Runnable[*Request, []byte], error) {
	chain := compose.NewChain[*Request, []byte]()
	chain.
		AppendLambda(compose.InvokableLambda(loadEvaluationMessages), compose.WithNodeName(consts.Node_Load)).
		AppendChatModel(cm, compose.WithNodeName(consts.Node_Evaluator)).
		AppendLambda(compose.InvokableLambda(extractReply), compose.WithNodeName(consts.Node_Extract))

	runnable, err := chain.Compile(ctx, compose.WithGraphName(consts.Chain_Evaluation))
	if err != nil {
		return nil, fmt.Errorf("compile evaluation chain: %w", err)
	}
	return runnable, nil
}

// loadEvaluationMessages builds the system turn and a multimodal user turn
// carrying the data URL as an image part.
func loadEvaluationMessages(_ context.Context, req *Request) ([]*schema.Message, error) {
	if req == nil || req.DataURL == "" {
		return nil, ErrEmptyImage
	}
	user := &schema.Message{
		Role: schema.User,
		MultiContent: []schema.ChatMessagePart{
			{
				Type: schema.ChatMessagePartTypeText,
				Text: req.Prompt,
			},
			{
				Type: schema.ChatMessagePartTypeImageURL,
				ImageURL: &schema.ChatMessageImageURL{
					URL:    req.DataURL,
					Detail: schema.ImageURLDetailHigh,
				},
			},
		},
	}
	return []*schema.Message{schema.SystemMessage(req.SystemInstruction), user}, nil
}

func extractReply(_ context.Context, msg *schema.Message) ([]byte, error) {
	if msg == nil || msg.Content == "" {
		return nil, ErrEmptyResponse
	}
	return []byte(msg.Content), nil
}
