package analysis

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/dyike/CortexReview/consts"
	"github.com/dyike/CortexReview/internal/playbook"
)

type GeminiConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
	Playbook    *playbook.Playbook
}

// GeminiProvider calls the Gemini API with the screenshot as an inline part
// and a response schema.
type GeminiProvider struct {
	client      *genai.Client
	model       string
	temperature float32
	schema      *genai.Schema
}

func NewGeminiProvider(ctx context.Context, cfg *GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: cfg.BaseURL,
		},
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPOptions.Timeout = genai.Ptr(cfg.Timeout)
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiProvider{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		schema:      ResponseSchema(cfg.Playbook),
	}, nil
}

func (p *GeminiProvider) Name() string  { return consts.Provider_Gemini }
func (p *GeminiProvider) Model() string { return p.model }

func (p *GeminiProvider) Generate(ctx context.Context, req *Request) ([]byte, error) {
	if len(req.ImageData) == 0 {
		return nil, ErrEmptyImage
	}
	parts := []*genai.Part{
		genai.NewPartFromBytes(req.ImageData, req.MIMEType),
		genai.NewPartFromText(req.Prompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	genCfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(p.temperature),
		ResponseMIMEType: "application/json",
		ResponseSchema:   p.schema,
	}
	if req.SystemInstruction != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, genCfg)
	if err != nil {
		return nil, err
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
	}
	text := resp.Text()
	if text == "" {
		return nil, ErrEmptyResponse
	}
	return []byte(text), nil
}
