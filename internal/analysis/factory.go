package analysis

import (
	"context"
	"fmt"

	"github.com/dyike/CortexReview/config"
	"github.com/dyike/CortexReview/consts"
	"github.com/dyike/CortexReview/internal/playbook"
)

// NewProvider builds the provider selected in cfg.
func NewProvider(ctx context.Context, cfg *config.Config, pb *playbook.Playbook) (Provider, error) {
	if err := cfg.CheckCredentials(); err != nil {
		return nil, err
	}
	switch cfg.Provider {
	case consts.Provider_Gemini:
		return NewGeminiProvider(ctx, &GeminiConfig{
			APIKey:      cfg.APIKey(),
			Model:       cfg.ModelName(),
			BaseURL:     cfg.BackendURL,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout(),
			Playbook:    pb,
		})
	case consts.Provider_OpenAI:
		return NewOpenAIProvider(ctx, &OpenAIConfig{
			APIKey:      cfg.APIKey(),
			BaseURL:     cfg.BackendURL,
			Model:       cfg.ModelName(),
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout(),
		})
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownProvider, cfg.Provider)
	}
}

// New loads the configured playbook and returns a ready client.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	pb, err := playbook.Load(cfg.PlaybookPath)
	if err != nil {
		return nil, err
	}
	provider, err := NewProvider(ctx, cfg, pb)
	if err != nil {
		return nil, err
	}
	return NewClient(provider, pb, WithTimeout(cfg.Timeout()))
}
