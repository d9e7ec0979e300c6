// Package analysis sends a trade screenshot to a multimodal model and turns
// the structured reply into an AnalysisResult.
package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dyike/CortexReview/internal/imageload"
	"github.com/dyike/CortexReview/internal/logger"
	"github.com/dyike/CortexReview/internal/playbook"
	"github.com/dyike/CortexReview/models"
)

// Request is everything a provider needs for one evaluation.
type Request struct {
	DataURL           string
	MIMEType          string
	ImageData         []byte
	SystemInstruction string
	Prompt            string
}

// Provider performs one model call and returns the raw JSON reply.
type Provider interface {
	Name() string
	Model() string
	Generate(ctx context.Context, req *Request) ([]byte, error)
}

type Client struct {
	provider Provider
	playbook *playbook.Playbook
	timeout  time.Duration
	system   string
	prompt   string
}

type ClientOption func(*Client)

// WithTimeout bounds every Analyze call. Zero means no deadline.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d >= 0 {
			c.timeout = d
		}
	}
}

func NewClient(provider Provider, pb *playbook.Playbook, opts ...ClientOption) (*Client, error) {
	if provider == nil {
		return nil, fmt.Errorf("analysis provider is required")
	}
	if pb == nil {
		var err error
		if pb, err = playbook.Default(); err != nil {
			return nil, err
		}
	}
	system, err := pb.SystemInstruction()
	if err != nil {
		return nil, err
	}
	prompt, err := pb.EvaluationPrompt(SchemaText)
	if err != nil {
		return nil, err
	}

	c := &Client{
		provider: provider,
		playbook: pb,
		system:   system,
		prompt:   prompt,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Provider() string {
	return c.provider.Name()
}

func (c *Client) Model() string {
	return c.provider.Model()
}

func (c *Client) Playbook() *playbook.Playbook {
	return c.playbook
}

// Analyze evaluates the screenshot held in dataURL. It makes exactly one
// provider call. Any failure is reported as ErrAnalysisFailed.
func (c *Client) Analyze(ctx context.Context, dataURL string) (*models.AnalysisResult, error) {
	if strings.TrimSpace(dataURL) == "" {
		return nil, failed("prepare", ErrEmptyImage)
	}
	mimeType, data, err := imageload.ParseDataURL(dataURL)
	if err != nil {
		return nil, failed("prepare", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req := &Request{
		DataURL:           dataURL,
		MIMEType:          mimeType,
		ImageData:         data,
		SystemInstruction: c.system,
		Prompt:            c.prompt,
	}

	start := time.Now()
	logger.Log.Debugf("analysis request provider=%s model=%s bytes=%d", c.provider.Name(), c.provider.Model(), len(data))
	raw, err := c.provider.Generate(ctx, req)
	if err != nil {
		logger.Log.Errorf("analysis provider %s failed after %s: %v", c.provider.Name(), time.Since(start).Round(time.Millisecond), err)
		return nil, failed(c.provider.Name(), err)
	}

	result, err := Decode(raw)
	if err == nil {
		err = MatchPlaybook(result, c.playbook)
	}
	if err != nil {
		logger.Log.Errorf("analysis reply rejected: %v", err)
		return nil, failed("decode", err)
	}
	logger.Log.Infof("analysis complete provider=%s score=%d valid=%t in %s",
		c.provider.Name(), result.ConfluenceScore, result.IsSetupValid, time.Since(start).Round(time.Millisecond))
	return result, nil
}
