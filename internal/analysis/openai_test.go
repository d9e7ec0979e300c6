package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatModel struct {
	reply string
	err   error
	input []*schema.Message
}

func (m *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.input = input
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *fakeChatModel) BindTools(_ []*schema.ToolInfo) error { return nil }

func TestOpenAIChainSendsImagePart(t *testing.T) {
	cm := &fakeChatModel{reply: "```json\n" + approvedReply + "\n```"}
	provider, err := newOpenAIProvider(context.Background(), cm, "gpt-4o-mini")
	require.NoError(t, err)

	client, err := NewClient(provider, nil)
	require.NoError(t, err)
	result, err := client.Analyze(context.Background(), testDataURL)
	require.NoError(t, err)
	assert.Equal(t, 8, result.ConfluenceScore)
	assert.Equal(t, "openai", client.Provider())

	require.Len(t, cm.input, 2)
	assert.Equal(t, schema.System, cm.input[0].Role)
	assert.Contains(t, cm.input[0].Content, "MarScalper")

	user := cm.input[1]
	assert.Equal(t, schema.User, user.Role)
	require.Len(t, user.MultiContent, 2)
	assert.Contains(t, user.MultiContent[0].Text, "Higher-timeframe trend alignment")
	require.NotNil(t, user.MultiContent[1].ImageURL)
	assert.Equal(t, testDataURL, user.MultiContent[1].ImageURL.URL)
}

func TestOpenAIChainModelError(t *testing.T) {
	cm := &fakeChatModel{err: errors.New("429 too many requests")}
	provider, err := newOpenAIProvider(context.Background(), cm, "gpt-4o-mini")
	require.NoError(t, err)

	client, err := NewClient(provider, nil)
	require.NoError(t, err)
	_, err = client.Analyze(context.Background(), testDataURL)
	assert.ErrorIs(t, err, ErrAnalysisFailed)
}

func TestOpenAIChainEmptyReply(t *testing.T) {
	cm := &fakeChatModel{reply: ""}
	provider, err := newOpenAIProvider(context.Background(), cm, "gpt-4o-mini")
	require.NoError(t, err)

	_, err = provider.Generate(context.Background(), &Request{DataURL: testDataURL, Prompt: "p"})
	assert.ErrorContains(t, err, ErrEmptyResponse.Error())
}

func TestLoadEvaluationMessagesRequiresImage(t *testing.T) {
	_, err := loadEvaluationMessages(context.Background(), &Request{})
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestOpenAIProviderRequestsJSONObject(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": approvedReply},
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30},
		})
	}))
	defer srv.Close()

	provider, err := NewOpenAIProvider(context.Background(), &OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "gpt-4o-mini",
	})
	require.NoError(t, err)
	client, err := NewClient(provider, nil)
	require.NoError(t, err)

	result, err := client.Analyze(context.Background(), testDataURL)
	require.NoError(t, err)
	assert.Equal(t, "EXECUTION APPROVED", result.Verdict)

	require.NotNil(t, body)
	format, ok := body["response_format"].(map[string]any)
	require.True(t, ok, "request has no response_format")
	assert.Equal(t, "json_object", format["type"])
	assert.Equal(t, "gpt-4o-mini", body["model"])
}
