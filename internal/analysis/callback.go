package analysis

import (
	"context"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/dyike/CortexReview/internal/logger"
)

type startKey struct{ node string }

// chainLogger traces each node of the evaluation chain and the token usage
// reported by the chat model.
type chainLogger struct{}

func (cb *chainLogger) OnStart(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
	logger.Log.Debugf("chain node %s (%s) started", info.Name, info.Component)
	return context.WithValue(ctx, startKey{info.Name}, time.Now())
}

func (cb *chainLogger) OnEnd(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
	entry := logger.Log.WithField("node", info.Name)
	if started, ok := ctx.Value(startKey{info.Name}).(time.Time); ok {
		entry = entry.WithField("elapsed", time.Since(started).Round(time.Millisecond))
	}
	if out, ok := output.(*model.CallbackOutput); ok && out.TokenUsage != nil {
		entry = entry.WithField("prompt_tokens", out.TokenUsage.PromptTokens).
			WithField("completion_tokens", out.TokenUsage.CompletionTokens)
	}
	entry.Debug("chain node finished")
	return ctx
}

func (cb *chainLogger) OnError(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
	logger.Log.WithField("node", info.Name).Warnf("chain node failed: %v", err)
	return ctx
}

func (cb *chainLogger) OnStartWithStreamInput(ctx context.Context, info *callbacks.RunInfo,
	input *schema.StreamReader[callbacks.CallbackInput]) context.Context {
	input.Close()
	return ctx
}

func (cb *chainLogger) OnEndWithStreamOutput(ctx context.Context, info *callbacks.RunInfo,
	output *schema.StreamReader[callbacks.CallbackOutput]) context.Context {
	output.Close()
	return ctx
}
