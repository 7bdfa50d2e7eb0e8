package safegen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-partner-be/internal/pkg/logger"
	"ai-partner-be/pkg/llm"
)

// Fixed fallback texts. Every failure of the model degrades to one of these
// so the pipeline can always persist and deliver a textual answer.
const (
	TimeoutResponse = "申し訳ありません。応答がタイムアウトしました。もう一度お試しください。"
	ApologyResponse = "申し訳ありません。エラーが発生しました。"
)

// Generator wraps an LLM provider so that generation never fails: a deadline
// becomes TimeoutResponse, an upstream model failure becomes ApologyResponse,
// and anything else becomes an apology embedding the error text. The caller
// cannot distinguish a degraded answer from a real one, which is the
// documented contract of this system.
type Generator struct {
	provider llm.LLMProvider
	timeout  time.Duration
	logger   logger.ILogger
}

func New(provider llm.LLMProvider, timeout time.Duration, log logger.ILogger) *Generator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Generator{
		provider: provider,
		timeout:  timeout,
		logger:   log,
	}
}

// Generate runs one bounded generation and always returns usable text.
func (g *Generator) Generate(ctx context.Context, prompt string) string {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	out, err := g.provider.Generate(ctx, prompt)
	if err == nil {
		return out
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		g.logger.Error("SafeGen", "LLM generation timed out", map[string]interface{}{
			"timeout": g.timeout.String(),
		})
		return TimeoutResponse
	case errors.Is(err, llm.ErrUpstream):
		g.logger.Error("SafeGen", "LLM upstream failure", map[string]interface{}{
			"error": err.Error(),
		})
		return ApologyResponse
	default:
		g.logger.Error("SafeGen", "LLM generation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return fmt.Sprintf("%s: %v", ApologyResponse, err)
	}
}
