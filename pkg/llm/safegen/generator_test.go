package safegen

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ai-partner-be/internal/pkg/logger"
	"ai-partner-be/pkg/llm"

	"github.com/stretchr/testify/assert"
)

type fakeProvider struct {
	out string
	err error
}

func (f *fakeProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return f.out, f.err
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.out, f.err
}

// slowProvider blocks until the context is cancelled, like a hung backend.
type slowProvider struct{}

func (slowProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (slowProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestGenerate_Success(t *testing.T) {
	g := New(&fakeProvider{out: "メッシュ素材がおすすめです"}, time.Second, logger.NewNopLogger())

	got := g.Generate(context.Background(), "椅子について")

	assert.Equal(t, "メッシュ素材がおすすめです", got)
}

func TestGenerate_TimeoutYieldsFixedText(t *testing.T) {
	g := New(slowProvider{}, 10*time.Millisecond, logger.NewNopLogger())

	got := g.Generate(context.Background(), "椅子について")

	assert.Equal(t, TimeoutResponse, got)
}

func TestGenerate_UpstreamFailureYieldsApology(t *testing.T) {
	err := fmt.Errorf("ollama API returned status 500: %w", llm.ErrUpstream)
	g := New(&fakeProvider{err: err}, time.Second, logger.NewNopLogger())

	got := g.Generate(context.Background(), "椅子について")

	assert.Equal(t, ApologyResponse, got, "the error detail must not leak into the answer")
}

func TestGenerate_OtherErrorEmbedsDetail(t *testing.T) {
	g := New(&fakeProvider{err: fmt.Errorf("dial tcp: connection refused")}, time.Second, logger.NewNopLogger())

	got := g.Generate(context.Background(), "椅子について")

	assert.Equal(t, ApologyResponse+": dial tcp: connection refused", got)
}

func TestNew_DefaultsNonPositiveTimeout(t *testing.T) {
	g := New(&fakeProvider{out: "ok"}, 0, logger.NewNopLogger())

	assert.Equal(t, 30*time.Second, g.timeout)
}
