package interpret

import (
	"context"
	"errors"
	"testing"

	"github.com/MarcoLSC/echo-emergent/internal/types"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// fakeChat implements ChatService with a canned completion.
type fakeChat struct {
	content string
	err     error
	calls   int
}

func (f *fakeChat) New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.content}},
		},
	}, nil
}

func newRemoteBackend(chat ChatService) *OpenAIBackend {
	return &OpenAIBackend{
		chat:     chat,
		model:    openai.ChatModelGPT4oMini,
		fallback: NewPatternBackend(&stubPrefs{}, WithFailureRate(0), WithLatency(0, 0)),
	}
}

func TestOpenAIBackend_UsesModelLabel(t *testing.T) {
	chat := &fakeChat{content: "Creative Writing"}
	backend := newRemoteBackend(chat)

	result, err := backend.Interpret(context.Background(), "once upon a time")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}

	if result.Category != types.CategoryCreativeWriting {
		t.Errorf("category = %q, want %q", result.Category, types.CategoryCreativeWriting)
	}
	if result.Confidence != remoteConfidence {
		t.Errorf("confidence = %v, want %v", result.Confidence, remoteConfidence)
	}
	if result.ID == "" {
		t.Error("result id is empty")
	}
	if chat.calls != 1 {
		t.Errorf("chat calls = %d, want 1", chat.calls)
	}
}

func TestOpenAIBackend_FallsBackOnAPIError(t *testing.T) {
	chat := &fakeChat{err: errors.New("rate limited")}
	backend := newRemoteBackend(chat)

	result, err := backend.Interpret(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}

	// The pattern fallback handles the request.
	if result.Category != types.CategoryGreeting {
		t.Errorf("category = %q, want %q from fallback", result.Category, types.CategoryGreeting)
	}
}

func TestOpenAIBackend_FallsBackOnUnrecognizedLabel(t *testing.T) {
	chat := &fakeChat{content: "sports commentary"}
	backend := newRemoteBackend(chat)

	result, err := backend.Interpret(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}

	if result.Category != types.CategoryGreeting {
		t.Errorf("category = %q, want %q from fallback", result.Category, types.CategoryGreeting)
	}
}

func TestOpenAIBackend_EmptyTextSkipsRemoteCall(t *testing.T) {
	chat := &fakeChat{content: "greeting"}
	backend := newRemoteBackend(chat)

	result, err := backend.Interpret(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}

	if chat.calls != 0 {
		t.Errorf("chat calls = %d, want 0 for empty text", chat.calls)
	}
	if result.Category != types.CategoryUnknown || result.Confidence != 0 {
		t.Errorf("result = %q/%v, want unknown/0", result.Category, result.Confidence)
	}
}
