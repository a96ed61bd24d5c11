package interpret

import (
	"context"
	"time"

	"github.com/MarcoLSC/echo-emergent/internal/classifier"
	"github.com/MarcoLSC/echo-emergent/internal/types"
	"github.com/oklog/ulid/v2"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Compile-time interface check
var _ Backend = (*OpenAIBackend)(nil)

// remoteConfidence is the confidence attached to a category the remote
// model returned; the model gives a label, not a score.
const remoteConfidence = 0.85

// ChatService defines the interface for making chat-completion API calls.
// This abstraction enables testing without calling the real OpenAI API.
type ChatService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAIBackend asks a chat model to pick one of the fixed categories.
// Any API failure or unrecognized label falls back to the pattern backend,
// so the remote path can only improve on the heuristics, never break them.
type OpenAIBackend struct {
	chat     ChatService
	model    openai.ChatModel
	fallback Backend
}

// NewOpenAIBackend creates a remote interpretation backend.
func NewOpenAIBackend(apiKey, model string, fallback Backend) *OpenAIBackend {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIBackend{
		chat:     client.Chat.Completions,
		model:    openai.ChatModel(model),
		fallback: fallback,
	}
}

// Name identifies the backend and its model.
func (b *OpenAIBackend) Name() string {
	return "openai:" + string(b.model)
}

const systemPrompt = "You classify short user text into exactly one of these categories: " +
	"code, food, creative writing, question, greeting, task, personal, unknown. " +
	"Reply with only the category name."

// Interpret asks the model for a category. Empty text and every failure
// path delegate to the fallback backend.
func (b *OpenAIBackend) Interpret(ctx context.Context, text string) (types.InterpretationResult, error) {
	normalized := classifier.Normalize(text)
	if normalized == "" {
		return b.fallback.Interpret(ctx, text)
	}

	resp, err := b.chat.New(ctx, openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(normalized),
		}),
		Model: openai.F(b.model),
	})
	if err != nil || len(resp.Choices) == 0 {
		return b.fallback.Interpret(ctx, text)
	}

	category := types.Category(classifier.Normalize(resp.Choices[0].Message.Content))
	if !category.Valid() {
		return b.fallback.Interpret(ctx, text)
	}

	return types.InterpretationResult{
		ID:         ulid.Make().String(),
		Category:   category,
		Confidence: remoteConfidence,
		Details:    classifier.Details(normalized, category),
		Timestamp:  time.Now().UTC(),
	}, nil
}
