// Package openai adapts OpenAI chat completions to model.ChatModel.
package openai

import (
	"context"
	"errors"

	"github.com/dshills/reviewgraph/graph/model"
	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// DefaultModel is used when no model name is given.
const DefaultModel = "gpt-4o-mini"

// ChatModel implements model.ChatModel for OpenAI's API.
//
// Example:
//
//	m, err := openai.NewChatModel(os.Getenv("OPENAI_API_KEY"), "gpt-4o")
//	out, err := m.Chat(ctx, []model.Message{{Role: model.RoleUser, Content: "hi"}})
type ChatModel struct {
	modelName   string
	client      completionsClient
	temperature *float64
}

// completionsClient is the slice of the SDK the adapter uses.
type completionsClient interface {
	New(ctx context.Context, body sdk.ChatCompletionNewParams, opts ...option.RequestOption) (*sdk.ChatCompletion, error)
}

// Option configures a ChatModel.
type Option func(*ChatModel)

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(m *ChatModel) { m.temperature = &t }
}

// NewChatModel creates an OpenAI ChatModel. Extra request options (base
// URL, HTTP client) are passed to the SDK client.
func NewChatModel(apiKey, modelName string, opts []Option, reqOpts ...option.RequestOption) (*ChatModel, error) {
	if apiKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	client := sdk.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, reqOpts...)...)
	m := &ChatModel{
		modelName: modelName,
		client:    &client.Chat.Completions,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Chat implements model.ChatModel.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message) (model.ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return model.ChatOut{}, err
	}

	params := sdk.ChatCompletionNewParams{
		Model:    shared.ChatModel(m.modelName),
		Messages: convertMessages(messages),
	}
	if m.temperature != nil {
		params.Temperature = sdk.Float(*m.temperature)
	}

	completion, err := m.client.New(ctx, params)
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			return model.ChatOut{}, model.ClassifyStatus("openai", apiErr.StatusCode, err)
		}
		return model.ChatOut{}, model.ClassifyError("openai", err)
	}
	if len(completion.Choices) == 0 {
		return model.ChatOut{}, &model.ProviderError{
			Provider: "openai",
			Code:     model.CodeEmptyResponse,
			Message:  "no choices in completion",
		}
	}

	served := completion.Model
	if served == "" {
		served = m.modelName
	}
	return model.ChatOut{
		Text:  completion.Choices[0].Message.Content,
		Model: served,
		Usage: model.Usage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
		},
	}, nil
}

func convertMessages(messages []model.Message) []sdk.ChatCompletionMessageParamUnion {
	out := make([]sdk.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			out = append(out, sdk.SystemMessage(msg.Content))
		case model.RoleAssistant:
			out = append(out, sdk.AssistantMessage(msg.Content))
		default:
			out = append(out, sdk.UserMessage(msg.Content))
		}
	}
	return out
}
