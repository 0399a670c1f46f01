// Package anthropic adapts Claude's Messages API to model.ChatModel.
package anthropic

import (
	"context"
	"errors"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/dshills/reviewgraph/graph/model"
)

// DefaultModel is used when no model name is given.
const DefaultModel = "claude-3-5-sonnet-20241022"

// defaultMaxTokens bounds the answer length. A review step returns at most
// a corrected snippet or a test file.
const defaultMaxTokens = 4096

// ChatModel implements model.ChatModel for Anthropic's Claude API.
//
// System messages are joined and sent through the separate system
// parameter, as the Messages API requires.
//
// Example:
//
//	m, err := anthropic.NewChatModel(os.Getenv("ANTHROPIC_API_KEY"), "")
//	out, err := m.Chat(ctx, msgs)
type ChatModel struct {
	modelName string
	maxTokens int64
	client    messagesClient
}

// messagesClient is the slice of the SDK the adapter uses.
type messagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// NewChatModel creates a Claude ChatModel. Extra request options (base
// URL, HTTP client, retries) are passed to the SDK client.
func NewChatModel(apiKey, modelName string, reqOpts ...option.RequestOption) (*ChatModel, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	client := sdk.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, reqOpts...)...)
	return &ChatModel{
		modelName: modelName,
		maxTokens: defaultMaxTokens,
		client:    &client.Messages,
	}, nil
}

// Chat implements model.ChatModel.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message) (model.ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return model.ChatOut{}, err
	}

	system, turns := splitSystem(messages)
	params := sdk.MessageNewParams{
		Model:     sdk.Model(m.modelName),
		MaxTokens: m.maxTokens,
		Messages:  turns,
	}
	if system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}

	msg, err := m.client.New(ctx, params)
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			return model.ChatOut{}, model.ClassifyStatus("anthropic", apiErr.StatusCode, err)
		}
		return model.ChatOut{}, model.ClassifyError("anthropic", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return model.ChatOut{}, &model.ProviderError{
			Provider: "anthropic",
			Code:     model.CodeEmptyResponse,
			Message:  "no text content in message",
		}
	}

	served := string(msg.Model)
	if served == "" {
		served = m.modelName
	}
	return model.ChatOut{
		Text:  sb.String(),
		Model: served,
		Usage: model.Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}, nil
}

func splitSystem(messages []model.Message) (string, []sdk.MessageParam) {
	var system []string
	turns := make([]sdk.MessageParam, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			system = append(system, msg.Content)
		case model.RoleAssistant:
			turns = append(turns, sdk.NewAssistantMessage(sdk.NewTextBlock(msg.Content)))
		default:
			turns = append(turns, sdk.NewUserMessage(sdk.NewTextBlock(msg.Content)))
		}
	}
	return strings.Join(system, "\n\n"), turns
}
