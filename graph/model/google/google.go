// Package google adapts the Gemini API to model.ChatModel.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/reviewgraph/graph/model"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModel is used when no model name is given.
const DefaultModel = "gemini-1.5-flash"

// ChatModel implements model.ChatModel for Google's Gemini API.
//
// System messages become the model's system instruction. The remaining
// messages are sent as one prompt in order. A response blocked by
// Gemini's safety filters is reported as a content_filtered
// ProviderError.
//
// Example:
//
//	m, err := google.NewChatModel(ctx, os.Getenv("GOOGLE_API_KEY"), "")
//	defer m.Close()
//	out, err := m.Chat(ctx, msgs)
type ChatModel struct {
	modelName string
	client    generator
}

// generator is the slice of the SDK the adapter uses.
type generator interface {
	generate(ctx context.Context, modelName, system string, prompt []genai.Part) (*genai.GenerateContentResponse, error)
	close() error
}

type sdkGenerator struct {
	client *genai.Client
}

func (g *sdkGenerator) generate(ctx context.Context, modelName, system string, prompt []genai.Part) (*genai.GenerateContentResponse, error) {
	// GenerativeModel carries the system instruction, so each call gets its own.
	gm := g.client.GenerativeModel(modelName)
	if system != "" {
		gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	return gm.GenerateContent(ctx, prompt...)
}

func (g *sdkGenerator) close() error {
	return g.client.Close()
}

// NewChatModel creates a Gemini ChatModel. Call Close when done.
func NewChatModel(ctx context.Context, apiKey, modelName string, opts ...option.ClientOption) (*ChatModel, error) {
	if apiKey == "" {
		return nil, errors.New("google: API key is required")
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("google: create client: %w", err)
	}
	return &ChatModel{modelName: modelName, client: &sdkGenerator{client: client}}, nil
}

// Close releases the underlying client.
func (m *ChatModel) Close() error {
	return m.client.close()
}

// Chat implements model.ChatModel.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message) (model.ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return model.ChatOut{}, err
	}

	var system []string
	var prompt []genai.Part
	for _, msg := range messages {
		if msg.Role == model.RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		prompt = append(prompt, genai.Text(msg.Content))
	}

	resp, err := m.client.generate(ctx, m.modelName, strings.Join(system, "\n\n"), prompt)
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return model.ChatOut{}, &model.ProviderError{
				Provider: "google",
				Code:     model.CodeContentFilter,
				Message:  "response blocked by safety filters",
				Cause:    err,
			}
		}
		return model.ChatOut{}, model.ClassifyError("google", err)
	}

	text := responseText(resp)
	if text == "" {
		return model.ChatOut{}, &model.ProviderError{
			Provider: "google",
			Code:     model.CodeEmptyResponse,
			Message:  "no text in candidates",
		}
	}

	out := model.ChatOut{Text: text, Model: m.modelName}
	if resp.UsageMetadata != nil {
		out.Usage = model.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return out, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String()
}
