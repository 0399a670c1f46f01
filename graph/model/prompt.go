package model

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/prompts"
)

// Prompt is a named pair of Go text/template prompts: a system message and
// a user message. Rendering fails when a declared variable is missing.
//
// Example:
//
//	p := model.NewPrompt("summarize",
//	    "You summarize {{.language}} code.",
//	    "Summarize:\n{{.snippet}}",
//	    []string{"language", "snippet"})
//	msgs, err := p.Messages(map[string]any{"language": "python", "snippet": src})
type Prompt struct {
	Name   string
	system prompts.PromptTemplate
	user   prompts.PromptTemplate
}

// NewPrompt creates a Prompt. An empty system template yields no system message.
func NewPrompt(name, systemTemplate, userTemplate string, inputVars []string) *Prompt {
	return &Prompt{
		Name:   name,
		system: prompts.NewPromptTemplate(systemTemplate, inputVars),
		user:   prompts.NewPromptTemplate(userTemplate, inputVars),
	}
}

// InputVariables returns the variables the prompt expects.
func (p *Prompt) InputVariables() []string {
	return p.user.GetInputVariables()
}

// Messages renders the prompt into chat messages.
func (p *Prompt) Messages(values map[string]any) ([]Message, error) {
	for _, name := range p.InputVariables() {
		if _, ok := values[name]; !ok {
			return nil, fmt.Errorf("prompt %s: missing variable %q", p.Name, name)
		}
	}

	var msgs []Message
	if p.system.Template != "" {
		system, err := p.system.Format(values)
		if err != nil {
			return nil, fmt.Errorf("prompt %s: render system message: %w", p.Name, err)
		}
		msgs = append(msgs, Message{Role: RoleSystem, Content: system})
	}

	user, err := p.user.Format(values)
	if err != nil {
		return nil, fmt.Errorf("prompt %s: render user message: %w", p.Name, err)
	}
	return append(msgs, Message{Role: RoleUser, Content: user}), nil
}

// Oracle sends rendered prompts to a ChatModel and returns the raw answer.
//
// It is the single entry point the workflow uses to consult an LLM, so the
// choice of provider stays with whoever constructs the Oracle.
type Oracle struct {
	model ChatModel
}

// NewOracle wraps m.
func NewOracle(m ChatModel) *Oracle {
	return &Oracle{model: m}
}

// Ask renders p with values and sends it to the model.
func (o *Oracle) Ask(ctx context.Context, p *Prompt, values map[string]any) (ChatOut, error) {
	msgs, err := p.Messages(values)
	if err != nil {
		return ChatOut{}, err
	}
	return o.model.Chat(ctx, msgs)
}
