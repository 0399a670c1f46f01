package openai

import (
	"context"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type fakeCompletions struct {
	resp *sdk.ChatCompletion
	err  error
}

func (f *fakeCompletions) New(ctx context.Context, body sdk.ChatCompletionNewParams, opts ...option.RequestOption) (*sdk.ChatCompletion, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.resp == nil {
		return &sdk.ChatCompletion{}, nil
	}
	return f.resp, nil
}
