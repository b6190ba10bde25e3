// Package openai provides a model.Invoker over the OpenAI Chat Completions API.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/modelmesh/model"
)

// Options configures the OpenAI invoker.
type Options struct {
	APIKey              string
	MaxCompletionTokens int64
}

// Invoker executes prompts against OpenAI models behind the generic
// model.Invoker interface.
type Invoker struct {
	client *openai.Client
	opts   Options
}

// New creates a new OpenAI invoker using the official client.
func New(optFns ...func(o *Options)) *Invoker {
	opts := Options{MaxCompletionTokens: 4096}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := openai.NewClient(clientOpts...)

	return &Invoker{client: &client, opts: opts}
}

// NewFromClient creates a new OpenAI invoker from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Invoker {
	opts := Options{MaxCompletionTokens: 4096}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Invoker{client: client, opts: opts}
}

// Invoke implements model.Invoker.
func (i *Invoker) Invoke(ctx context.Context, modelID, prompt string, cfg model.InvokeConfig) (string, error) {
	maxTokens := i.opts.MaxCompletionTokens
	if cfg.MaxTokens > 0 {
		maxTokens = int64(cfg.MaxTokens)
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(modelID),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxCompletionTokens: openai.Int(maxTokens),
	}
	if cfg.Temperature > 0 {
		params.Temperature = openai.Float(cfg.Temperature)
	}

	resp, err := i.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", model.NewError("openai", modelID, "invoke", mapError(err))
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", model.NewError("openai", modelID, "invoke", model.ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

// mapError folds SDK failures into the package taxonomy by HTTP status.
func mapError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %v", model.ErrTransient, err)
	}
	switch {
	case apiErr.StatusCode == 429:
		return fmt.Errorf("%w: %v", model.ErrQuotaExhausted, err)
	case apiErr.StatusCode == 401 || apiErr.StatusCode == 403:
		return fmt.Errorf("%w: %v", model.ErrAuth, err)
	case apiErr.StatusCode == 400 || apiErr.StatusCode == 422:
		return fmt.Errorf("%w: %v", model.ErrProtocol, err)
	default:
		return fmt.Errorf("%w: %v", model.ErrTransient, err)
	}
}
