// Package anthropic provides a model.Invoker over the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hupe1980/modelmesh/model"
)

// Options configures the Anthropic invoker (API key, default max tokens).
// Extend via functional options to preserve stability.
type Options struct {
	APIKey    string
	MaxTokens int64
}

// Invoker executes prompts against Anthropic models behind the generic
// model.Invoker interface. The model id of each call selects the concrete
// model, so one Invoker serves every Anthropic entry in the registry.
type Invoker struct {
	client *anthropic.Client
	opts   Options
}

// New creates a new Anthropic invoker using the official client.
func New(optFns ...func(o *Options)) *Invoker {
	opts := Options{MaxTokens: 4096}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Invoker{client: &client, opts: opts}
}

// NewFromClient creates a new Anthropic invoker from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Invoker {
	opts := Options{MaxTokens: 4096}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Invoker{client: client, opts: opts}
}

// Invoke implements model.Invoker.
func (i *Invoker) Invoke(ctx context.Context, modelID, prompt string, cfg model.InvokeConfig) (string, error) {
	maxTokens := i.opts.MaxTokens
	if cfg.MaxTokens > 0 {
		maxTokens = int64(cfg.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if cfg.Temperature > 0 {
		params.Temperature = anthropic.Float(cfg.Temperature)
	}

	resp, err := i.client.Messages.New(ctx, params)
	if err != nil {
		return "", model.NewError("anthropic", modelID, "invoke", mapError(err))
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.AsText().Text
		}
	}
	if text == "" {
		return "", model.NewError("anthropic", modelID, "invoke", model.ErrEmptyResponse)
	}
	return text, nil
}

// mapError folds SDK failures into the package taxonomy by HTTP status.
func mapError(err error) error {
	var apiErr *anthropic.Error
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
