package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/toM7x7/LLM-mindmap/pkg/model"
)

// CompletionRequest is a provider-neutral chat completion call.
type CompletionRequest struct {
	Messages    []model.ChatMessage
	Temperature float32
	MaxTokens   int
}

// Completer sends a chat completion request and returns the assistant text.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// OpenAICompleter talks to the OpenAI chat completions API or a compatible server.
type OpenAICompleter struct {
	client *openai.Client
	model  string
}

// NewOpenAICompleter creates a completer for the given key and model.
// baseURL may point at any OpenAI-compatible endpoint; empty keeps the default.
func NewOpenAICompleter(apiKey, modelName, baseURL string) (*OpenAICompleter, error) {
	if apiKey == "" {
		return nil, model.NewError(model.ErrLLMUnavailable, "new completer", "OpenAI API key is not set")
	}
	if modelName == "" {
		modelName = openai.GPT4oMini
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &OpenAICompleter{
		client: openai.NewClientWithConfig(cfg),
		model:  modelName,
	}, nil
}

// Complete implements Completer.
func (o *OpenAICompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:               o.model,
		Messages:            messages,
		Temperature:         req.Temperature,
		MaxCompletionTokens: req.MaxTokens,
	})
	if err != nil {
		return "", mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", model.NewError(model.ErrLLMMalformedResponse, "complete", "response has no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func mapOpenAIError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return model.WrapError(model.ErrNetwork, "complete", err)
	}

	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	if status == http.StatusTooManyRequests {
		return model.WrapError(model.ErrLLMRateLimited, "complete", err)
	}
	return model.WrapError(model.ErrLLMUnavailable, "complete", err)
}

type rateLimited struct {
	next    Completer
	limiter *rate.Limiter
}

// RateLimited wraps next so calls wait for the limiter first. A wait that cannot finish
// before the context ends fails with ErrLLMRateLimited.
func RateLimited(next Completer, limiter *rate.Limiter) Completer {
	return &rateLimited{next: next, limiter: limiter}
}

func (r *rateLimited) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", model.WrapError(model.ErrLLMRateLimited, "complete", err)
	}
	return r.next.Complete(ctx, req)
}
