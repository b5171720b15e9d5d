// Package ai builds prompts for the mind-map assistant, calls a language model and
// turns its replies into trees, children and suggestions the editor can admit.
package ai

import (
	"context"
	"strings"
	"time"

	"github.com/toM7x7/LLM-mindmap/pkg/log"
	"github.com/toM7x7/LLM-mindmap/pkg/metrics"
	"github.com/toM7x7/LLM-mindmap/pkg/model"
)

// Mode names a kind of assistant request.
type Mode string

const (
	ModeChat        Mode = "chat"
	ModeGeneration  Mode = "generation"
	ModeExpansion   Mode = "expansion"
	ModeSuggestions Mode = "suggestions"
	ModeInsights    Mode = "insights"
)

// Bridge turns editor context into language model requests.
type Bridge struct {
	completer Completer
	prompts   *Prompts
	logger    *log.Logger
}

// NewBridge creates a Bridge with the embedded prompts. A nil completer makes every
// request fail with ErrLLMUnavailable.
func NewBridge(completer Completer, logger *log.Logger) (*Bridge, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	prompts, err := DefaultPrompts()
	if err != nil {
		return nil, err
	}
	return &Bridge{completer: completer, prompts: prompts, logger: logger}, nil
}

// ChatInput is the grounding for a chat turn.
type ChatInput struct {
	Summary string
	Node    string
	History []model.ChatMessage
	Message string
}

// NodeInput describes the node a suggestion or expansion request is about.
type NodeInput struct {
	Summary  string
	Title    string
	Notes    string
	Children []string
}

// Chat answers a free-form message grounded in the map summary and the selected node.
func (b *Bridge) Chat(ctx context.Context, in ChatInput) (string, error) {
	if strings.TrimSpace(in.Message) == "" {
		return "", model.NewError(model.ErrValidation, "chat", "message must not be empty")
	}
	system, err := b.prompts.Chat.RenderSystem(in)
	if err != nil {
		return "", err
	}

	messages := make([]model.ChatMessage, 0, len(in.History)+2)
	messages = append(messages, model.ChatMessage{Role: model.RoleSystem, Content: system})
	messages = append(messages, in.History...)
	messages = append(messages, model.ChatMessage{Role: model.RoleUser, Content: in.Message})

	return b.complete(ctx, ModeChat, &b.prompts.Chat, messages)
}

// Generate creates a new map from an instruction.
func (b *Bridge) Generate(ctx context.Context, instruction string) (*model.Node, error) {
	if strings.TrimSpace(instruction) == "" {
		return nil, model.NewError(model.ErrValidation, "generate", "instruction must not be empty")
	}
	return b.generateTree(ctx, &b.prompts.Generation, map[string]string{"Instruction": instruction})
}

// GenerateFromChat creates a new map from the chat transcript.
func (b *Bridge) GenerateFromChat(ctx context.Context, history []model.ChatMessage) (*model.Node, error) {
	if len(history) == 0 {
		return nil, model.NewError(model.ErrValidation, "generate from chat", "chat history is empty")
	}
	return b.generateTree(ctx, &b.prompts.FromChat, map[string]string{"Chat": AggregateChat(history)})
}

// Update proposes a revised version of mapJSON following an instruction.
func (b *Bridge) Update(ctx context.Context, mapJSON, instruction string) (*model.Node, error) {
	if strings.TrimSpace(instruction) == "" {
		return nil, model.NewError(model.ErrValidation, "update", "instruction must not be empty")
	}
	return b.generateTree(ctx, &b.prompts.Update, map[string]string{"Map": mapJSON, "Instruction": instruction})
}

// UpdateFromChat proposes a revised version of mapJSON reflecting the chat transcript.
func (b *Bridge) UpdateFromChat(ctx context.Context, mapJSON string, history []model.ChatMessage) (*model.Node, error) {
	if len(history) == 0 {
		return nil, model.NewError(model.ErrValidation, "update from chat", "chat history is empty")
	}
	return b.generateTree(ctx, &b.prompts.UpdateFromChat, map[string]string{"Map": mapJSON, "Chat": AggregateChat(history)})
}

func (b *Bridge) generateTree(ctx context.Context, prompt *Prompt, data map[string]string) (*model.Node, error) {
	text, err := b.generation(ctx, ModeGeneration, prompt, data)
	if err != nil {
		return nil, err
	}
	root, err := ParseTree(text)
	if err != nil {
		b.logger.Warn(ctx, "Unparseable map from language model", log.Fields{"error": err})
		return nil, err
	}
	return root, nil
}

// generation renders prompt as the user message under the generation system prompt and settings.
func (b *Bridge) generation(ctx context.Context, mode Mode, prompt *Prompt, data interface{}) (string, error) {
	system, err := b.prompts.Generation.RenderSystem(data)
	if err != nil {
		return "", err
	}
	user, err := prompt.RenderUser(data)
	if err != nil {
		return "", err
	}
	return b.complete(ctx, mode, &b.prompts.Generation, []model.ChatMessage{
		{Role: model.RoleSystem, Content: system},
		{Role: model.RoleUser, Content: user},
	})
}

// Expand proposes children for a node.
func (b *Bridge) Expand(ctx context.Context, in NodeInput) ([]*model.Node, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, model.NewError(model.ErrValidation, "expand", "node title must not be empty")
	}
	text, err := b.generation(ctx, ModeExpansion, &b.prompts.Expansion, in)
	if err != nil {
		return nil, err
	}
	children, err := ParseChildren(text)
	if err != nil {
		b.logger.Warn(ctx, "Unparseable expansion from language model", log.Fields{"error": err})
		return nil, err
	}
	return children, nil
}

// Suggest returns short follow-up ideas for a node.
func (b *Bridge) Suggest(ctx context.Context, in NodeInput) ([]string, error) {
	data := struct {
		Summary  string
		Title    string
		Notes    string
		Children string
	}{in.Summary, in.Title, in.Notes, strings.Join(in.Children, ", ")}

	system, err := b.prompts.Suggestions.RenderSystem(data)
	if err != nil {
		return nil, err
	}
	user, err := b.prompts.Suggestions.RenderUser(data)
	if err != nil {
		return nil, err
	}
	text, err := b.complete(ctx, ModeSuggestions, &b.prompts.Suggestions, []model.ChatMessage{
		{Role: model.RoleSystem, Content: system},
		{Role: model.RoleUser, Content: user},
	})
	if err != nil {
		return nil, err
	}
	return ParseSuggestions(text)
}

// Insights analyses the map and returns free text.
func (b *Bridge) Insights(ctx context.Context, mapJSON string) (string, error) {
	data := map[string]string{"Map": mapJSON}
	system, err := b.prompts.Insights.RenderSystem(data)
	if err != nil {
		return "", err
	}
	user, err := b.prompts.Insights.RenderUser(data)
	if err != nil {
		return "", err
	}
	return b.complete(ctx, ModeInsights, &b.prompts.Insights, []model.ChatMessage{
		{Role: model.RoleSystem, Content: system},
		{Role: model.RoleUser, Content: user},
	})
}

// complete sends messages with the sampling parameters of prompt and records the outcome.
func (b *Bridge) complete(ctx context.Context, mode Mode, prompt *Prompt, messages []model.ChatMessage) (string, error) {
	if b.completer == nil {
		return "", model.NewError(model.ErrLLMUnavailable, string(mode), "no language model is configured")
	}

	start := time.Now()
	text, err := b.completer.Complete(ctx, CompletionRequest{
		Messages:    messages,
		Temperature: prompt.Temperature,
		MaxTokens:   prompt.MaxTokens,
	})
	elapsed := time.Since(start)
	metrics.LLMRequests.WithLabelValues(string(mode), metrics.Result(err)).Inc()
	metrics.LLMDuration.WithLabelValues(string(mode)).Observe(elapsed.Seconds())

	if err != nil {
		b.logger.Error(ctx, "Language model request failed", log.Fields{"mode": mode, "error": err, "elapsed": elapsed.String()})
		return "", err
	}
	b.logger.Debug(ctx, "Language model request completed", log.Fields{"mode": mode, "elapsed": elapsed.String()})
	return text, nil
}

// Preset names a canned chat message.
type Preset string

const (
	PresetAsk         Preset = "ask"
	PresetRelated     Preset = "related"
	PresetRestructure Preset = "restructure"
)

// PresetInput fills a preset template.
type PresetInput struct {
	Node     string
	Question string
}

// ComposeChat renders the chat message of a preset without calling the model.
func (b *Bridge) ComposeChat(preset Preset, in PresetInput) (string, error) {
	var prompt *Prompt
	switch preset {
	case PresetAsk:
		if strings.TrimSpace(in.Question) == "" {
			return "", model.NewError(model.ErrValidation, "ask", "question must not be empty")
		}
		prompt = &b.prompts.Ask
	case PresetRelated:
		prompt = &b.prompts.Related
	case PresetRestructure:
		prompt = &b.prompts.Restructure
	default:
		return "", model.NewError(model.ErrValidation, "compose chat", "unknown preset %q", preset)
	}
	if preset != PresetRestructure && strings.TrimSpace(in.Node) == "" {
		return "", model.NewError(model.ErrValidation, string(preset), "a node is required")
	}
	return prompt.RenderUser(in)
}
