package ai

import (
	"context"
	"strings"

	"github.com/toM7x7/LLM-mindmap/pkg/model"
)

// ProxyType is the request type accepted by the metered AI endpoint.
type ProxyType string

const (
	ProxyMindmapGeneration ProxyType = "mindmap_generation"
	ProxyNodeExpansion     ProxyType = "node_expansion"
	ProxyNodeSuggestions   ProxyType = "node_suggestions"
	ProxyChat              ProxyType = "chat"
)

// ProxyTypes lists the accepted proxy request types.
var ProxyTypes = []ProxyType{ProxyMindmapGeneration, ProxyNodeExpansion, ProxyNodeSuggestions, ProxyChat}

// Proxy runs a raw prompt in the mode selected by kind and returns the model text
// unparsed. mapContext, when set, is passed along as the current map.
func (b *Bridge) Proxy(ctx context.Context, kind ProxyType, prompt, mapContext string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", model.NewError(model.ErrValidation, "proxy", "prompt must not be empty")
	}

	var (
		mode   Mode
		params *Prompt
		system string
		err    error
	)
	switch kind {
	case ProxyMindmapGeneration:
		mode, params = ModeGeneration, &b.prompts.Generation
	case ProxyNodeExpansion:
		mode, params = ModeExpansion, &b.prompts.Generation
	case ProxyNodeSuggestions:
		mode, params = ModeSuggestions, &b.prompts.Suggestions
	case ProxyChat, "":
		mode, params = ModeChat, &b.prompts.Chat
		system, err = params.RenderSystem(ChatInput{Summary: mapContext})
	default:
		return "", model.NewError(model.ErrValidation, "proxy", "unknown request type %q", kind)
	}
	if err != nil {
		return "", err
	}
	if system == "" {
		if system, err = params.RenderSystem(nil); err != nil {
			return "", err
		}
	}

	messages := []model.ChatMessage{
		{Role: model.RoleSystem, Content: system},
		{Role: model.RoleUser, Content: prompt},
	}
	if mapContext != "" && mode != ModeChat {
		messages = append(messages, model.ChatMessage{Role: model.RoleUser, Content: "Current mind map: " + mapContext})
	}
	return b.complete(ctx, mode, params, messages)
}
