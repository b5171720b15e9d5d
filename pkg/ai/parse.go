package ai

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/toM7x7/LLM-mindmap/pkg/model"
	"github.com/toM7x7/LLM-mindmap/pkg/tree"
)

var (
	leadingFence  = regexp.MustCompile("(?i)^\\s*```(?:json)?\\s*")
	trailingFence = regexp.MustCompile("\\s*```\\s*$")
)

// CleanJSON strips a surrounding Markdown code fence and whitespace from model output.
func CleanJSON(output string) string {
	output = leadingFence.ReplaceAllString(output, "")
	output = trailingFence.ReplaceAllString(output, "")
	return strings.TrimSpace(output)
}

func malformed(op string, err error) error {
	return &model.Error{Kind: model.ErrLLMMalformedResponse, Op: op, Message: err.Error(), Err: err}
}

// ParseTree extracts a mind-map tree from model output. The result is normalized
// and carries no ids.
func ParseTree(output string) (*model.Node, error) {
	root, err := tree.Deserialize(CleanJSON(output))
	if err != nil {
		return nil, malformed("parse tree", err)
	}
	tree.Normalize(root)
	return root, nil
}

// ParseChildren extracts proposed children from either {"children": [...]} or a bare array.
func ParseChildren(output string) ([]*model.Node, error) {
	cleaned := CleanJSON(output)

	var children []*model.Node
	if strings.HasPrefix(cleaned, "[") {
		if err := json.Unmarshal([]byte(cleaned), &children); err != nil {
			return nil, malformed("parse children", model.WrapError(model.ErrInvalidFormat, "parse children", err))
		}
	} else {
		var wrapper struct {
			Children []*model.Node `json:"children"`
		}
		if err := json.Unmarshal([]byte(cleaned), &wrapper); err != nil {
			return nil, malformed("parse children", model.WrapError(model.ErrInvalidFormat, "parse children", err))
		}
		children = wrapper.Children
	}

	admitted := children[:0]
	for _, child := range children {
		if child == nil {
			continue
		}
		tree.Normalize(child)
		admitted = append(admitted, child)
	}
	if len(admitted) == 0 {
		return nil, model.NewError(model.ErrLLMMalformedResponse, "parse children", "response contains no children")
	}
	return admitted, nil
}

// ParseSuggestions extracts {"suggestions": [...]} from model output, dropping blank entries.
func ParseSuggestions(output string) ([]string, error) {
	var payload struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(CleanJSON(output)), &payload); err != nil {
		return nil, malformed("parse suggestions", model.WrapError(model.ErrInvalidFormat, "parse suggestions", err))
	}

	suggestions := make([]string, 0, len(payload.Suggestions))
	for _, s := range payload.Suggestions {
		if s = strings.TrimSpace(s); s != "" {
			suggestions = append(suggestions, s)
		}
	}
	if len(suggestions) == 0 {
		return nil, model.NewError(model.ErrLLMMalformedResponse, "parse suggestions", "response contains no suggestions")
	}
	return suggestions, nil
}

// AggregateChat flattens a transcript into "You: " and "Assistant: " lines.
func AggregateChat(messages []model.ChatMessage) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		prefix := "Assistant: "
		if m.Role == model.RoleUser {
			prefix = "You: "
		}
		lines = append(lines, prefix+m.Content)
	}
	return strings.Join(lines, "\n")
}
