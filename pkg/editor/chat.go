package editor

import (
	"strings"

	"github.com/toM7x7/LLM-mindmap/pkg/model"
)

// AppendChat records a chat turn. Empty messages are rejected.
func (e *Editor) AppendChat(role model.Role, content string) error {
	if strings.TrimSpace(content) == "" {
		return model.NewError(model.ErrValidation, "append chat", "message must not be empty")
	}
	e.chat = append(e.chat, model.ChatMessage{Role: role, Content: content})
	return nil
}

// Chat returns a copy of the transcript.
func (e *Editor) Chat() []model.ChatMessage {
	return append([]model.ChatMessage(nil), e.chat...)
}

func (e *Editor) ClearChat() {
	e.chat = nil
}
