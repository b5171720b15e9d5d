package model

// Role of a chat message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ChatMessage is one turn of the editor chat.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChangeKind classifies a diff record.
type ChangeKind string

const (
	ChangeAdded       ChangeKind = "added"
	ChangeRemoved     ChangeKind = "removed"
	ChangeChanged     ChangeKind = "changed"
	ChangeTypeChanged ChangeKind = "typeChanged"
)

// ChangeRecord is one entry of a tree comparison.
// Value is set for added and removed records, OldValue and NewValue for the others.
type ChangeRecord struct {
	Kind     ChangeKind `json:"type"`
	Path     string     `json:"path"`
	Value    string     `json:"value,omitempty"`
	OldValue string     `json:"oldValue,omitempty"`
	NewValue string     `json:"newValue,omitempty"`
}
