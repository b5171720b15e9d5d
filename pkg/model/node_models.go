// Package model defines the data structures used throughout the mind-map application.
package model

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// NodeType tags a node for rendering and prompt semantics. It carries no structural meaning.
type NodeType string

const (
	NodeTypeDefault  NodeType = "default"
	NodeTypeIdea     NodeType = "idea"
	NodeTypeTask     NodeType = "task"
	NodeTypeQuestion NodeType = "question"
	NodeTypeNote     NodeType = "note"
)

// NodeTypes lists the closed set of node types in display order.
var NodeTypes = []NodeType{NodeTypeDefault, NodeTypeIdea, NodeTypeTask, NodeTypeQuestion, NodeTypeNote}

// DisplayTitleLimit is the number of characters shown before a title is truncated.
const DisplayTitleLimit = 25

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	for _, known := range NodeTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseNodeType converts s to a NodeType, failing for anything outside the closed set.
func ParseNodeType(s string) (NodeType, error) {
	t := NodeType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", NewError(ErrValidation, "parse node type", "unknown node type %q", s)
	}
	return t, nil
}

// NormalizeNodeType coerces empty or unknown values to NodeTypeDefault.
func NormalizeNodeType(t NodeType) NodeType {
	t = NodeType(strings.ToLower(strings.TrimSpace(string(t))))
	if !t.Valid() {
		return NodeTypeDefault
	}
	return t
}

// Node represents a single node of a mind-map tree.
//
// Children are owned by their parent's Children slice. Parent is a derived lookup
// pointer that is never serialized and must be rebuilt after any bulk replacement.
type Node struct {
	ID       int      `json:"id" xml:"id,attr"`
	Title    string   `json:"title" xml:"title,attr"`
	Type     NodeType `json:"type" xml:"type,attr"`
	Notes    string   `json:"notes,omitempty" xml:"notes,omitempty"`
	Children []*Node  `json:"children" xml:"children>node"`
	X        *float64 `json:"x,omitempty" xml:"x,attr,omitempty"`
	Y        *float64 `json:"y,omitempty" xml:"y,attr,omitempty"`
	Parent   *Node    `json:"-" xml:"-"`

	// idMissing is set when the node was decoded without an id.
	idMissing bool
}

// NewNode creates a node with an assigned id and no children.
func NewNode(id int, title string, nodeType NodeType) *Node {
	return &Node{
		ID:       id,
		Title:    title,
		Type:     NormalizeNodeType(nodeType),
		Children: []*Node{},
	}
}

// UnmarshalJSON decodes a node, tolerating missing optional fields.
// A missing, null or negative id marks the node as lacking an id. Null children are dropped.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       *int     `json:"id"`
		Title    string   `json:"title"`
		Type     NodeType `json:"type"`
		Notes    string   `json:"notes"`
		Children []*Node  `json:"children"`
		X        *float64 `json:"x"`
		Y        *float64 `json:"y"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*n = Node{
		Title:    raw.Title,
		Type:     raw.Type,
		Notes:    raw.Notes,
		Children: make([]*Node, 0, len(raw.Children)),
		X:        raw.X,
		Y:        raw.Y,
	}
	if raw.ID == nil || *raw.ID < 0 {
		n.idMissing = true
	} else {
		n.ID = *raw.ID
	}
	for _, child := range raw.Children {
		if child != nil {
			n.Children = append(n.Children, child)
		}
	}
	if n.Type == "" {
		n.Type = NodeTypeDefault
	}
	return nil
}

// HasID reports whether the node carries an id.
func (n *Node) HasID() bool {
	return !n.idMissing
}

// SetID assigns id to the node.
func (n *Node) SetID(id int) {
	n.ID = id
	n.idMissing = false
}

// ClearID marks the node as lacking an id so the next id assignment mints a fresh one.
func (n *Node) ClearID() {
	n.ID = 0
	n.idMissing = true
}

// HasPosition reports whether both coordinates are set.
func (n *Node) HasPosition() bool {
	return n.X != nil && n.Y != nil
}

// Position returns the node coordinates, or zeros when unset.
func (n *Node) Position() (float64, float64) {
	if !n.HasPosition() {
		return 0, 0
	}
	return *n.X, *n.Y
}

// SetPosition sets both coordinates.
func (n *Node) SetPosition(x, y float64) {
	n.X = &x
	n.Y = &y
}

// ClearPosition removes both coordinates.
func (n *Node) ClearPosition() {
	n.X = nil
	n.Y = nil
}

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool {
	return n.Parent == nil
}

// DisplayTitle returns the title truncated for display.
func (n *Node) DisplayTitle() string {
	if utf8.RuneCountInString(n.Title) <= DisplayTitleLimit {
		return n.Title
	}
	runes := []rune(n.Title)
	return string(runes[:DisplayTitleLimit]) + "..."
}

// ChildTitles returns the titles of the direct children in order.
func (n *Node) ChildTitles() []string {
	titles := make([]string, 0, len(n.Children))
	for _, child := range n.Children {
		titles = append(titles, child.Title)
	}
	return titles
}
