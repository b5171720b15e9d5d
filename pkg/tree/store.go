// Package tree holds the in-memory mind-map node store: identity assignment,
// parent-link maintenance, traversal and JSON serialization.
package tree

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/toM7x7/LLM-mindmap/pkg/model"
)

// IDCounter mints node ids. It only moves forward for the lifetime of an editor session.
type IDCounter struct {
	next int
}

// NewIDCounter returns a counter whose first minted id is start.
func NewIDCounter(start int) *IDCounter {
	if start < 0 {
		start = 0
	}
	return &IDCounter{next: start}
}

// Next returns a fresh id.
func (c *IDCounter) Next() int {
	id := c.next
	c.next++
	return id
}

// Peek returns the id the next call to Next would return.
func (c *IDCounter) Peek() int {
	return c.next
}

// Ensure moves the counter past id so it is never minted again.
func (c *IDCounter) Ensure(id int) {
	if id >= c.next {
		c.next = id + 1
	}
}

// AssignIDs gives every node lacking an id the next counter value, depth-first.
// Ids already present are reserved first, and a repeated id is re-minted at its later occurrence.
func AssignIDs(root *model.Node, counter *IDCounter) {
	if root == nil {
		return
	}

	seen := make(map[int]bool)
	Walk(root, func(n *model.Node, _ int) {
		if !n.HasID() {
			return
		}
		if seen[n.ID] {
			n.ClearID()
			return
		}
		seen[n.ID] = true
		counter.Ensure(n.ID)
	})

	Walk(root, func(n *model.Node, _ int) {
		if !n.HasID() {
			n.SetID(counter.Next())
		}
	})
}

// RebuildParentReferences points every child at its direct container. The root's parent is cleared.
func RebuildParentReferences(root *model.Node) {
	if root == nil {
		return
	}
	root.Parent = nil
	rebuildParents(root)
}

func rebuildParents(n *model.Node) {
	for _, child := range n.Children {
		child.Parent = n
		rebuildParents(child)
	}
}

// Serialize encodes the tree as compact JSON. Parent links are never written.
func Serialize(root *model.Node) (string, error) {
	if root == nil {
		return "", model.NewError(model.ErrValidation, "serialize", "tree is empty")
	}
	data, err := json.Marshal(root)
	if err != nil {
		return "", model.WrapError(model.ErrInvalidFormat, "serialize", err)
	}
	return string(data), nil
}

// SerializeIndent encodes the tree as pretty-printed JSON for export.
func SerializeIndent(root *model.Node) (string, error) {
	if root == nil {
		return "", model.NewError(model.ErrValidation, "serialize", "tree is empty")
	}
	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return "", model.WrapError(model.ErrInvalidFormat, "serialize", err)
	}
	return string(data), nil
}

// Deserialize parses a JSON tree. Parent links are not restored; call RebuildParentReferences.
func Deserialize(text string) (*model.Node, error) {
	trimmed := bytes.TrimSpace([]byte(text))
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, model.NewError(model.ErrInvalidFormat, "deserialize", "expected a JSON object")
	}

	var root model.Node
	if err := json.Unmarshal(trimmed, &root); err != nil {
		return nil, model.WrapError(model.ErrInvalidFormat, "deserialize", err)
	}
	return &root, nil
}

// Clone returns a parent-stripped deep copy of the tree.
func Clone(n *model.Node) *model.Node {
	if n == nil {
		return nil
	}
	c := &model.Node{
		ID:       n.ID,
		Title:    n.Title,
		Type:     n.Type,
		Notes:    n.Notes,
		Children: make([]*model.Node, 0, len(n.Children)),
	}
	if !n.HasID() {
		c.ClearID()
	}
	if n.X != nil {
		x := *n.X
		c.X = &x
	}
	if n.Y != nil {
		y := *n.Y
		c.Y = &y
	}
	for _, child := range n.Children {
		if child != nil {
			c.Children = append(c.Children, Clone(child))
		}
	}
	return c
}

// Walk visits the tree depth-first in pre-order, passing each node and its depth.
func Walk(root *model.Node, fn func(n *model.Node, depth int)) {
	walk(root, 0, fn)
}

func walk(n *model.Node, depth int, fn func(*model.Node, int)) {
	if n == nil {
		return
	}
	fn(n, depth)
	for _, child := range n.Children {
		walk(child, depth+1, fn)
	}
}

// Find returns the node with the given id, or nil.
func Find(root *model.Node, id int) *model.Node {
	if root == nil {
		return nil
	}
	if root.ID == id {
		return root
	}
	for _, child := range root.Children {
		if found := Find(child, id); found != nil {
			return found
		}
	}
	return nil
}

// Contains reports whether the subtree rooted at n holds a node with the given id.
func Contains(n *model.Node, id int) bool {
	return Find(n, id) != nil
}

// Count returns the number of nodes in the tree.
func Count(root *model.Node) int {
	count := 0
	Walk(root, func(*model.Node, int) { count++ })
	return count
}

// MaxID returns the largest id in the tree, or -1 for an empty tree.
func MaxID(root *model.Node) int {
	maxID := -1
	Walk(root, func(n *model.Node, _ int) {
		if n.HasID() && n.ID > maxID {
			maxID = n.ID
		}
	})
	return maxID
}

// RemoveChild detaches the child with the given id from parent and returns it.
func RemoveChild(parent *model.Node, id int) *model.Node {
	for i, child := range parent.Children {
		if child.ID == id {
			parent.Children = append(parent.Children[:i:i], parent.Children[i+1:]...)
			child.Parent = nil
			return child
		}
	}
	return nil
}

// Path returns the titles from the root down to n joined by " > ".
func Path(n *model.Node) string {
	var titles []string
	for cur := n; cur != nil; cur = cur.Parent {
		titles = append(titles, cur.Title)
	}
	for i, j := 0, len(titles)-1; i < j; i, j = i+1, j-1 {
		titles[i], titles[j] = titles[j], titles[i]
	}
	return strings.Join(titles, " > ")
}

// Equal reports whether two trees match on every serialized field. Parent links are ignored.
func Equal(a, b *model.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.ID != b.ID || a.Title != b.Title || a.Type != b.Type || a.Notes != b.Notes {
		return false
	}
	if !equalCoord(a.X, b.X) || !equalCoord(a.Y, b.Y) {
		return false
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

func equalCoord(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
