// Package editor implements the mutation operations of a mind-map editing session.
//
// An Editor owns one tree together with its selection, undo history, id counter and
// chat transcript. Every operation validates its preconditions before touching the tree,
// saves an undo snapshot, and only then mutates, so a failed operation never leaves a
// partial change behind. Editor is not safe for concurrent use; callers serialize access.
package editor

import (
	"math"
	"strings"

	"github.com/toM7x7/LLM-mindmap/pkg/history"
	"github.com/toM7x7/LLM-mindmap/pkg/layout"
	"github.com/toM7x7/LLM-mindmap/pkg/model"
	"github.com/toM7x7/LLM-mindmap/pkg/tree"
)

const (
	// DefaultRootTitle is the title of a fresh map.
	DefaultRootTitle = "Root"
	// DefaultChildTitle is used when a child is added without a title.
	DefaultChildTitle = "New node"
)

// Editor is the state of one editing session.
type Editor struct {
	root     *model.Node
	selected *model.Node
	history  *history.Manager
	counter  *tree.IDCounter
	chat     []model.ChatMessage
	version  uint64
}

// New creates an editor holding a fresh single-node map.
func New(historyDepth int) *Editor {
	e := &Editor{
		history: history.New(historyDepth),
		counter: tree.NewIDCounter(1),
	}
	e.root = e.freshRoot()
	return e
}

func (e *Editor) freshRoot() *model.Node {
	root := model.NewNode(0, DefaultRootTitle, model.NodeTypeDefault)
	e.counter.Ensure(0)
	layout.AttachInitialPositions(root, layout.DefaultRootX, layout.DefaultRootY)
	return root
}

// Root returns the live tree. Callers must not mutate it directly.
func (e *Editor) Root() *model.Node {
	return e.root
}

// Selected returns the selected node, or nil.
func (e *Editor) Selected() *model.Node {
	return e.selected
}

// Version increases with every change to tree content.
func (e *Editor) Version() uint64 {
	return e.version
}

// NextID returns the id the next created node will receive.
func (e *Editor) NextID() int {
	return e.counter.Peek()
}

func (e *Editor) CanUndo() bool { return e.history.CanUndo() }

func (e *Editor) CanRedo() bool { return e.history.CanRedo() }

// Node returns the live node with the given id.
func (e *Editor) Node(id int) (*model.Node, error) {
	n := tree.Find(e.root, id)
	if n == nil {
		return nil, model.NewError(model.ErrNotFound, "find node", "node %d does not exist", id)
	}
	return n, nil
}

// commit saves the pre-mutation snapshot. It must run after validation and before any change.
func (e *Editor) commit() error {
	if err := e.history.SaveState(e.root); err != nil {
		return err
	}
	e.version++
	return nil
}

// AddChild appends a new child to the node with parentID and selects it.
// An empty title falls back to DefaultChildTitle.
func (e *Editor) AddChild(parentID int, title string) (*model.Node, error) {
	parent, err := e.Node(parentID)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultChildTitle
	}
	if err := e.commit(); err != nil {
		return nil, err
	}

	child := model.NewNode(e.counter.Next(), title, model.NodeTypeDefault)
	child.SetPosition(layout.NewChildPosition(parent, len(parent.Children)))
	child.Parent = parent
	parent.Children = append(parent.Children, child)
	e.selected = child
	return child, nil
}

// DeleteNode removes the node and its subtree. The root can never be deleted.
func (e *Editor) DeleteNode(id int) error {
	n, err := e.Node(id)
	if err != nil {
		return err
	}
	if n.IsRoot() {
		return model.NewError(model.ErrValidation, "delete node", "the root node cannot be deleted")
	}
	if err := e.commit(); err != nil {
		return err
	}

	if e.selected != nil && tree.Contains(n, e.selected.ID) {
		e.selected = nil
	}
	tree.RemoveChild(n.Parent, id)
	return nil
}

// EditTitle replaces the node title with the trimmed value.
func (e *Editor) EditTitle(id int, title string) error {
	n, err := e.Node(id)
	if err != nil {
		return err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return model.NewError(model.ErrValidation, "edit title", "title must not be empty")
	}
	if title == n.Title {
		return nil
	}
	if err := e.commit(); err != nil {
		return err
	}
	n.Title = title
	return nil
}

// EditType sets the node type. Values outside the closed set are rejected.
func (e *Editor) EditType(id int, nodeType string) error {
	n, err := e.Node(id)
	if err != nil {
		return err
	}
	t, err := model.ParseNodeType(nodeType)
	if err != nil {
		return err
	}
	if t == n.Type {
		return nil
	}
	if err := e.commit(); err != nil {
		return err
	}
	n.Type = t
	return nil
}

// EditNotes replaces the node notes.
func (e *Editor) EditNotes(id int, notes string) error {
	n, err := e.Node(id)
	if err != nil {
		return err
	}
	if notes == n.Notes {
		return nil
	}
	if err := e.commit(); err != nil {
		return err
	}
	n.Notes = notes
	return nil
}

// Move places the node at (x, y). Descendants keep their coordinates.
func (e *Editor) Move(id int, x, y float64) error {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return model.NewError(model.ErrValidation, "move", "coordinates must be finite numbers")
	}
	n, err := e.Node(id)
	if err != nil {
		return err
	}
	if err := e.commit(); err != nil {
		return err
	}
	layout.Move(n, x, y)
	return nil
}

// Select marks the node as selected. Selection is view state and is not recorded in history.
func (e *Editor) Select(id int) (*model.Node, error) {
	n, err := e.Node(id)
	if err != nil {
		return nil, err
	}
	e.selected = n
	return n, nil
}

func (e *Editor) ClearSelection() {
	e.selected = nil
}

// Undo restores the previous state. It reports false when there is nothing to undo.
func (e *Editor) Undo() (bool, error) {
	restored, ok, err := e.history.Undo(e.root)
	if err != nil || !ok {
		return false, err
	}
	e.swap(restored)
	return true, nil
}

// Redo reapplies the last undone change.
func (e *Editor) Redo() (bool, error) {
	restored, ok, err := e.history.Redo(e.root)
	if err != nil || !ok {
		return false, err
	}
	e.swap(restored)
	return true, nil
}

// swap installs root as the live tree and re-resolves the selection by id.
func (e *Editor) swap(root *model.Node) {
	tree.RebuildParentReferences(root)
	tree.AssignIDs(root, e.counter)
	var selectedID = -1
	if e.selected != nil {
		selectedID = e.selected.ID
	}
	e.root = root
	e.selected = nil
	if selectedID >= 0 {
		e.selected = tree.Find(root, selectedID)
	}
	e.version++
}

// Search selects and returns the first node whose title or notes contain term.
func (e *Editor) Search(term string) (*model.Node, error) {
	n := tree.Search(e.root, term)
	if n == nil {
		return nil, model.NewError(model.ErrNotFound, "search", "no node matches %q", term)
	}
	e.selected = n
	return n, nil
}

// Summary renders the current map for prompts.
func (e *Editor) Summary() string {
	return tree.Summary(e.root)
}
