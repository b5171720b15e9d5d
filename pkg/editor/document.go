package editor

import (
	"github.com/toM7x7/LLM-mindmap/pkg/layout"
	"github.com/toM7x7/LLM-mindmap/pkg/merge"
	"github.com/toM7x7/LLM-mindmap/pkg/model"
	"github.com/toM7x7/LLM-mindmap/pkg/tree"
)

// Import replaces the map with a JSON tree. Malformed input leaves the editor untouched.
func (e *Editor) Import(text string) error {
	root, err := tree.Deserialize(text)
	if err != nil {
		return err
	}
	return e.ImportTree(root)
}

// ImportTree replaces the map with an already parsed tree, keeping its ids and positions.
func (e *Editor) ImportTree(root *model.Node) error {
	if root == nil {
		return model.NewError(model.ErrValidation, "import", "tree is empty")
	}
	root = tree.Clone(root)
	tree.Normalize(root)
	if err := e.commit(); err != nil {
		return err
	}
	e.install(root)
	return nil
}

// Restore loads a persisted map and chat without recording history.
func (e *Editor) Restore(text string, chat []model.ChatMessage) error {
	root, err := tree.Deserialize(text)
	if err != nil {
		return err
	}
	tree.Normalize(root)
	e.install(root)
	e.history.Reset()
	e.chat = append([]model.ChatMessage(nil), chat...)
	e.version++
	return nil
}

// install adopts a parsed tree: ids are minted, parents rebuilt, and the tree is laid
// out if the root has no position. Selection is dropped.
func (e *Editor) install(root *model.Node) {
	tree.AssignIDs(root, e.counter)
	tree.RebuildParentReferences(root)
	if !root.HasPosition() {
		layout.ComputeTreeLayout(root)
	}
	e.root = root
	e.selected = nil
}

// Export returns the map as pretty-printed JSON.
func (e *Editor) Export() (string, error) {
	return tree.SerializeIndent(e.root)
}

// Serialize returns the map as compact JSON for persistence.
func (e *Editor) Serialize() (string, error) {
	return tree.Serialize(e.root)
}

// Clear replaces the map with a single root node at the default position.
func (e *Editor) Clear() error {
	if err := e.commit(); err != nil {
		return err
	}
	root := model.NewNode(0, DefaultRootTitle, model.NodeTypeDefault)
	root.SetPosition(layout.DefaultRootX, layout.DefaultRootY)
	e.root = root
	e.selected = nil
	return nil
}

// ApplyAutoLayout recomputes every position with the tidy-tree layout.
func (e *Editor) ApplyAutoLayout() error {
	if err := e.commit(); err != nil {
		return err
	}
	layout.ComputeTreeLayout(e.root)
	return nil
}

// ReplaceTree installs a generated tree in place of the current map with fresh ids and a tidy layout.
func (e *Editor) ReplaceTree(root *model.Node) error {
	if root == nil {
		return model.NewError(model.ErrValidation, "replace tree", "tree is empty")
	}
	root = tree.Clone(root)
	tree.Normalize(root)
	walkClearIDs(root)
	walkClearPositions(root)
	if err := e.commit(); err != nil {
		return err
	}
	e.install(root)
	return nil
}

// AppendChildren adds generated children under the node with parentID, spread on a circle
// around it. It returns the added nodes.
func (e *Editor) AppendChildren(parentID int, children []*model.Node) ([]*model.Node, error) {
	parent, err := e.Node(parentID)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, model.NewError(model.ErrValidation, "append children", "no children to add")
	}

	added := make([]*model.Node, 0, len(children))
	for _, child := range children {
		c := tree.Clone(child)
		tree.Normalize(c)
		walkClearIDs(c)
		added = append(added, c)
	}
	if err := e.commit(); err != nil {
		return nil, err
	}

	px, py := parent.Position()
	for i, c := range added {
		tree.AssignIDs(c, e.counter)
		c.SetPosition(layout.Radial(px, py, i, len(added)))
		merge.ApplyDefaultPositions(c)
		parent.Children = append(parent.Children, c)
	}
	tree.RebuildParentReferences(e.root)
	return added, nil
}

func walkClearIDs(root *model.Node) {
	tree.Walk(root, func(n *model.Node, _ int) { n.ClearID() })
}

// ApplyUpdate swaps in an updated version of the map. Nodes matched by title keep their
// id and position, unmatched nodes get fresh ids and radial positions, and the selection
// survives if its node still exists.
func (e *Editor) ApplyUpdate(root *model.Node) error {
	if root == nil {
		return model.NewError(model.ErrValidation, "apply update", "tree is empty")
	}
	next := tree.Clone(root)
	tree.Normalize(next)
	walkClearPositions(next)
	if err := e.commit(); err != nil {
		return err
	}

	merge.ReconcileIdentities(e.root, next)
	merge.ReconcilePositions(e.root, next)
	merge.ApplyDefaultPositions(next)

	selectedID := -1
	if e.selected != nil {
		selectedID = e.selected.ID
	}
	tree.AssignIDs(next, e.counter)
	tree.RebuildParentReferences(next)
	e.root = next
	e.selected = nil
	if selectedID >= 0 {
		e.selected = tree.Find(next, selectedID)
	}
	return nil
}

func walkClearPositions(root *model.Node) {
	tree.Walk(root, func(n *model.Node, _ int) { n.ClearPosition() })
}
