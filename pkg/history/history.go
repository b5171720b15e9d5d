// Package history keeps bounded undo and redo stacks of tree snapshots.
package history

import (
	"github.com/toM7x7/LLM-mindmap/pkg/model"
	"github.com/toM7x7/LLM-mindmap/pkg/tree"
)

// DefaultDepth is the number of undo steps kept when no depth is configured.
const DefaultDepth = 20

// Manager owns the undo and redo stacks. Snapshots are serialized trees, so later
// mutations of the live tree can never reach them.
type Manager struct {
	undo     []string
	redo     []string
	maxDepth int
}

// New creates a Manager keeping at most maxDepth undo snapshots.
func New(maxDepth int) *Manager {
	if maxDepth <= 0 {
		maxDepth = DefaultDepth
	}
	return &Manager{maxDepth: maxDepth}
}

// SaveState records current as the state to return to on the next Undo.
// The oldest snapshot is evicted past capacity and the redo stack is always cleared.
func (m *Manager) SaveState(current *model.Node) error {
	snap, err := tree.Serialize(current)
	if err != nil {
		return err
	}
	m.undo = append(m.undo, snap)
	if len(m.undo) > m.maxDepth {
		m.undo = append(m.undo[:0:0], m.undo[len(m.undo)-m.maxDepth:]...)
	}
	m.redo = nil
	return nil
}

// Undo returns the previous state and pushes current onto the redo stack.
// It reports false and leaves everything untouched when there is nothing to undo.
func (m *Manager) Undo(current *model.Node) (*model.Node, bool, error) {
	if len(m.undo) == 0 {
		return nil, false, nil
	}
	restored, err := restore(m.undo[len(m.undo)-1])
	if err != nil {
		return nil, false, err
	}
	snap, err := tree.Serialize(current)
	if err != nil {
		return nil, false, err
	}
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, snap)
	return restored, true, nil
}

// Redo is the mirror of Undo.
func (m *Manager) Redo(current *model.Node) (*model.Node, bool, error) {
	if len(m.redo) == 0 {
		return nil, false, nil
	}
	restored, err := restore(m.redo[len(m.redo)-1])
	if err != nil {
		return nil, false, err
	}
	snap, err := tree.Serialize(current)
	if err != nil {
		return nil, false, err
	}
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, snap)
	return restored, true, nil
}

func restore(snap string) (*model.Node, error) {
	root, err := tree.Deserialize(snap)
	if err != nil {
		return nil, err
	}
	tree.RebuildParentReferences(root)
	return root, nil
}

func (m *Manager) CanUndo() bool { return len(m.undo) > 0 }

func (m *Manager) CanRedo() bool { return len(m.redo) > 0 }

func (m *Manager) UndoDepth() int { return len(m.undo) }

func (m *Manager) RedoDepth() int { return len(m.redo) }

// Reset drops both stacks.
func (m *Manager) Reset() {
	m.undo = nil
	m.redo = nil
}
