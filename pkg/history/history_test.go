package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toM7x7/LLM-mindmap/pkg/model"
	"github.com/toM7x7/LLM-mindmap/pkg/tree"
)

func rootWithTitle(title string) *model.Node {
	root := model.NewNode(0, title, model.NodeTypeDefault)
	root.Children = append(root.Children, model.NewNode(1, "child", model.NodeTypeIdea))
	tree.RebuildParentReferences(root)
	return root
}

func TestUndoRedo(t *testing.T) {
	h := New(DefaultDepth)
	s0 := rootWithTitle("s0")
	s1 := rootWithTitle("s1")

	require.NoError(t, h.SaveState(s0))

	restored, ok, err := h.Undo(s1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "s0", restored.Title)
	assert.Same(t, restored, restored.Children[0].Parent, "parents are rebuilt")
	assert.False(t, h.CanUndo())
	assert.True(t, h.CanRedo())

	again, ok, err := h.Redo(restored)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "s1", again.Title)
	assert.Equal(t, 1, h.UndoDepth())
	assert.Equal(t, 0, h.RedoDepth())
}

func TestUndoOnEmptyIsNoop(t *testing.T) {
	h := New(DefaultDepth)
	restored, ok, err := h.Undo(rootWithTitle("x"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, restored)
	assert.Equal(t, 0, h.RedoDepth())

	_, ok, err = h.Redo(rootWithTitle("x"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveStateClearsRedo(t *testing.T) {
	h := New(DefaultDepth)
	require.NoError(t, h.SaveState(rootWithTitle("a")))
	_, _, err := h.Undo(rootWithTitle("b"))
	require.NoError(t, err)
	require.True(t, h.CanRedo())

	require.NoError(t, h.SaveState(rootWithTitle("c")))
	assert.False(t, h.CanRedo())
}

func TestCapacityEvictsOldest(t *testing.T) {
	h := New(3)
	for _, title := range []string{"1", "2", "3", "4", "5"} {
		require.NoError(t, h.SaveState(rootWithTitle(title)))
	}
	assert.Equal(t, 3, h.UndoDepth())

	var titles []string
	current := rootWithTitle("now")
	for h.CanUndo() {
		restored, ok, err := h.Undo(current)
		require.NoError(t, err)
		require.True(t, ok)
		titles = append(titles, restored.Title)
		current = restored
	}
	assert.Equal(t, []string{"5", "4", "3"}, titles)
}

func TestSnapshotsAreIsolatedFromLaterMutation(t *testing.T) {
	h := New(DefaultDepth)
	live := rootWithTitle("before")
	require.NoError(t, h.SaveState(live))

	live.Title = "after"
	live.Children[0].Title = "mutated"

	restored, _, err := h.Undo(live)
	require.NoError(t, err)
	assert.Equal(t, "before", restored.Title)
	assert.Equal(t, "child", restored.Children[0].Title)
}

func TestReset(t *testing.T) {
	h := New(0)
	require.NoError(t, h.SaveState(rootWithTitle("a")))
	h.Reset()
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
}
