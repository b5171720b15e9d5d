package layout

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toM7x7/LLM-mindmap/pkg/model"
	"github.com/toM7x7/LLM-mindmap/pkg/tree"
)

func node(id int, title string, children ...*model.Node) *model.Node {
	n := model.NewNode(id, title, model.NodeTypeDefault)
	n.Children = append(n.Children, children...)
	return n
}

func position(t *testing.T, n *model.Node) (float64, float64) {
	t.Helper()
	require.True(t, n.HasPosition(), "node %d has no position", n.ID)
	return n.Position()
}

func TestComputeTreeLayout_TwoChildren(t *testing.T) {
	root := node(0, "Root", node(1, "A"), node(2, "B"))
	ComputeTreeLayout(root)

	x, y := position(t, root)
	assert.Equal(t, 110.0, x)
	assert.Equal(t, 50.0, y)

	ax, ay := position(t, root.Children[0])
	bx, by := position(t, root.Children[1])
	assert.Equal(t, 50.0, ax)
	assert.Equal(t, 170.0, bx)
	assert.Equal(t, 150.0, ay)
	assert.Equal(t, 150.0, by)
}

func TestComputeTreeLayout_SingleNode(t *testing.T) {
	root := node(0, "Root")
	ComputeTreeLayout(root)
	x, y := position(t, root)
	assert.Equal(t, Margin, x)
	assert.Equal(t, Margin, y)
}

func bigTree() *model.Node {
	return node(0, "Root",
		node(1, "A", node(4, "A1"), node(5, "A2", node(9, "A2a"), node(10, "A2b"), node(11, "A2c"))),
		node(2, "B"),
		node(3, "C", node(6, "C1", node(12, "C1a")), node(7, "C2"), node(8, "C3")),
	)
}

func TestComputeTreeLayout_TidyProperties(t *testing.T) {
	root := bigTree()
	ComputeTreeLayout(root)

	minX, minY := math.Inf(1), math.Inf(1)
	byDepth := map[int][]float64{}
	tree.Walk(root, func(n *model.Node, depth int) {
		x, y := position(t, n)
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		assert.Equal(t, Margin+float64(depth)*LevelHeight, y, "depth drives y for %s", n.Title)
		byDepth[depth] = append(byDepth[depth], x)
	})
	assert.Equal(t, Margin, minX)
	assert.Equal(t, Margin, minY)

	// pre-order keeps left-to-right order within a level, so neighbours must be a slot apart
	for depth, xs := range byDepth {
		for i := 1; i < len(xs); i++ {
			assert.GreaterOrEqual(t, xs[i]-xs[i-1], NodeWidth-1e-9, fmt.Sprintf("depth %d overlap", depth))
		}
	}

	// parents are centred over their first and last child
	tree.Walk(root, func(n *model.Node, _ int) {
		if len(n.Children) == 0 {
			return
		}
		px, _ := n.Position()
		fx, _ := n.Children[0].Position()
		lx, _ := n.Children[len(n.Children)-1].Position()
		assert.InDelta(t, (fx+lx)/2, px, 1e-9, n.Title)
	})
}

func TestComputeTreeLayout_Deterministic(t *testing.T) {
	a, b := bigTree(), bigTree()
	ComputeTreeLayout(a)
	ComputeTreeLayout(b)
	assert.True(t, tree.Equal(a, b))
}

func TestAttachInitialPositions(t *testing.T) {
	root := node(0, "Root", node(1, "A", node(3, "A1")), node(2, "B"))
	AttachInitialPositions(root, DefaultRootX, DefaultRootY)

	cases := map[int][2]float64{
		0: {400, 200},
		1: {550, 200},
		2: {550, 280},
		3: {700, 200},
	}
	for id, want := range cases {
		x, y := position(t, tree.Find(root, id))
		assert.Equal(t, want[0], x, "x of %d", id)
		assert.Equal(t, want[1], y, "y of %d", id)
	}
}

func TestRadial(t *testing.T) {
	x, y := Radial(100, 100, 0, 4)
	assert.InDelta(t, 250, x, 1e-9)
	assert.InDelta(t, 100, y, 1e-9)

	x, y = Radial(100, 100, 1, 4)
	assert.InDelta(t, 100, x, 1e-9)
	assert.InDelta(t, 250, y, 1e-9)

	x, _ = Radial(0, 0, 0, 0)
	assert.InDelta(t, RadialDistance, x, 1e-9)
}

func TestNewChildPositionAndMove(t *testing.T) {
	parent := node(0, "Root")
	parent.SetPosition(400, 200)
	x, y := NewChildPosition(parent, 2)
	assert.Equal(t, 550.0, x)
	assert.Equal(t, 320.0, y)

	child := node(1, "A")
	child.SetPosition(1, 1)
	parent.Children = append(parent.Children, child)
	Move(parent, 0, 0)
	cx, cy := child.Position()
	assert.Equal(t, 1.0, cx)
	assert.Equal(t, 1.0, cy)
}
