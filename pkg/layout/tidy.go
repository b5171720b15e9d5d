package layout

import (
	"math"

	"github.com/toM7x7/LLM-mindmap/pkg/model"
)

// tidyNode is the per-node working state of the Reingold-Tilford pass.
// prelim is the preliminary x, mod the subtree modifier, change/shift the
// deferred spacing of Walker's improvement, thread the contour thread and
// ancestor the default ancestor pointer.
type tidyNode struct {
	node     *model.Node
	parent   *tidyNode
	children []*tidyNode
	index    int
	depth    int

	prelim   float64
	mod      float64
	change   float64
	shift    float64
	thread   *tidyNode
	ancestor *tidyNode
	defAnc   *tidyNode

	x float64
}

func buildTidy(n *model.Node, parent *tidyNode, index, depth int) *tidyNode {
	t := &tidyNode{node: n, parent: parent, index: index, depth: depth}
	t.ancestor = t
	for i, child := range n.Children {
		t.children = append(t.children, buildTidy(child, t, i, depth+1))
	}
	return t
}

func separation(a, b *tidyNode) float64 {
	if a.parent == b.parent {
		return 1
	}
	return 2
}

func nextLeft(v *tidyNode) *tidyNode {
	if len(v.children) > 0 {
		return v.children[0]
	}
	return v.thread
}

func nextRight(v *tidyNode) *tidyNode {
	if len(v.children) > 0 {
		return v.children[len(v.children)-1]
	}
	return v.thread
}

func moveSubtree(wm, wp *tidyNode, shift float64) {
	change := shift / float64(wp.index-wm.index)
	wp.change -= change
	wp.shift += shift
	wm.change += change
	wp.prelim += shift
	wp.mod += shift
}

func executeShifts(v *tidyNode) {
	shift, change := 0.0, 0.0
	for i := len(v.children) - 1; i >= 0; i-- {
		w := v.children[i]
		w.prelim += shift
		w.mod += shift
		change += w.change
		shift += w.shift + change
	}
}

func nextAncestor(vim, v, ancestor *tidyNode) *tidyNode {
	if vim.ancestor.parent == v.parent {
		return vim.ancestor
	}
	return ancestor
}

// firstWalk runs in post-order and computes preliminary positions.
func firstWalk(v *tidyNode) {
	for _, child := range v.children {
		firstWalk(child)
	}

	siblings := v.parent.children
	var w *tidyNode
	if v.index > 0 {
		w = siblings[v.index-1]
	}

	if len(v.children) > 0 {
		executeShifts(v)
		midpoint := (v.children[0].prelim + v.children[len(v.children)-1].prelim) / 2
		if w != nil {
			v.prelim = w.prelim + separation(v, w)
			v.mod = v.prelim - midpoint
		} else {
			v.prelim = midpoint
		}
	} else if w != nil {
		v.prelim = w.prelim + separation(v, w)
	}

	anc := v.parent.defAnc
	if anc == nil {
		anc = siblings[0]
	}
	v.parent.defAnc = apportion(v, w, anc)
}

// apportion pushes the subtree of v right until its left contour clears the
// right contour of the siblings to its left.
func apportion(v, w, ancestor *tidyNode) *tidyNode {
	if w == nil {
		return ancestor
	}
	vip, vop := v, v
	vim := w
	vom := v.parent.children[0]
	sip, sop := vip.mod, vop.mod
	sim, som := vim.mod, vom.mod

	for {
		vim = nextRight(vim)
		vip = nextLeft(vip)
		if vim == nil || vip == nil {
			break
		}
		vom = nextLeft(vom)
		vop = nextRight(vop)
		vop.ancestor = v
		shift := vim.prelim + sim - vip.prelim - sip + separation(vim, vip)
		if shift > 0 {
			moveSubtree(nextAncestor(vim, v, ancestor), v, shift)
			sip += shift
			sop += shift
		}
		sim += vim.mod
		sip += vip.mod
		som += vom.mod
		sop += vop.mod
	}

	if vim != nil && nextRight(vop) == nil {
		vop.thread = vim
		vop.mod += sim - sop
	}
	if vip != nil && nextLeft(vom) == nil {
		vom.thread = vip
		vom.mod += sip - som
		ancestor = v
	}
	return ancestor
}

// secondWalk runs in pre-order and resolves final x positions from accumulated modifiers.
func secondWalk(v *tidyNode) {
	v.x = v.prelim + v.parent.mod
	v.mod += v.parent.mod
	for _, child := range v.children {
		secondWalk(child)
	}
}

// tidy lays out the tree in unit coordinates: x in sibling slots, depth in levels.
func tidy(root *model.Node) *tidyNode {
	t := buildTidy(root, nil, 0, 0)
	// a virtual parent lets the root share the sibling code path
	virtual := &tidyNode{children: []*tidyNode{t}}
	virtual.ancestor = virtual
	t.parent = virtual

	firstWalk(t)
	virtual.mod = -t.prelim
	secondWalk(t)

	t.parent = nil
	return t
}

// ComputeTreeLayout assigns tidy-tree coordinates to every node. Siblings spread along x
// in NodeWidth steps, depth grows along y in LevelHeight steps, and the result is
// translated so the smallest x and y both equal Margin.
func ComputeTreeLayout(root *model.Node) {
	if root == nil {
		return
	}
	t := tidy(root)

	minX, minY := math.Inf(1), math.Inf(1)
	eachTidy(t, func(n *tidyNode) {
		minX = math.Min(minX, n.x*NodeWidth)
		minY = math.Min(minY, float64(n.depth)*LevelHeight)
	})
	eachTidy(t, func(n *tidyNode) {
		n.node.SetPosition(n.x*NodeWidth-minX+Margin, float64(n.depth)*LevelHeight-minY+Margin)
	})
}

func eachTidy(t *tidyNode, fn func(*tidyNode)) {
	fn(t)
	for _, child := range t.children {
		eachTidy(child, fn)
	}
}
