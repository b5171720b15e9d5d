// Package layout assigns 2-D coordinates to mind-map nodes.
package layout

import (
	"math"

	"github.com/toM7x7/LLM-mindmap/pkg/model"
)

const (
	// NodeWidth is the horizontal slot per sibling in the tidy layout.
	NodeWidth = 120.0
	// LevelHeight is the vertical distance between depths in the tidy layout.
	LevelHeight = 100.0
	// Margin is where the top-left-most node lands after a tidy layout.
	Margin = 50.0

	DefaultRootX = 400.0
	DefaultRootY = 200.0

	// ChildOffsetX and ChildSpacingY place a manually added child relative to its parent.
	ChildOffsetX  = 150.0
	ChildSpacingY = 60.0

	// InitialSpacingY separates siblings in the initial cascade layout.
	InitialSpacingY = 80.0

	// RadialDistance is the radius used when placing AI-proposed children around a parent.
	RadialDistance = 150.0
)

// AttachInitialPositions places node at (x, y) and cascades its descendants to the right,
// child i at (x+ChildOffsetX, y+i*InitialSpacingY).
func AttachInitialPositions(node *model.Node, x, y float64) {
	if node == nil {
		return
	}
	node.SetPosition(x, y)
	for i, child := range node.Children {
		AttachInitialPositions(child, x+ChildOffsetX, y+float64(i)*InitialSpacingY)
	}
}

// Radial returns the position of child index out of count on a circle around the parent.
func Radial(parentX, parentY float64, index, count int) (float64, float64) {
	if count <= 0 {
		count = 1
	}
	angle := float64(index) / float64(count) * 2 * math.Pi
	return parentX + RadialDistance*math.Cos(angle), parentY + RadialDistance*math.Sin(angle)
}

// NewChildPosition returns where a manually added child goes, given how many children
// the parent had before the insertion.
func NewChildPosition(parent *model.Node, siblings int) (float64, float64) {
	px, py := parent.Position()
	return px + ChildOffsetX, py + float64(siblings)*ChildSpacingY
}

// Move sets the node's own coordinates. Descendants keep theirs.
func Move(node *model.Node, x, y float64) {
	node.SetPosition(x, y)
}
