package tree

import (
	"math"
	"strings"

	"github.com/toM7x7/LLM-mindmap/pkg/model"
)

// UntitledNode replaces empty titles on ingested trees.
const UntitledNode = "Untitled"

// Summary renders the map as nested "title → [child, child]" text for prompts.
func Summary(n *model.Node) string {
	if n == nil {
		return ""
	}
	if len(n.Children) == 0 {
		return n.Title
	}
	parts := make([]string, 0, len(n.Children))
	for _, child := range n.Children {
		parts = append(parts, Summary(child))
	}
	return n.Title + " → [" + strings.Join(parts, ", ") + "]"
}

// Normalize repairs an untrusted tree in place: unknown or empty types become default,
// blank titles become UntitledNode, nil entries are dropped from children and
// non-finite coordinates are cleared.
func Normalize(root *model.Node) {
	Walk(root, func(n *model.Node, _ int) {
		n.Type = model.NormalizeNodeType(n.Type)
		n.Title = strings.TrimSpace(n.Title)
		if n.Title == "" {
			n.Title = UntitledNode
		}
		children := make([]*model.Node, 0, len(n.Children))
		for _, child := range n.Children {
			if child != nil {
				children = append(children, child)
			}
		}
		n.Children = children
		if n.HasPosition() && !(finite(*n.X) && finite(*n.Y)) {
			n.ClearPosition()
		}
	})
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Search returns the first node in depth-first order whose title or notes contain term, ignoring case.
func Search(root *model.Node, term string) *model.Node {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}

	var found *model.Node
	Walk(root, func(n *model.Node, _ int) {
		if found != nil {
			return
		}
		if strings.Contains(strings.ToLower(n.Title), term) || strings.Contains(strings.ToLower(n.Notes), term) {
			found = n
		}
	})
	return found
}
