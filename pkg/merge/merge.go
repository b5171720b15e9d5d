// Package merge compares an AI-proposed tree against the current one and carries
// positions across. Nodes are matched by title at each level, so two siblings with
// the same title are indistinguishable and a renamed node shows up as removed plus added.
package merge

import (
	"github.com/toM7x7/LLM-mindmap/pkg/layout"
	"github.com/toM7x7/LLM-mindmap/pkg/model"
)

// PathSeparator joins titles in change record paths.
const PathSeparator = " > "

// Diff lists the changes that turn prev into next, depth-first from parent to child.
func Diff(prev, next *model.Node) []model.ChangeRecord {
	if prev == nil || next == nil {
		return nil
	}
	return diff(prev, next, "")
}

func diff(prev, next *model.Node, path string) []model.ChangeRecord {
	var changes []model.ChangeRecord

	if prev.Title != next.Title {
		changes = append(changes, model.ChangeRecord{
			Kind:     model.ChangeChanged,
			Path:     path,
			OldValue: prev.Title,
			NewValue: next.Title,
		})
	}

	prevType, nextType := model.NormalizeNodeType(prev.Type), model.NormalizeNodeType(next.Type)
	if prevType != nextType {
		changes = append(changes, model.ChangeRecord{
			Kind:     model.ChangeTypeChanged,
			Path:     path,
			OldValue: string(prevType),
			NewValue: string(nextType),
		})
	}

	for _, nextChild := range next.Children {
		match := findByTitle(prev.Children, nextChild.Title)
		if match == nil {
			changes = append(changes, model.ChangeRecord{
				Kind:  model.ChangeAdded,
				Path:  join(path, next.Title),
				Value: nextChild.Title,
			})
			continue
		}
		changes = append(changes, diff(match, nextChild, join(path, next.Title))...)
	}

	for _, prevChild := range prev.Children {
		if findByTitle(next.Children, prevChild.Title) == nil {
			changes = append(changes, model.ChangeRecord{
				Kind:  model.ChangeRemoved,
				Path:  join(path, prev.Title),
				Value: prevChild.Title,
			})
		}
	}

	return changes
}

func join(path, title string) string {
	if path == "" {
		return title
	}
	return path + PathSeparator + title
}

// findByTitle returns the first node in nodes with the given title.
func findByTitle(nodes []*model.Node, title string) *model.Node {
	for _, n := range nodes {
		if n.Title == title {
			return n
		}
	}
	return nil
}

// ReconcilePositions copies coordinates from prev nodes onto their title-matched
// counterparts in next. Unmatched nodes keep whatever position they had.
func ReconcilePositions(prev, next *model.Node) {
	if prev == nil || next == nil {
		return
	}
	if prev.HasPosition() {
		next.SetPosition(prev.Position())
	}
	for _, nextChild := range next.Children {
		if match := findByTitle(prev.Children, nextChild.Title); match != nil {
			ReconcilePositions(match, nextChild)
		}
	}
}

// ApplyDefaultPositions positions every node still lacking coordinates: the root at the
// canvas default, other nodes on a circle around their parent by sibling index and count.
func ApplyDefaultPositions(root *model.Node) {
	if root == nil {
		return
	}
	if !root.HasPosition() {
		root.SetPosition(layout.DefaultRootX, layout.DefaultRootY)
	}
	applyDefaults(root)
}

func applyDefaults(parent *model.Node) {
	px, py := parent.Position()
	for i, child := range parent.Children {
		if !child.HasPosition() {
			child.SetPosition(layout.Radial(px, py, i, len(parent.Children)))
		}
		applyDefaults(child)
	}
}

// ReconcileIdentities copies ids from prev nodes onto their title-matched counterparts
// in next, so selection and references survive an update. Nodes without a match are
// left without an id for the caller to mint.
func ReconcileIdentities(prev, next *model.Node) {
	if prev == nil || next == nil {
		return
	}
	next.SetID(prev.ID)
	for _, nextChild := range next.Children {
		if match := findByTitle(prev.Children, nextChild.Title); match != nil {
			ReconcileIdentities(match, nextChild)
		} else {
			clearIDs(nextChild)
		}
	}
}

func clearIDs(n *model.Node) {
	n.ClearID()
	for _, child := range n.Children {
		clearIDs(child)
	}
}
