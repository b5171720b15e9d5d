package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/toM7x7/LLM-mindmap/pkg/model"
	"github.com/toM7x7/LLM-mindmap/pkg/session"
)

var colorNames = map[string]color.Attribute{
	"black":   color.FgBlack,
	"red":     color.FgRed,
	"green":   color.FgGreen,
	"yellow":  color.FgYellow,
	"blue":    color.FgBlue,
	"magenta": color.FgMagenta,
	"cyan":    color.FgCyan,
	"white":   color.FgWhite,
	"gray":    color.FgHiBlack,
}

// Visualizer renders maps and command results as text.
type Visualizer struct {
	w        io.Writer
	types    map[model.NodeType]*color.Color
	branch   *color.Color
	id       *color.Color
	selected *color.Color
	added    *color.Color
	removed  *color.Color
	changed  *color.Color
	subtle   *color.Color
}

// NewVisualizer creates a Visualizer writing to w with the colors of prefs.
func NewVisualizer(w io.Writer, prefs Prefs) *Visualizer {
	v := &Visualizer{
		w:        w,
		types:    make(map[model.NodeType]*color.Color),
		branch:   color.New(color.FgHiBlack),
		id:       color.New(color.FgHiYellow),
		selected: color.New(color.Bold, color.Underline),
		added:    color.New(color.FgGreen),
		removed:  color.New(color.FgRed),
		changed:  color.New(color.FgYellow),
		subtle:   color.New(color.FgHiBlack),
	}
	for _, t := range model.NodeTypes {
		attr, ok := colorNames[strings.ToLower(prefs.TypeColors[string(t)])]
		if !ok {
			attr = color.FgWhite
		}
		v.types[t] = color.New(attr)
	}

	all := []*color.Color{v.branch, v.id, v.selected, v.added, v.removed, v.changed, v.subtle}
	for _, c := range v.types {
		all = append(all, c)
	}
	for _, c := range all {
		if prefs.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return v
}

// MapView draws the tree with box-drawing branches. Titles are truncated for display.
func (v *Visualizer) MapView(view *session.MapView, showIDs bool) {
	if view == nil || view.Root == nil {
		fmt.Fprintln(v.w, "No nodes to display")
		return
	}
	fmt.Fprintln(v.w, v.nodeLabel(view.Root, view.SelectedID, showIDs))
	v.children(view.Root, "", view.SelectedID, showIDs)
}

func (v *Visualizer) children(n *model.Node, prefix string, selectedID int, showIDs bool) {
	for i, child := range n.Children {
		last := i == len(n.Children)-1
		connector, next := "├── ", "│   "
		if last {
			connector, next = "└── ", "    "
		}
		fmt.Fprintf(v.w, "%s%s%s\n", prefix, v.branch.Sprint(connector), v.nodeLabel(child, selectedID, showIDs))
		v.children(child, prefix+v.branch.Sprint(next), selectedID, showIDs)
	}
}

func (v *Visualizer) nodeLabel(n *model.Node, selectedID int, showIDs bool) string {
	c, ok := v.types[n.Type]
	if !ok {
		c = v.types[model.NodeTypeDefault]
	}
	label := c.Sprint(n.DisplayTitle())
	if n.ID == selectedID {
		label = v.selected.Sprint("*") + " " + label
	}
	if n.Type != model.NodeTypeDefault {
		label += v.subtle.Sprintf(" (%s)", n.Type)
	}
	if showIDs {
		label += " " + v.id.Sprintf("[%d]", n.ID)
	}
	return label
}

// Node prints one node with its notes.
func (v *Visualizer) Node(n *model.Node) {
	fmt.Fprintln(v.w, v.nodeLabel(n, -1, true))
	if n.Notes != "" {
		fmt.Fprintln(v.w, v.subtle.Sprint("  "+n.Notes))
	}
}

// Changes prints the records of a staged update.
func (v *Visualizer) Changes(changes []model.ChangeRecord) {
	if len(changes) == 0 {
		fmt.Fprintln(v.w, "No changes")
		return
	}
	for _, ch := range changes {
		switch ch.Kind {
		case model.ChangeAdded:
			fmt.Fprintln(v.w, v.added.Sprintf("+ %s: %q", ch.Path, ch.Value))
		case model.ChangeRemoved:
			fmt.Fprintln(v.w, v.removed.Sprintf("- %s: %q", ch.Path, ch.Value))
		case model.ChangeChanged:
			fmt.Fprintln(v.w, v.changed.Sprintf("~ %s: %q -> %q", ch.Path, ch.OldValue, ch.NewValue))
		case model.ChangeTypeChanged:
			fmt.Fprintln(v.w, v.changed.Sprintf("~ %s: type %s -> %s", ch.Path, ch.OldValue, ch.NewValue))
		}
	}
}

// Chat prints a transcript.
func (v *Visualizer) Chat(messages []model.ChatMessage) {
	if len(messages) == 0 {
		fmt.Fprintln(v.w, "No messages")
		return
	}
	for _, m := range messages {
		who := "You"
		if m.Role == model.RoleAssistant {
			who = "Assistant"
		}
		fmt.Fprintf(v.w, "%s %s\n", v.subtle.Sprint(who+":"), m.Content)
	}
}

// Message prints a plain line.
func (v *Visualizer) Message(format string, args ...interface{}) {
	fmt.Fprintf(v.w, format+"\n", args...)
}

// Error prints an error line.
func (v *Visualizer) Error(err error) {
	fmt.Fprintln(v.w, v.removed.Sprint("Error: ")+err.Error())
}
