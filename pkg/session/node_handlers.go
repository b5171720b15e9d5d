package session

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/toM7x7/LLM-mindmap/pkg/model"
	"github.com/toM7x7/LLM-mindmap/pkg/tree"
)

// initNodeCommandHandlers initializes node command handlers
func initNodeCommandHandlers() map[string]CommandHandler {
	return map[string]CommandHandler{
		"add":      handleNodeAdd,
		"delete":   handleNodeDelete,
		"title":    handleNodeTitle,
		"type":     handleNodeType,
		"notes":    handleNodeNotes,
		"move":     handleNodeMove,
		"select":   handleNodeSelect,
		"deselect": handleNodeDeselect,
		"find":     handleNodeFind,
	}
}

func handleNodeAdd(_ context.Context, s *Session, cmd model.Command) (interface{}, error) {
	if len(cmd.Args) < 1 {
		return nil, usage("node add", "<parent id> [title]")
	}
	parentID, err := parseID(cmd.Args[0])
	if err != nil {
		return nil, err
	}
	n, err := s.editor.AddChild(parentID, strings.Join(cmd.Args[1:], " "))
	if err != nil {
		return nil, err
	}
	return tree.Clone(n), nil
}

func handleNodeDelete(_ context.Context, s *Session, cmd model.Command) (interface{}, error) {
	if len(cmd.Args) != 1 {
		return nil, usage("node delete", "<id>")
	}
	id, err := parseID(cmd.Args[0])
	if err != nil {
		return nil, err
	}
	return nil, s.editor.DeleteNode(id)
}

func handleNodeTitle(_ context.Context, s *Session, cmd model.Command) (interface{}, error) {
	if len(cmd.Args) < 2 {
		return nil, usage("node title", "<id> <title>")
	}
	id, err := parseID(cmd.Args[0])
	if err != nil {
		return nil, err
	}
	return nil, s.editor.EditTitle(id, strings.Join(cmd.Args[1:], " "))
}

func handleNodeType(_ context.Context, s *Session, cmd model.Command) (interface{}, error) {
	if len(cmd.Args) != 2 {
		return nil, usage("node type", "<id> <default|idea|task|question|note>")
	}
	id, err := parseID(cmd.Args[0])
	if err != nil {
		return nil, err
	}
	return nil, s.editor.EditType(id, cmd.Args[1])
}

func handleNodeNotes(_ context.Context, s *Session, cmd model.Command) (interface{}, error) {
	if len(cmd.Args) < 1 {
		return nil, usage("node notes", "<id> [text]")
	}
	id, err := parseID(cmd.Args[0])
	if err != nil {
		return nil, err
	}
	return nil, s.editor.EditNotes(id, strings.Join(cmd.Args[1:], " "))
}

func handleNodeMove(_ context.Context, s *Session, cmd model.Command) (interface{}, error) {
	if len(cmd.Args) != 3 {
		return nil, usage("node move", "<id> <x> <y>")
	}
	id, err := parseID(cmd.Args[0])
	if err != nil {
		return nil, err
	}
	x, errX := strconv.ParseFloat(cmd.Args[1], 64)
	y, errY := strconv.ParseFloat(cmd.Args[2], 64)
	if errX != nil || errY != nil || math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return nil, model.NewError(model.ErrValidation, "node move", "coordinates must be finite numbers")
	}
	return nil, s.editor.Move(id, x, y)
}

func handleNodeSelect(_ context.Context, s *Session, cmd model.Command) (interface{}, error) {
	if len(cmd.Args) != 1 {
		return nil, usage("node select", "<id>")
	}
	id, err := parseID(cmd.Args[0])
	if err != nil {
		return nil, err
	}
	n, err := s.editor.Select(id)
	if err != nil {
		return nil, err
	}
	return tree.Clone(n), nil
}

func handleNodeDeselect(_ context.Context, s *Session, _ model.Command) (interface{}, error) {
	s.editor.ClearSelection()
	return nil, nil
}

func handleNodeFind(_ context.Context, s *Session, cmd model.Command) (interface{}, error) {
	term := strings.TrimSpace(strings.Join(cmd.Args, " "))
	if term == "" {
		return nil, usage("node find", "<term>")
	}
	n, err := s.editor.Search(term)
	if err != nil {
		return nil, err
	}
	return tree.Clone(n), nil
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id < 0 {
		return 0, model.NewError(model.ErrValidation, "parse id", "invalid node id %q", arg)
	}
	return id, nil
}

func usage(command, syntax string) error {
	return model.NewError(model.ErrValidation, command, "usage: %s %s", command, syntax)
}
