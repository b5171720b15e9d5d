package session

import (
	"context"

	"github.com/toM7x7/LLM-mindmap/pkg/model"
	"github.com/toM7x7/LLM-mindmap/pkg/storage"
)

// initMapCommandHandlers initializes map command handlers
func initMapCommandHandlers() map[string]CommandHandler {
	return map[string]CommandHandler{
		"new":     handleMapNew,
		"view":    handleMapView,
		"layout":  handleMapLayout,
		"import":  handleMapImport,
		"export":  handleMapExport,
		"save":    handleMapSave,
		"load":    handleMapLoad,
		"summary": handleMapSummary,
	}
}

// initHistoryCommandHandlers initializes history command handlers
func initHistoryCommandHandlers() map[string]CommandHandler {
	return map[string]CommandHandler{
		"undo": handleHistoryUndo,
		"redo": handleHistoryRedo,
	}
}

func handleMapNew(_ context.Context, s *Session, _ model.Command) (interface{}, error) {
	if err := s.editor.Clear(); err != nil {
		return nil, err
	}
	s.proposal = nil
	return s.view(), nil
}

func handleMapView(_ context.Context, s *Session, _ model.Command) (interface{}, error) {
	return s.view(), nil
}

func handleMapLayout(_ context.Context, s *Session, _ model.Command) (interface{}, error) {
	if err := s.editor.ApplyAutoLayout(); err != nil {
		return nil, err
	}
	return s.view(), nil
}

func handleMapImport(_ context.Context, s *Session, cmd model.Command) (interface{}, error) {
	if len(cmd.Args) < 1 || len(cmd.Args) > 2 {
		return nil, usage("map import", "<file> [json|xml]")
	}
	format := storage.FormatFromPath(cmd.Args[0])
	if len(cmd.Args) == 2 {
		format = cmd.Args[1]
	}

	root, err := storage.FileImport(cmd.Args[0], format)
	if err != nil {
		return nil, err
	}
	if err := s.editor.ImportTree(root); err != nil {
		return nil, err
	}
	s.proposal = nil
	return s.view(), nil
}

// handleMapExport writes the map to a file, or returns it as JSON text when no file is given.
func handleMapExport(_ context.Context, s *Session, cmd model.Command) (interface{}, error) {
	if len(cmd.Args) == 0 {
		return s.editor.Export()
	}
	if len(cmd.Args) > 2 {
		return nil, usage("map export", "[file] [json|xml]")
	}
	format := storage.FormatFromPath(cmd.Args[0])
	if len(cmd.Args) == 2 {
		format = cmd.Args[1]
	}
	if err := storage.FileExport(s.editor.Root(), cmd.Args[0], format); err != nil {
		return nil, err
	}
	return "exported to " + cmd.Args[0], nil
}

func handleMapSave(ctx context.Context, s *Session, _ model.Command) (interface{}, error) {
	if err := s.save(ctx); err != nil {
		return nil, err
	}
	return "saved", nil
}

func handleMapLoad(ctx context.Context, s *Session, _ model.Command) (interface{}, error) {
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s.view(), nil
}

func handleMapSummary(_ context.Context, s *Session, _ model.Command) (interface{}, error) {
	return s.editor.Summary(), nil
}

func handleHistoryUndo(_ context.Context, s *Session, _ model.Command) (interface{}, error) {
	return s.editor.Undo()
}

func handleHistoryRedo(_ context.Context, s *Session, _ model.Command) (interface{}, error) {
	return s.editor.Redo()
}
