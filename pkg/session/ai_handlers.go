package session

import (
	"context"
	"strings"

	"github.com/toM7x7/LLM-mindmap/pkg/ai"
	"github.com/toM7x7/LLM-mindmap/pkg/log"
	"github.com/toM7x7/LLM-mindmap/pkg/merge"
	"github.com/toM7x7/LLM-mindmap/pkg/model"
	"github.com/toM7x7/LLM-mindmap/pkg/tree"
)

// initChatCommandHandlers initializes chat command handlers
func initChatCommandHandlers() map[string]CommandHandler {
	return map[string]CommandHandler{
		"send":  handleChatSend,
		"show":  handleChatShow,
		"clear": handleChatClear,
	}
}

// initAICommandHandlers initializes AI command handlers
func initAICommandHandlers() map[string]CommandHandler {
	return map[string]CommandHandler{
		"generate": handleAIGenerate,
		"fromchat": handleAIFromChat,
		"update":   handleAIUpdate,
		"confirm":  handleAIConfirm,
		"cancel":   handleAICancel,
		"expand":   handleAIExpand,
		"suggest":  handleAISuggest,
		"insights": handleAIInsights,

		"ask":         handleAIAsk,
		"related":     handleAIRelated,
		"restructure": handleAIRestructure,
	}
}

// handleChatSend records the user message, asks the model and records its reply.
// A failed call leaves the user message in the transcript.
func handleChatSend(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	message := strings.TrimSpace(strings.Join(cmd.Args, " "))
	if message == "" {
		return nil, usage("chat send", "<message>")
	}
	if err := s.requireBridge("chat"); err != nil {
		return nil, err
	}
	return s.chatSend(ctx, message)
}

// chatSend records message, asks the model and records its reply.
func (s *Session) chatSend(ctx context.Context, message string) (string, error) {
	in := ai.ChatInput{Summary: s.editor.Summary(), History: s.editor.Chat(), Message: message}
	if sel := s.editor.Selected(); sel != nil {
		in.Node = sel.Title
	}
	if err := s.editor.AppendChat(model.RoleUser, message); err != nil {
		return "", err
	}

	var (
		reply string
		err   error
	)
	s.unlocked(func() { reply, err = s.bridge.Chat(ctx, in) })
	if err != nil {
		return "", err
	}
	if err := s.editor.AppendChat(model.RoleAssistant, reply); err != nil {
		return "", err
	}
	return reply, nil
}

// handleAIAsk sends a question about the selected node to the chat.
func handleAIAsk(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	question := strings.TrimSpace(strings.Join(cmd.Args, " "))
	if question == "" {
		return nil, usage("ai ask", "<question>")
	}
	sel := s.editor.Selected()
	if sel == nil {
		return nil, model.NewError(model.ErrValidation, "ai ask", "select a node first")
	}
	return s.sendPreset(ctx, ai.PresetAsk, ai.PresetInput{Node: sel.Title, Question: question})
}

// handleAIRelated asks the chat for ideas related to a node.
func handleAIRelated(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	n, err := s.targetNode("ai related", cmd)
	if err != nil {
		return nil, err
	}
	return s.sendPreset(ctx, ai.PresetRelated, ai.PresetInput{Node: n.Title})
}

// handleAIRestructure asks the chat how the whole map could be reorganized.
func handleAIRestructure(ctx context.Context, s *Session, _ model.Command) (interface{}, error) {
	return s.sendPreset(ctx, ai.PresetRestructure, ai.PresetInput{})
}

func (s *Session) sendPreset(ctx context.Context, preset ai.Preset, in ai.PresetInput) (interface{}, error) {
	if err := s.requireBridge("ai " + string(preset)); err != nil {
		return nil, err
	}
	message, err := s.bridge.ComposeChat(preset, in)
	if err != nil {
		return nil, err
	}
	return s.chatSend(ctx, message)
}

func handleChatShow(_ context.Context, s *Session, _ model.Command) (interface{}, error) {
	return s.editor.Chat(), nil
}

func handleChatClear(_ context.Context, s *Session, _ model.Command) (interface{}, error) {
	s.editor.ClearChat()
	return nil, nil
}

func handleAIGenerate(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	instruction := strings.TrimSpace(strings.Join(cmd.Args, " "))
	if instruction == "" {
		return nil, usage("ai generate", "<instruction>")
	}
	return s.generate(ctx, func(ctx context.Context) (*model.Node, error) {
		return s.bridge.Generate(ctx, instruction)
	})
}

func handleAIFromChat(ctx context.Context, s *Session, _ model.Command) (interface{}, error) {
	history := s.editor.Chat()
	if len(history) == 0 {
		return nil, model.NewError(model.ErrValidation, "ai fromchat", "chat history is empty")
	}
	return s.generate(ctx, func(ctx context.Context) (*model.Node, error) {
		return s.bridge.GenerateFromChat(ctx, history)
	})
}

// generate runs a tree-producing call and replaces the map with its result,
// unless the map changed or a newer request was issued in the meantime.
func (s *Session) generate(ctx context.Context, call func(ctx context.Context) (*model.Node, error)) (interface{}, error) {
	if err := s.requireBridge("generate"); err != nil {
		return nil, err
	}
	req := s.beginRequest(ai.ModeGeneration)

	var (
		root *model.Node
		err  error
	)
	s.unlocked(func() { root, err = call(ctx) })
	if err != nil {
		return nil, err
	}
	if err := s.stale(req); err != nil {
		s.logger.Info(ctx, "Discarding stale generation", log.Fields{"sessionID": s.ID})
		return nil, err
	}
	if err := s.editor.ReplaceTree(root); err != nil {
		return nil, err
	}
	s.proposal = nil
	return s.view(), nil
}

// handleAIUpdate asks for a revised map and stages it with its diff. Without an
// instruction the chat transcript drives the update.
func handleAIUpdate(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	if err := s.requireBridge("update"); err != nil {
		return nil, err
	}
	instruction := strings.TrimSpace(strings.Join(cmd.Args, " "))
	history := s.editor.Chat()
	if instruction == "" && len(history) == 0 {
		return nil, model.NewError(model.ErrValidation, "ai update", "give an instruction or chat first")
	}
	mapJSON, err := s.editor.Export()
	if err != nil {
		return nil, err
	}
	base := tree.Clone(s.editor.Root())
	req := s.beginRequest(ai.ModeGeneration)

	var root *model.Node
	s.unlocked(func() {
		if instruction != "" {
			root, err = s.bridge.Update(ctx, mapJSON, instruction)
		} else {
			root, err = s.bridge.UpdateFromChat(ctx, mapJSON, history)
		}
	})
	if err != nil {
		return nil, err
	}
	if err := s.superseded(req); err != nil {
		return nil, err
	}

	s.proposal = &Proposal{
		Root:        root,
		Changes:     merge.Diff(base, root),
		BaseVersion: req.version,
	}
	return s.proposal, nil
}

// handleAIConfirm applies the staged update. Confirmation is explicit, so a proposal
// computed against an older map is still applied.
func handleAIConfirm(ctx context.Context, s *Session, _ model.Command) (interface{}, error) {
	p := s.proposal
	if p == nil {
		return nil, model.NewError(model.ErrValidation, "ai confirm", "no update is waiting for confirmation")
	}
	if p.BaseVersion != s.editor.Version() {
		s.logger.Warn(ctx, "Applying update proposed for an older map", log.Fields{
			"sessionID": s.ID, "base": p.BaseVersion, "current": s.editor.Version(),
		})
	}
	if err := s.editor.ApplyUpdate(p.Root); err != nil {
		return nil, err
	}
	s.proposal = nil
	return s.view(), nil
}

func handleAICancel(_ context.Context, s *Session, _ model.Command) (interface{}, error) {
	if s.proposal == nil {
		return nil, model.NewError(model.ErrValidation, "ai cancel", "no update is waiting for confirmation")
	}
	s.proposal = nil
	return nil, nil
}

func handleAIExpand(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	if err := s.requireBridge("expand"); err != nil {
		return nil, err
	}
	n, err := s.targetNode("ai expand", cmd)
	if err != nil {
		return nil, err
	}
	in := s.nodeInput(n)
	parentID := n.ID
	req := s.beginRequest(ai.ModeExpansion)

	var children []*model.Node
	s.unlocked(func() { children, err = s.bridge.Expand(ctx, in) })
	if err != nil {
		return nil, err
	}
	if err := s.stale(req); err != nil {
		s.logger.Info(ctx, "Discarding stale expansion", log.Fields{"sessionID": s.ID, "nodeID": parentID})
		return nil, err
	}

	added, err := s.editor.AppendChildren(parentID, children)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Node, 0, len(added))
	for _, c := range added {
		out = append(out, tree.Clone(c))
	}
	return out, nil
}

func handleAISuggest(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	if err := s.requireBridge("suggest"); err != nil {
		return nil, err
	}
	n, err := s.targetNode("ai suggest", cmd)
	if err != nil {
		return nil, err
	}
	in := s.nodeInput(n)
	req := s.beginRequest(ai.ModeSuggestions)

	var suggestions []string
	s.unlocked(func() { suggestions, err = s.bridge.Suggest(ctx, in) })
	if err != nil {
		return nil, err
	}
	if err := s.superseded(req); err != nil {
		return nil, err
	}
	return suggestions, nil
}

func handleAIInsights(ctx context.Context, s *Session, _ model.Command) (interface{}, error) {
	if err := s.requireBridge("insights"); err != nil {
		return nil, err
	}
	mapJSON, err := s.editor.Export()
	if err != nil {
		return nil, err
	}
	req := s.beginRequest(ai.ModeInsights)

	var text string
	s.unlocked(func() { text, err = s.bridge.Insights(ctx, mapJSON) })
	if err != nil {
		return nil, err
	}
	if err := s.superseded(req); err != nil {
		return nil, err
	}
	return text, nil
}

// targetNode resolves the node named by the first argument, or the selection.
func (s *Session) targetNode(op string, cmd model.Command) (*model.Node, error) {
	if len(cmd.Args) > 0 {
		id, err := parseID(cmd.Args[0])
		if err != nil {
			return nil, err
		}
		return s.editor.Node(id)
	}
	if sel := s.editor.Selected(); sel != nil {
		return sel, nil
	}
	return nil, model.NewError(model.ErrValidation, op, "select a node or pass its id")
}

func (s *Session) nodeInput(n *model.Node) ai.NodeInput {
	return ai.NodeInput{
		Summary:  s.editor.Summary(),
		Title:    n.Title,
		Notes:    n.Notes,
		Children: n.ChildTitles(),
	}
}
