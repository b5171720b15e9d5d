// Package cli provides the interactive command-line editor.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/toM7x7/LLM-mindmap/pkg/log"
	"github.com/toM7x7/LLM-mindmap/pkg/model"
	"github.com/toM7x7/LLM-mindmap/pkg/session"
)

// errExit is returned by Execute when the user asks to quit.
var errExit = errors.New("exit")

// CLI represents the command-line interface bound to one editing session
type CLI struct {
	sessions  *session.SessionManager
	sessionID string
	prefs     Prefs
	vis       *Visualizer
	logger    *log.Logger
}

// NewCLI creates a new CLI instance writing to out
func NewCLI(sessions *session.SessionManager, sessionID string, prefs Prefs, out io.Writer, logger *log.Logger) (*CLI, error) {
	if sessions == nil {
		return nil, errors.New("session manager not initialized")
	}
	if _, ok := sessions.SessionGet(sessionID); !ok {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &CLI{
		sessions:  sessions,
		sessionID: sessionID,
		prefs:     prefs,
		vis:       NewVisualizer(out, prefs),
		logger:    logger,
	}, nil
}

// Run reads commands until exit, EOF or context cancellation.
func (c *CLI) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          c.prefs.Prompt,
		HistoryFile:     c.prefs.HistoryFile,
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	go func() {
		<-ctx.Done()
		rl.Close()
	}()

	c.vis.Message("Welcome to the mind-map editor. Type 'help' for commands or 'exit' to quit.")
	for {
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if line == "" {
				return nil
			}
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		if err := c.Execute(ctx, line); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			c.logger.Debug(ctx, "CLI command failed", log.Fields{"line": line, "error": err})
			c.vis.Error(err)
		}
	}
}

// Execute runs one input line and renders its result.
func (c *CLI) Execute(ctx context.Context, line string) error {
	args := ParseArgs(strings.TrimSpace(line))
	if len(args) == 0 {
		return nil
	}

	switch strings.ToLower(args[0]) {
	case "exit", "quit":
		return errExit
	case "help":
		c.printHelp(args[1:])
		return nil
	}

	showIDs := c.prefs.ShowIDs
	rest := args[:0]
	for _, a := range args {
		if a == "--id" {
			showIDs = true
			continue
		}
		rest = append(rest, a)
	}
	if len(rest) == 0 {
		return nil
	}

	cmd := model.Command{Scope: strings.ToLower(rest[0])}
	if len(rest) > 1 {
		cmd.Operation = strings.ToLower(rest[1])
		cmd.Args = rest[2:]
	}

	result, err := c.sessions.SessionRun(ctx, c.sessionID, cmd)
	if err != nil {
		return err
	}
	c.render(cmd, result, showIDs)
	return nil
}

func (c *CLI) render(cmd model.Command, result interface{}, showIDs bool) {
	switch r := result.(type) {
	case nil:
		c.vis.Message("OK")
	case *session.MapView:
		c.vis.MapView(r, showIDs)
	case *session.Proposal:
		c.vis.Changes(r.Changes)
		c.vis.Message("Run 'ai confirm' to apply or 'ai cancel' to discard.")
	case *model.Node:
		c.vis.Node(r)
	case []*model.Node:
		for _, n := range r {
			c.vis.Node(n)
		}
	case []string:
		for _, s := range r {
			c.vis.Message("- %s", s)
		}
	case []model.ChatMessage:
		c.vis.Chat(r)
	case bool:
		if !r {
			c.vis.Message("Nothing to %s", cmd.Operation)
		}
	case string:
		c.vis.Message("%s", r)
	default:
		c.vis.Message("%v", r)
	}
}

// ParseArgs splits input on spaces, keeping double-quoted sections together.
func ParseArgs(input string) []string {
	var args []string
	var current strings.Builder
	inQuotes, quoted := false, false

	for _, char := range input {
		switch {
		case char == '"':
			inQuotes = !inQuotes
			quoted = true
		case char == ' ' && !inQuotes:
			if current.Len() > 0 || quoted {
				args = append(args, current.String())
				current.Reset()
			}
			quoted = false
		default:
			current.WriteRune(char)
		}
	}
	if current.Len() > 0 || quoted {
		args = append(args, current.String())
	}
	return args
}
