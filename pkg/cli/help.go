package cli

import (
	"strings"

	"github.com/chzyer/readline"
)

// CommandHelp represents the structure of help information for a specific command.
type CommandHelp struct {
	Scope     string
	Operation string
	ShortDesc string
	Syntax    string
}

var commandHelps = []CommandHelp{
	{"node", "add", "Add a child node", "node add <parent id> [title]"},
	{"node", "delete", "Delete a node and its subtree", "node delete <id>"},
	{"node", "title", "Rename a node", "node title <id> <title>"},
	{"node", "type", "Set the node type", "node type <id> <default|idea|task|question|note>"},
	{"node", "notes", "Replace the node notes", "node notes <id> [text]"},
	{"node", "move", "Place a node at a position", "node move <id> <x> <y>"},
	{"node", "select", "Select a node", "node select <id>"},
	{"node", "deselect", "Clear the selection", "node deselect"},
	{"node", "find", "Select the first node matching a term", "node find <term>"},

	{"map", "new", "Start an empty map", "map new"},
	{"map", "view", "Show the map as a tree", "map view [--id]"},
	{"map", "layout", "Recompute every node position", "map layout"},
	{"map", "import", "Replace the map with a file", "map import <file> [json|xml]"},
	{"map", "export", "Write the map to a file or print it", "map export [file] [json|xml]"},
	{"map", "save", "Store the map and chat", "map save"},
	{"map", "load", "Restore the stored map and chat", "map load"},
	{"map", "summary", "Show the text summary used in prompts", "map summary"},

	{"history", "undo", "Undo the last change", "history undo"},
	{"history", "redo", "Redo the last undone change", "history redo"},

	{"chat", "send", "Talk to the assistant about the map", "chat send <message>"},
	{"chat", "show", "Show the transcript", "chat show"},
	{"chat", "clear", "Clear the transcript", "chat clear"},

	{"ai", "generate", "Generate a new map from an instruction", "ai generate <instruction>"},
	{"ai", "fromchat", "Generate a new map from the chat", "ai fromchat"},
	{"ai", "update", "Propose changes from an instruction or the chat", "ai update [instruction]"},
	{"ai", "confirm", "Apply the proposed changes", "ai confirm"},
	{"ai", "cancel", "Discard the proposed changes", "ai cancel"},
	{"ai", "expand", "Add generated children to a node", "ai expand [id]"},
	{"ai", "suggest", "Suggest follow-up ideas for a node", "ai suggest [id]"},
	{"ai", "insights", "Analyse the map", "ai insights"},
	{"ai", "ask", "Ask the chat about the selected node", "ai ask <question>"},
	{"ai", "related", "Ask the chat for ideas related to a node", "ai related [id]"},
	{"ai", "restructure", "Ask the chat how to restructure the map", "ai restructure"},
}

// printHelp prints general help, the commands of a scope, or one command.
func (c *CLI) printHelp(args []string) {
	switch len(args) {
	case 0:
		c.vis.Message("Command syntax: <scope> <operation> [arguments] [--id]")
		current := ""
		for _, h := range commandHelps {
			if h.Scope != current {
				c.vis.Message("\n%s:", h.Scope)
				current = h.Scope
			}
			c.vis.Message("  %-12s %s", h.Operation, h.ShortDesc)
		}
		c.vis.Message("\nhelp [scope] [operation] shows details, exit quits.")
	case 1:
		found := false
		for _, h := range commandHelps {
			if h.Scope == args[0] {
				c.vis.Message("%-30s %s", h.Syntax, h.ShortDesc)
				found = true
			}
		}
		if !found {
			c.vis.Message("Unknown scope: %s", args[0])
		}
	case 2:
		for _, h := range commandHelps {
			if h.Scope == args[0] && h.Operation == args[1] {
				c.vis.Message("%s\n  %s", h.ShortDesc, h.Syntax)
				return
			}
		}
		c.vis.Message("Unknown command: %s", strings.Join(args, " "))
	default:
		c.vis.Message("Usage: help [scope] [operation]")
	}
}

// completer builds readline completion from the help table.
func completer() *readline.PrefixCompleter {
	scopes := make(map[string][]readline.PrefixCompleterInterface)
	var order []string
	for _, h := range commandHelps {
		if _, ok := scopes[h.Scope]; !ok {
			order = append(order, h.Scope)
		}
		scopes[h.Scope] = append(scopes[h.Scope], readline.PcItem(h.Operation))
	}

	items := make([]readline.PrefixCompleterInterface, 0, len(order)+2)
	for _, scope := range order {
		items = append(items, readline.PcItem(scope, scopes[scope]...))
	}
	items = append(items, readline.PcItem("help"), readline.PcItem("exit"))
	return readline.NewPrefixCompleter(items...)
}
