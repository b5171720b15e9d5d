package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toM7x7/LLM-mindmap/pkg/model"
	"github.com/toM7x7/LLM-mindmap/pkg/session"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"map view", []string{"map", "view"}},
		{"node  add   0", []string{"node", "add", "0"}},
		{`node title 1 "Big plan for 2025"`, []string{"node", "title", "1", "Big plan for 2025"}},
		{`node notes 1 ""`, []string{"node", "notes", "1", ""}},
		{`chat send "unterminated quote`, []string{"chat", "send", "unterminated quote"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseArgs(tt.input), tt.input)
	}
}

func newTestCLI(t *testing.T, prefs Prefs) (*CLI, *bytes.Buffer) {
	t.Helper()
	sm := session.NewSessionManager(session.Options{})
	t.Cleanup(sm.Stop)
	id, err := sm.SessionAdd(context.Background(), "")
	require.NoError(t, err)

	var out bytes.Buffer
	c, err := NewCLI(sm, id, prefs, &out, nil)
	require.NoError(t, err)
	return c, &out
}

func plainPrefs() Prefs {
	p := DefaultPrefs()
	p.Color = false
	return p
}

func TestExecute_TreeView(t *testing.T) {
	c, out := newTestCLI(t, plainPrefs())
	ctx := context.Background()

	require.NoError(t, c.Execute(ctx, `node add 0 "First branch"`))
	require.NoError(t, c.Execute(ctx, `node add 0 "A title that is far too long to show"`))
	require.NoError(t, c.Execute(ctx, `node add 1 Leaf`))
	require.NoError(t, c.Execute(ctx, `node type 1 idea`))
	out.Reset()

	require.NoError(t, c.Execute(ctx, "map view"))
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Root", lines[0])
	assert.Equal(t, "├── First branch (idea)", lines[1])
	assert.Equal(t, "│   └── * Leaf", lines[2], "the last added node is selected")
	assert.Equal(t, "└── A title that is far too l...", lines[3])

	out.Reset()
	require.NoError(t, c.Execute(ctx, "map view --id"))
	assert.Contains(t, out.String(), "Root [0]")
	assert.Contains(t, out.String(), "Leaf [3]")
}

func TestExecute_Results(t *testing.T) {
	c, out := newTestCLI(t, plainPrefs())
	ctx := context.Background()

	require.NoError(t, c.Execute(ctx, "history undo"))
	assert.Contains(t, out.String(), "Nothing to undo")

	out.Reset()
	require.NoError(t, c.Execute(ctx, "node add 0 Child"))
	assert.Contains(t, out.String(), "Child [1]")

	out.Reset()
	require.NoError(t, c.Execute(ctx, "node delete 1"))
	assert.Equal(t, "OK\n", out.String())

	out.Reset()
	require.NoError(t, c.Execute(ctx, "chat show"))
	assert.Equal(t, "No messages\n", out.String())

	err := c.Execute(ctx, "node delete 0")
	assert.True(t, errors.Is(err, model.ErrValidation))
	err = c.Execute(ctx, "bogus op")
	assert.True(t, errors.Is(err, model.ErrValidation))

	assert.True(t, errors.Is(c.Execute(ctx, "exit"), errExit))
	assert.NoError(t, c.Execute(ctx, "   "))
}

func TestHelp(t *testing.T) {
	c, out := newTestCLI(t, plainPrefs())
	ctx := context.Background()

	require.NoError(t, c.Execute(ctx, "help"))
	for _, scope := range []string{"node:", "map:", "history:", "chat:", "ai:"} {
		assert.Contains(t, out.String(), scope)
	}

	out.Reset()
	require.NoError(t, c.Execute(ctx, "help ai confirm"))
	assert.Contains(t, out.String(), "ai confirm")

	out.Reset()
	require.NoError(t, c.Execute(ctx, "help nope"))
	assert.Contains(t, out.String(), "Unknown scope")
}

func TestVisualizer_Changes(t *testing.T) {
	var out bytes.Buffer
	v := NewVisualizer(&out, plainPrefs())
	v.Changes([]model.ChangeRecord{
		{Kind: model.ChangeAdded, Path: "Root", Value: "New"},
		{Kind: model.ChangeRemoved, Path: "Root", Value: "Old"},
		{Kind: model.ChangeChanged, Path: "Root > A", OldValue: "A", NewValue: "B"},
		{Kind: model.ChangeTypeChanged, Path: "Root > B", OldValue: "default", NewValue: "task"},
	})
	assert.Equal(t, `+ Root: "New"
- Root: "Old"
~ Root > A: "A" -> "B"
~ Root > B: type default -> task
`, out.String())

	out.Reset()
	v.Changes(nil)
	assert.Equal(t, "No changes\n", out.String())
}

func TestPrefs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "cli.toml")

	prefs, err := LoadPrefs(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultPrefs(), prefs)
	_, err = os.Stat(path)
	require.NoError(t, err, "defaults are written on first load")

	require.NoError(t, os.WriteFile(path, []byte("show_ids = true\n[type_colors]\nidea = \"blue\"\n"), 0644))
	prefs, err = LoadPrefs(path)
	require.NoError(t, err)
	assert.True(t, prefs.ShowIDs)
	assert.True(t, prefs.Color, "unset keys keep defaults")
	assert.Equal(t, "blue", prefs.TypeColors["idea"])
	assert.Equal(t, "green", prefs.TypeColors["task"])

	require.NoError(t, os.WriteFile(path, []byte("show_ids = [broken"), 0644))
	_, err = LoadPrefs(path)
	assert.Error(t, err)
}

func TestNewCLI_UnknownSession(t *testing.T) {
	sm := session.NewSessionManager(session.Options{})
	defer sm.Stop()
	_, err := NewCLI(sm, "missing", DefaultPrefs(), &bytes.Buffer{}, nil)
	assert.Error(t, err)
}
