package ai

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toM7x7/LLM-mindmap/pkg/model"
)

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `  {"a":1}  `, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```  \n", `{"a":1}`},
		{"upper case tag", "```JSON\n{\"a\":1}```", `{"a":1}`},
		{"no closing fence", "```json\n{\"a\":1}", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSON(tt.input))
		})
	}
}

func TestParseTree(t *testing.T) {
	root, err := ParseTree("```json\n{\"title\":\"Theme\",\"children\":[{\"title\":\"A\",\"type\":\"IDEA\"},{\"title\":\"\",\"type\":\"unknown\"}]}\n```")
	require.NoError(t, err)

	assert.Equal(t, "Theme", root.Title)
	assert.Equal(t, model.NodeTypeDefault, root.Type)
	assert.Equal(t, model.NodeTypeIdea, root.Children[0].Type)
	assert.Equal(t, "Untitled", root.Children[1].Title)
	assert.Equal(t, model.NodeTypeDefault, root.Children[1].Type)
	assert.False(t, root.HasID())
}

func TestParseTree_Malformed(t *testing.T) {
	_, err := ParseTree("Sure! Here is your map: {oops")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrLLMMalformedResponse))
	assert.True(t, errors.Is(err, model.ErrInvalidFormat))
}

func TestParseChildren(t *testing.T) {
	children, err := ParseChildren(`{"children":[{"title":"Idea 1","type":"idea"},{"title":"Plain"}]}`)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, model.NodeTypeIdea, children[0].Type)
	assert.Equal(t, model.NodeTypeDefault, children[1].Type)
	assert.NotNil(t, children[1].Children)

	children, err = ParseChildren("```\n[{\"title\":\"X\",\"type\":\"task\"}, null]\n```")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, model.NodeTypeTask, children[0].Type)

	_, err = ParseChildren(`{"children":[]}`)
	assert.True(t, errors.Is(err, model.ErrLLMMalformedResponse))

	_, err = ParseChildren(`not json`)
	assert.True(t, errors.Is(err, model.ErrLLMMalformedResponse))
}

func TestParse_NestedNullChildren(t *testing.T) {
	root, err := ParseTree(`{"title":"T","children":[null,{"title":"A","children":[null,{"title":"A1"}]}]}`)
	require.NoError(t, err)
	require.Len(t, root.Children, 1)
	require.Len(t, root.Children[0].Children, 1)
	assert.Equal(t, "A1", root.Children[0].Children[0].Title)

	children, err := ParseChildren(`{"children":[{"title":"a","children":[null]},null]}`)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.NotNil(t, children[0].Children)
	assert.Empty(t, children[0].Children)

	_, err = ParseChildren(`{"children":[null,null]}`)
	assert.True(t, errors.Is(err, model.ErrLLMMalformedResponse))

	_, err = ParseTree(`{"title":"T","children":[42]}`)
	assert.True(t, errors.Is(err, model.ErrLLMMalformedResponse), "non-object children are rejected")
}

func TestParseSuggestions(t *testing.T) {
	got, err := ParseSuggestions("```json\n{ \"suggestions\": [\"a\", \" \", \"b\"] }\n```")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	_, err = ParseSuggestions(`{"suggestions":[]}`)
	assert.True(t, errors.Is(err, model.ErrLLMMalformedResponse))

	_, err = ParseSuggestions(`{"suggestions":`)
	assert.True(t, errors.Is(err, model.ErrInvalidFormat))
}

func TestAggregateChat(t *testing.T) {
	got := AggregateChat([]model.ChatMessage{
		{Role: model.RoleUser, Content: "What about costs?"},
		{Role: model.RoleAssistant, Content: "Split them by phase."},
	})
	assert.Equal(t, "You: What about costs?\nAssistant: Split them by phase.", got)
	assert.Equal(t, "", AggregateChat(nil))
}
