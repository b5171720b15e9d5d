package ai

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPromptsYAML []byte

// Prompt is one prompt template together with its sampling parameters.
type Prompt struct {
	System      string  `yaml:"system"`
	User        string  `yaml:"user"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`

	system *template.Template
	user   *template.Template
}

// Prompts holds the templates of every assistant mode.
type Prompts struct {
	Chat           Prompt `yaml:"chat"`
	Generation     Prompt `yaml:"generation"`
	FromChat       Prompt `yaml:"from_chat"`
	Update         Prompt `yaml:"update"`
	UpdateFromChat Prompt `yaml:"update_from_chat"`
	Expansion      Prompt `yaml:"expansion"`
	Suggestions    Prompt `yaml:"suggestions"`
	Insights       Prompt `yaml:"insights"`

	// Chat presets only carry a user template; the rendered text is sent as a chat message.
	Ask         Prompt `yaml:"ask"`
	Related     Prompt `yaml:"related"`
	Restructure Prompt `yaml:"restructure"`
}

// LoadPrompts parses prompt templates from YAML.
func LoadPrompts(data []byte) (*Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse prompts: %w", err)
	}

	named := map[string]*Prompt{
		"chat":             &p.Chat,
		"generation":       &p.Generation,
		"from_chat":        &p.FromChat,
		"update":           &p.Update,
		"update_from_chat": &p.UpdateFromChat,
		"expansion":        &p.Expansion,
		"suggestions":      &p.Suggestions,
		"insights":         &p.Insights,
		"ask":              &p.Ask,
		"related":          &p.Related,
		"restructure":      &p.Restructure,
	}
	for name, prompt := range named {
		if err := prompt.compile(name); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

// DefaultPrompts returns the embedded prompt set.
func DefaultPrompts() (*Prompts, error) {
	return LoadPrompts(defaultPromptsYAML)
}

func (p *Prompt) compile(name string) error {
	var err error
	if p.System != "" {
		if p.system, err = template.New(name + ".system").Parse(p.System); err != nil {
			return fmt.Errorf("failed to parse %s system prompt: %w", name, err)
		}
	}
	if p.User != "" {
		if p.user, err = template.New(name + ".user").Parse(p.User); err != nil {
			return fmt.Errorf("failed to parse %s user prompt: %w", name, err)
		}
	}
	return nil
}

// RenderSystem executes the system template with data.
func (p *Prompt) RenderSystem(data interface{}) (string, error) {
	return render(p.system, data)
}

// RenderUser executes the user template with data.
func (p *Prompt) RenderUser(data interface{}) (string, error) {
	return render(p.user, data)
}

func render(t *template.Template, data interface{}) (string, error) {
	if t == nil {
		return "", nil
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", t.Name(), err)
	}
	return strings.TrimSpace(b.String()), nil
}
