package portrayal

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// PromptData fills the prompt template.
type PromptData struct {
	PersonName         string
	Nickname           string
	MessageCount       int
	Messages           string
	ContextLength      int
	ContextLengthAfter int
}

// placeholders maps the brace placeholders accepted in templates to fields
// of PromptData.
var placeholders = []struct{ name, action string }{
	{"{person_name}", "{{.PersonName}}"},
	{"{user_nickname}", "{{.Nickname}}"},
	{"{message_count}", "{{.MessageCount}}"},
	{"{messages}", "{{.Messages}}"},
	{"{context_length}", "{{.ContextLength}}"},
	{"{context_length_after}", "{{.ContextLengthAfter}}"},
}

const (
	literalOpen  = `{{"{"}}`
	literalClose = `{{"}"}}`
)

// ParsePrompt compiles a prompt template written with "{person_name}" style
// placeholders. "{{" and "}}" stand for literal braces, and braces around
// unknown names are kept as written.
func ParsePrompt(source string) (*template.Template, error) {
	if strings.TrimSpace(source) == "" {
		return nil, ErrEmptyTemplate
	}
	t, err := template.New("portrayal").Option("missingkey=error").Parse(translatePrompt(source))
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt template: %w", err)
	}
	return t, nil
}

// translatePrompt rewrites source into template syntax. Every brace that is
// not part of a placeholder becomes a string action, so no text of the
// source can open a template action.
func translatePrompt(source string) string {
	var b strings.Builder
	b.Grow(len(source) + len(source)/8)

	for i := 0; i < len(source); {
		switch source[i] {
		case '{':
			if strings.HasPrefix(source[i:], "{{") {
				b.WriteString(literalOpen)
				i += 2
				continue
			}
			if action, n := matchPlaceholder(source[i:]); n > 0 {
				b.WriteString(action)
				i += n
				continue
			}
			b.WriteString(literalOpen)
			i++
		case '}':
			b.WriteString(literalClose)
			if strings.HasPrefix(source[i:], "}}") {
				i += 2
			} else {
				i++
			}
		default:
			j := strings.IndexAny(source[i:], "{}")
			if j < 0 {
				j = len(source) - i
			}
			b.WriteString(source[i : i+j])
			i += j
		}
	}
	return b.String()
}

func matchPlaceholder(s string) (action string, n int) {
	for _, p := range placeholders {
		if strings.HasPrefix(s, p.name) {
			return p.action, len(p.name)
		}
	}
	return "", 0
}

// RenderPrompt executes t with data.
func RenderPrompt(t *template.Template, data PromptData) (string, error) {
	var b bytes.Buffer
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return b.String(), nil
}

// BuildPrompt parses source and renders it with data.
func BuildPrompt(source string, data PromptData) (string, error) {
	t, err := ParsePrompt(source)
	if err != nil {
		return "", err
	}
	return RenderPrompt(t, data)
}
