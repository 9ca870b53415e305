package suggest

import (
	"bytes"
	"fmt"
	"text/template"

	"domainsuggest/internal/llm"
)

// Prompter renders the conversation sent to the generation model.
type Prompter struct {
	system string
	user   *template.Template
}

func NewPrompter(systemPrompt, userTemplate string) (*Prompter, error) {
	tmpl, err := template.New("user").Option("missingkey=error").Parse(userTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse user prompt: %w", err)
	}
	return &Prompter{system: systemPrompt, user: tmpl}, nil
}

// BuildConversation returns the system turn followed by the user turn that
// carries description.
func (p *Prompter) BuildConversation(description string) ([]llm.Message, error) {
	var buf bytes.Buffer
	if err := p.user.Execute(&buf, struct{ Description string }{description}); err != nil {
		return nil, fmt.Errorf("render user prompt: %w", err)
	}
	var messages []llm.Message
	if p.system != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: p.system})
	}
	return append(messages, llm.Message{Role: llm.RoleUser, Content: buf.String()}), nil
}
