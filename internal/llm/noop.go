package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const noopSentinel = "Request contains inappropriate content"

var (
	noopUnsafeWords = []string{"adult", "explicit", "weapon", "drug", "narcotic", "counterfeit", "scam", "nude"}
	noopStopWords   = map[string]bool{
		"a": true, "an": true, "the": true, "and": true, "or": true, "of": true, "for": true,
		"in": true, "on": true, "with": true, "to": true, "our": true, "we": true, "that": true,
		"is": true, "are": true, "online": true, "business": true, "company": true, "store": true,
		"shop": true, "selling": true, "located": true, "new": true, "local": true,
	}
	noopNumberedRE = regexp.MustCompile(`(?m)^\s*\d+\.\s*(\S+)\s*$`)
)

// Noop answers deterministically without any network call. Generation
// returns a Llama-formatted list built from the description, scoring returns
// a JSON array for the numbered domains in the prompt, and moderation answers
// YES or NO from a small keyword list.
type Noop struct {
	// Sentinel is emitted instead of domains for unsafe descriptions.
	Sentinel string
}

func NewNoop() *Noop {
	return &Noop{Sentinel: noopSentinel}
}

func (n *Noop) Name() string  { return "noop" }
func (n *Noop) Model() string { return "noop" }

func (n *Noop) Complete(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	user := lastUserMessage(req.Messages)
	switch req.Task {
	case TaskScore:
		return n.score(user)
	case TaskModerate:
		if unsafe(describedBusiness(user)) {
			return "YES", nil
		}
		return "NO", nil
	default:
		return n.generate(describedBusiness(user)), nil
	}
}

func (n *Noop) generate(description string) string {
	var sb strings.Builder
	sb.WriteString(AssistantHeader())
	sb.WriteString("\n\n")
	if unsafe(description) {
		sentinel := n.Sentinel
		if sentinel == "" {
			sentinel = noopSentinel
		}
		sb.WriteString(sentinel)
		sb.WriteString(endOfTurn)
		return sb.String()
	}
	for i, name := range noopNames(keywords(description)) {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, name)
	}
	sb.WriteString(endOfTurn)
	return sb.String()
}

func (n *Noop) score(prompt string) (string, error) {
	type scored struct {
		Domain       string `json:"domain"`
		Relevance    int    `json:"relevance"`
		Creativity   int    `json:"creativity"`
		Memorability int    `json:"memorability"`
		Conciseness  int    `json:"conciseness"`
		Safety       int    `json:"safety"`
	}
	zero := unsafe(describedBusiness(prompt))
	out := []scored{}
	for _, m := range noopNumberedRE.FindAllStringSubmatch(prompt, -1) {
		domain := m[1]
		s := scored{Domain: domain}
		if !zero {
			label := strings.SplitN(domain, ".", 2)[0]
			s.Relevance = 7
			s.Creativity = 6
			s.Memorability = 8
			s.Conciseness = 9
			if len(label) > 10 {
				s.Memorability = 6
				s.Conciseness = 6
			}
			s.Safety = 10
		}
		out = append(out, s)
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func lastUserMessage(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].Content
		}
	}
	return ""
}

// describedBusiness pulls the description out of a prompt that labels it
// with "Business Description:". Unlabelled text is returned whole.
func describedBusiness(prompt string) string {
	const label = "Business Description:"
	idx := strings.Index(prompt, label)
	if idx < 0 {
		return prompt
	}
	rest := prompt[idx+len(label):]
	if end := strings.Index(rest, "\n\n"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

func unsafe(text string) bool {
	lower := strings.ToLower(text)
	for _, word := range noopUnsafeWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

func keywords(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var out []string
	seen := make(map[string]bool)
	for _, f := range fields {
		if len(f) < 3 || noopStopWords[f] || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

func noopNames(words []string) []string {
	if len(words) == 0 {
		return nil
	}
	first := words[0]
	second := first
	if len(words) > 1 {
		second = words[1]
	}
	return []string{
		first + second + ".com",
		first + "hub.io",
		"get" + second + ".co",
	}
}
