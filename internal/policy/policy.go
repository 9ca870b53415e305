package policy

import (
	"errors"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSentinel is the phrase the fine-tuned model emits when it refuses a
// request. It doubles as the message returned to callers.
const DefaultSentinel = "Request contains inappropriate content"

type Policy struct {
	ID               string   `yaml:"id"`
	Name             string   `yaml:"name"`
	Version          int      `yaml:"version"`
	SentinelPhrase   string   `yaml:"sentinel_phrase"`
	BlockedMessage   string   `yaml:"blocked_message"`
	ForbiddenPhrases []string `yaml:"forbidden_phrases"`
}

type Result struct {
	Allowed bool
	Reason  string
	Phrase  string
}

func Default() Policy {
	return Policy{
		ID:             "default",
		Name:           "Default domain suggestion policy",
		Version:        1,
		SentinelPhrase: DefaultSentinel,
		BlockedMessage: DefaultSentinel,
	}
}

// Load reads a YAML policy. Fields left empty in the file keep their
// defaults; an empty path returns Default().
func Load(path string) (Policy, error) {
	p := Default()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	var loaded Policy
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return p, err
	}
	if loaded.ID != "" {
		p.ID = loaded.ID
	}
	if loaded.Name != "" {
		p.Name = loaded.Name
	}
	if loaded.Version != 0 {
		p.Version = loaded.Version
	}
	if loaded.SentinelPhrase != "" {
		p.SentinelPhrase = loaded.SentinelPhrase
	}
	if loaded.BlockedMessage != "" {
		p.BlockedMessage = loaded.BlockedMessage
	}
	p.ForbiddenPhrases = loaded.ForbiddenPhrases
	if strings.TrimSpace(p.SentinelPhrase) == "" {
		return p, errors.New("policy sentinel_phrase must not be blank")
	}
	return p, nil
}

// CheckInput screens a business description before it reaches the model.
// Matching is a case-insensitive substring search.
func (p Policy) CheckInput(description string) Result {
	lower := strings.ToLower(description)
	for _, phrase := range p.ForbiddenPhrases {
		phrase = strings.TrimSpace(phrase)
		if phrase == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return Result{
				Allowed: false,
				Reason:  "Description contains forbidden phrase: " + phrase,
				Phrase:  phrase,
			}
		}
	}
	return Result{Allowed: true}
}
