package llm

import "strings"

const (
	beginOfText = "<|begin_of_text|>"
	startHeader = "<|start_header_id|>"
	endHeader   = "<|end_header_id|>"
	endOfTurn   = "<|eot_id|>"
)

// RenderLlama3 renders messages with the Llama 3 chat template the domain
// model was fine-tuned on. With addGenerationPrompt the result ends in an open
// assistant header so the model continues as the assistant.
func RenderLlama3(messages []Message, addGenerationPrompt bool) string {
	var sb strings.Builder
	sb.WriteString(beginOfText)
	for _, msg := range messages {
		sb.WriteString(header(msg.Role))
		sb.WriteString(strings.TrimSpace(msg.Content))
		sb.WriteString(endOfTurn)
	}
	if addGenerationPrompt {
		sb.WriteString(header(RoleAssistant))
	}
	return sb.String()
}

// AssistantHeader is the token sequence that opens an assistant turn.
func AssistantHeader() string {
	return startHeader + string(RoleAssistant) + endHeader
}

func header(role Role) string {
	return startHeader + string(role) + endHeader + "\n\n"
}

// TruncateReserved cuts text at the first occurrence of prefix and trims the
// rest. Some checkpoints keep emitting reserved special tokens after the
// answer; everything from the first one on is noise.
func TruncateReserved(text, prefix string) string {
	if prefix != "" {
		if idx := strings.Index(text, prefix); idx >= 0 {
			text = text[:idx]
		}
	}
	return strings.TrimSpace(text)
}
