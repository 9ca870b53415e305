package suggest

import "domainsuggest/internal/extract"

type Status string

const (
	StatusSuccess Status = "success"
	StatusBlocked Status = "blocked"
	StatusError   Status = "error"
)

const (
	MissingInputMessage = "No business description provided"
	inferenceErrorText  = "An error occurred during inference: "
)

type Suggestion struct {
	Domain string `json:"domain"`
}

// Response is what callers receive. Suggestions is never nil so it always
// encodes as a JSON array.
type Response struct {
	Suggestions []Suggestion `json:"suggestions"`
	Status      Status       `json:"status"`
	Message     string       `json:"message,omitempty"`
}

// Assemble maps an extraction result onto the response contract.
func Assemble(result extract.Result, blockedMessage string) Response {
	switch result.Kind {
	case extract.KindBlocked:
		return Response{Suggestions: []Suggestion{}, Status: StatusBlocked, Message: blockedMessage}
	case extract.KindDomains:
		out := make([]Suggestion, 0, len(result.Domains))
		for _, d := range result.Domains {
			out = append(out, Suggestion{Domain: d})
		}
		return Response{Suggestions: out, Status: StatusSuccess}
	default:
		return Response{Suggestions: []Suggestion{}, Status: StatusSuccess}
	}
}

func ErrorResponse(message string) Response {
	return Response{Suggestions: []Suggestion{}, Status: StatusError, Message: message}
}

// Domains lists the suggested domain names in order.
func (r Response) Domains() []string {
	out := make([]string, 0, len(r.Suggestions))
	for _, s := range r.Suggestions {
		out = append(out, s.Domain)
	}
	return out
}
