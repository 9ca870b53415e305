// Package extract turns raw model output into a bounded list of domain
// suggestions. It is a pure function over text: no I/O, no shared state.
package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"domainsuggest/internal/domains"
)

// MaxDomains caps the number of suggestions in a single result.
const MaxDomains = 5

// Kind tags the variant held by a Result.
type Kind int

const (
	// KindNoneFound means the output was acceptable but held no domain.
	KindNoneFound Kind = iota
	// KindDomains means at least one valid domain was extracted.
	KindDomains
	// KindBlocked means the model emitted the policy-violation sentinel.
	KindBlocked
)

func (k Kind) String() string {
	switch k {
	case KindDomains:
		return "domains"
	case KindBlocked:
		return "blocked"
	default:
		return "none_found"
	}
}

// ParseKind is the inverse of Kind.String. Unknown values map to KindNoneFound.
func ParseKind(s string) Kind {
	switch s {
	case "domains":
		return KindDomains
	case "blocked":
		return KindBlocked
	default:
		return KindNoneFound
	}
}

// Result is the outcome of an extraction. Domains is non-empty if and only if
// Kind is KindDomains.
type Result struct {
	Kind    Kind
	Domains []string
}

func Blocked() Result   { return Result{Kind: KindBlocked} }
func NoneFound() Result { return Result{Kind: KindNoneFound} }

// Found builds a Domains result, collapsing to NoneFound for an empty list and
// truncating to MaxDomains.
func Found(list []string) Result {
	if len(list) == 0 {
		return NoneFound()
	}
	if len(list) > MaxDomains {
		list = list[:MaxDomains]
	}
	out := make([]string, len(list))
	copy(out, list)
	return Result{Kind: KindDomains, Domains: out}
}

var markupRE = regexp.MustCompile(`<\|[^|]*\|>`)

// candidatePattern is one extraction regexp. RE2 word boundaries are ASCII
// only, so wordBounded patterns are additionally checked against the runes
// on either side of the capture.
type candidatePattern struct {
	re          *regexp.Regexp
	wordBounded bool
}

// Applied in order; matches accumulate pattern by pattern.
var candidatePatterns = []candidatePattern{
	{re: regexp.MustCompile(`(?i)\b([a-z0-9][a-z0-9-]*[a-z0-9]\.[a-z]{2,})\b`), wordBounded: true},
	{re: regexp.MustCompile(`(?i)\p{Nd}+\.\s*([a-z0-9][a-z0-9-]*[a-z0-9]\.[a-z]{2,})`)},
	{re: regexp.MustCompile(`(?i)\b([a-z0-9][a-z0-9-]*[a-z0-9]\.(?:` + strings.Join(domains.AllowedTLDs, "|") + `))\b`), wordBounded: true},
}

// captures returns the first group of every non-overlapping match in text.
// A word-bounded match touching a letter, number or underscore of any script
// is dropped and the search resumes one rune after its start, so "über.de"
// yields nothing rather than "ber.de".
func (p candidatePattern) captures(text string) []string {
	var out []string
	if !p.wordBounded {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			out = append(out, m[1])
		}
		return out
	}
	for pos := 0; pos < len(text); {
		loc := p.re.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[2], pos+loc[3]
		before, _ := utf8.DecodeLastRuneInString(text[:start])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(before) || isWordRune(after) {
			_, size := utf8.DecodeRuneInString(text[pos+loc[0]:])
			pos += loc[0] + size
			continue
		}
		out = append(out, text[start:end])
		pos += loc[1]
	}
	return out
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// Extractor holds the compiled assistant marker and the sentinel phrase.
type Extractor struct {
	marker   *regexp.Regexp
	sentinel string
}

// New returns an Extractor. An empty marker means the whole text is the
// candidate response; an empty sentinel disables blocking.
func New(assistantMarker, sentinelPhrase string) *Extractor {
	e := &Extractor{sentinel: sentinelPhrase}
	if assistantMarker != "" {
		e.marker = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(assistantMarker))
	}
	return e
}

// Extract is a convenience wrapper around New(...).Extract(raw).
func Extract(raw, assistantMarker, sentinelPhrase string) Result {
	return New(assistantMarker, sentinelPhrase).Extract(raw)
}

// Extract runs the full pipeline over raw: isolate the assistant turn, check
// the sentinel, strip markup, then collect up to MaxDomains distinct domains.
func (e *Extractor) Extract(raw string) Result {
	text := e.response(raw)

	// The sentinel check runs on the text as generated, before any cleanup.
	if e.sentinel != "" && strings.Contains(text, e.sentinel) {
		return Blocked()
	}

	return Found(Candidates(Clean(text)))
}

// response returns the text following the first assistant marker, or raw
// unchanged when there is no marker.
func (e *Extractor) response(raw string) string {
	if e.marker == nil {
		return raw
	}
	loc := e.marker.FindStringIndex(raw)
	if loc == nil {
		return raw
	}
	return raw[loc[1]:]
}

// Clean replaces every <|...|> token with a space so neighbouring words never
// fuse, then collapses whitespace runs and trims the ends.
func Clean(text string) string {
	text = markupRE.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}

// Candidates scans already-cleaned text with every candidate pattern and
// returns the strictly valid matches, deduplicated case-insensitively in order
// of first appearance and capped at MaxDomains.
func Candidates(cleaned string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, p := range candidatePatterns {
		for _, d := range p.captures(cleaned) {
			if !domains.ValidCandidate(d) {
				continue
			}
			key := domains.Key(d)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, d)
		}
	}
	if len(out) > MaxDomains {
		out = out[:MaxDomains]
	}
	return out
}
