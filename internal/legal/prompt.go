package legal

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	// NoMatchContext is the context shown when no record scores above zero.
	NoMatchContext = "No relevant law found in the dataset."

	// Disclaimer must close every answer the provider writes.
	Disclaimer = "Disclaimer: This is not legal advice, only educational information."

	notAvailable = "N/A"
)

// Prompt is what gets sent to the provider. The question only ever travels in
// User; System is built from catalogue data and fixed rules.
type Prompt struct {
	System  string
	User    string
	Context string
}

const systemTemplate = `You are LegalEase, a legal information assistant for the laws of Pakistan.
Answer ONLY from the context supplied below. Do not use outside knowledge.
When the context applies, cite the act (%s) and section (%s).

Context:
%s

Rules:
- Base your response ONLY on the above context.
- Be formal, neutral, and precise.
- If the question cannot be answered from the context, politely say that it is not covered by the available legal dataset and do not guess.
- Always end your answer with this exact line:
  "%s"`

// BuildPrompt renders the match into the provider instruction.
func BuildPrompt(match MatchResult, question string) Prompt {
	act, section := notAvailable, notAvailable
	contextText := NoMatchContext

	if match.Record != nil {
		act = match.Record.Act
		section = match.Record.Section
		contextText = RenderContext(match)
	}

	return Prompt{
		System:  fmt.Sprintf(systemTemplate, orNA(act), orNA(section), contextText, Disclaimer),
		User:    SanitizeQuestion(question),
		Context: contextText,
	}
}

// RenderContext formats the matched record as the context block, or returns
// NoMatchContext for the sentinel.
func RenderContext(match MatchResult) string {
	if match.Record == nil {
		return NoMatchContext
	}

	r := match.Record
	var b strings.Builder
	fmt.Fprintf(&b, "Category: %s\n", orNA(r.Category))
	fmt.Fprintf(&b, "Act: %s\n", r.Act)
	fmt.Fprintf(&b, "Section: %s\n", r.Section)
	fmt.Fprintf(&b, "Description: %s\n", r.Description)
	fmt.Fprintf(&b, "Punishment: %s", r.Punishment)
	return b.String()
}

// SanitizeQuestion trims the question and drops control characters other than
// newlines and tabs.
func SanitizeQuestion(question string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, question)
	return strings.TrimSpace(cleaned)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}
