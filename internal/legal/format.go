package legal

import "strings"

// FallbackAnswer replaces an empty provider reply.
const FallbackAnswer = "Sorry, I couldn't process that request."

// Answer is the success shape returned to callers.
type Answer struct {
	Answer  string `json:"answer"`
	Context string `json:"context"`
}

// FormatAnswer normalizes a provider reply. It never fails: an empty or blank
// reply becomes FallbackAnswer, and the context is passed through untouched.
func FormatAnswer(reply, contextText string) Answer {
	answer := strings.TrimSpace(reply)
	if answer == "" {
		answer = FallbackAnswer
	}
	return Answer{Answer: answer, Context: contextText}
}
