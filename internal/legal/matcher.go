// Package legal selects the catalogue record that best matches a question and
// turns it into the instruction sent to the text-generation provider.
package legal

import (
	"strings"

	"github.com/legalease/backend/internal/storage/models"
)

// MatchResult is the outcome of one Match call. Record is nil for the
// no-match sentinel, in which case Score is always 0.
type MatchResult struct {
	Record *models.LegalRecord
	Score  int
}

func (m MatchResult) Matched() bool {
	return m.Record != nil
}

// Match scores every record by how many question words occur as substrings of
// its haystack and returns the first record with the highest positive score.
//
// Containment is substring based on purpose: "theft" also hits "theftious",
// and short words like "the" hit almost everything. Words are split on
// whitespace only, so punctuation stays attached ("theft?").
func Match(question string, records []models.LegalRecord) MatchResult {
	words := strings.Fields(strings.ToLower(question))

	best := MatchResult{}
	for i := range records {
		score := Score(words, Haystack(records[i]))
		if score > best.Score {
			record := records[i]
			best = MatchResult{Record: &record, Score: score}
		}
	}
	return best
}

// Haystack is the lowercase text a record is searched in: its five fields in
// catalogue order, space separated.
func Haystack(r models.LegalRecord) string {
	return strings.ToLower(strings.Join([]string{
		r.Category,
		r.Act,
		r.Section,
		r.Description,
		r.Punishment,
	}, " "))
}

// Score counts words contained in haystack. Repeated words count each time.
func Score(words []string, haystack string) int {
	score := 0
	for _, w := range words {
		if strings.Contains(haystack, w) {
			score++
		}
	}
	return score
}
