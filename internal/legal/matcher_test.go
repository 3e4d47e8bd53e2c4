package legal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalease/backend/internal/storage/models"
)

var theftRecord = models.LegalRecord{
	Category:    "Theft",
	Act:         "PPC, 1860",
	Section:     "Section 378, 379",
	Description: "Theft of movable property",
	Punishment:  "Up to 3 years + fine",
}

var murderRecord = models.LegalRecord{
	Category:    "Murder",
	Act:         "Pakistan Penal Code (PPC), 1860",
	Section:     "Section 302",
	Description: "Intentional killing",
	Punishment:  "Death penalty or life imprisonment + fine",
}

var divorceRecord = models.LegalRecord{
	Category:    "Divorce",
	Act:         "Muslim Family Laws Ordinance, 1961",
	Section:     "Section 7",
	Description: "Notice of divorce must be sent to chairman",
	Punishment:  "Divorce not effective until approved",
}

func TestHaystackJoinsFieldsInOrder(t *testing.T) {
	assert.Equal(t,
		"theft ppc, 1860 section 378, 379 theft of movable property up to 3 years + fine",
		Haystack(theftRecord),
	)
}

func TestMatchNoOverlapReturnsSentinel(t *testing.T) {
	records := []models.LegalRecord{theftRecord, murderRecord, divorceRecord}

	got := Match("zzz qqq", records)

	assert.Nil(t, got.Record)
	assert.Zero(t, got.Score)
	assert.False(t, got.Matched())
	assert.Equal(t, NoMatchContext, BuildPrompt(got, "zzz qqq").Context)
}

func TestMatchEmptyCatalogue(t *testing.T) {
	got := Match("theft", nil)
	assert.False(t, got.Matched())
}

func TestMatchUniqueToken(t *testing.T) {
	records := []models.LegalRecord{murderRecord, divorceRecord, theftRecord}

	got := Match("chairman", records)

	require.NotNil(t, got.Record)
	assert.Equal(t, "Divorce", got.Record.Category)
	assert.GreaterOrEqual(t, got.Score, 1)
}

func TestMatchIsSubstringNotWholeWord(t *testing.T) {
	records := []models.LegalRecord{
		{Category: "Other", Description: "theftious conduct"},
	}

	got := Match("theft", records)

	require.NotNil(t, got.Record)
	assert.Equal(t, 1, got.Score)
}

func TestMatchIsCaseInsensitive(t *testing.T) {
	got := Match("MURDER", []models.LegalRecord{theftRecord, murderRecord})

	require.NotNil(t, got.Record)
	assert.Equal(t, "Murder", got.Record.Category)
}

func TestMatchTieKeepsEarliestRecord(t *testing.T) {
	first := models.LegalRecord{Category: "First", Description: "fine"}
	second := models.LegalRecord{Category: "Second", Description: "fine"}

	got := Match("fine", []models.LegalRecord{first, second})
	require.NotNil(t, got.Record)
	assert.Equal(t, "First", got.Record.Category)

	got = Match("fine", []models.LegalRecord{second, first})
	require.NotNil(t, got.Record)
	assert.Equal(t, "Second", got.Record.Category)
}

func TestMatchStrictlyHigherScoreWins(t *testing.T) {
	// murder matches "fine" only; theft matches "fine" and "theft".
	got := Match("theft fine", []models.LegalRecord{murderRecord, theftRecord})

	require.NotNil(t, got.Record)
	assert.Equal(t, "Theft", got.Record.Category)
	assert.Equal(t, 2, got.Score)
}

func TestMatchCountsRepeatedWords(t *testing.T) {
	got := Match("theft theft theft", []models.LegalRecord{theftRecord})

	assert.Equal(t, 3, got.Score)
}

func TestMatchPunctuationStaysAttached(t *testing.T) {
	// "theft?" is not a substring of the haystack, but "the" (inside "theft") is.
	got := Match("What is the punishment for theft?", []models.LegalRecord{theftRecord})

	require.NotNil(t, got.Record)
	assert.Equal(t, "Theft", got.Record.Category)
	assert.Equal(t, 1, got.Score)
}

func TestMatchIsPure(t *testing.T) {
	records := []models.LegalRecord{theftRecord, murderRecord, divorceRecord}

	first := Match("death penalty for murder", records)
	second := Match("death penalty for murder", records)

	assert.Equal(t, first, second)
	assert.Equal(t, "Theft", records[0].Category)
}

func TestMatchReturnsCopyOfRecord(t *testing.T) {
	records := []models.LegalRecord{theftRecord}

	got := Match("theft", records)
	require.NotNil(t, got.Record)
	got.Record.Category = "changed"

	assert.Equal(t, "Theft", records[0].Category)
}

func TestMatchOverDefaultCatalogue(t *testing.T) {
	records, err := DefaultCatalogue()
	require.NoError(t, err)
	require.Len(t, records, 26)

	got := Match("acid", records)
	require.NotNil(t, got.Record)
	assert.Equal(t, "Acid Attack", got.Record.Category)
}
