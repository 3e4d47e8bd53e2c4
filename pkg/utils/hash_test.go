package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStableIDIsDeterministicAndCaseInsensitive(t *testing.T) {
	a := StableID("Theft", "PPC, 1860", "Section 378, 379")
	b := StableID("theft", "ppc, 1860", "section 378, 379")

	assert.Equal(t, a, b)
	assert.Len(t, a, 20)
}

func TestStableIDSeparatesParts(t *testing.T) {
	assert.NotEqual(t, StableID("ab", "c"), StableID("a", "bc"))
}
