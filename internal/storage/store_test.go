package storage

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsAccessors(t *testing.T) {
	f := Fields{
		"category":   "Theft",
		"year":       json.Number("1860"),
		"floaty":     3.0,
		"missing":    nil,
		"tokens":     []interface{}{"a", 7, "b"},
		"totalCases": "12",
	}

	assert.Equal(t, "Theft", f.String("category"))
	assert.Equal(t, "1860", f.String("year"))
	assert.Equal(t, "", f.String("missing"))
	assert.Equal(t, "", f.String("absent"))
	assert.Equal(t, int64(1860), f.Int64("year"))
	assert.Equal(t, int64(3), f.Int64("floaty"))
	assert.Equal(t, int64(12), f.Int64("totalCases"))
	assert.Equal(t, []string{"a", "b"}, f.Strings("tokens"))
}

func TestCodecKeepsIntegers(t *testing.T) {
	data, err := EncodeFields(Fields{"wonCases": int64(9007199254740993)})
	require.NoError(t, err)

	decoded, err := DecodeFields(data)
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740993), decoded.Int64("wonCases"))
}

func TestApplyIncrements(t *testing.T) {
	f := Fields{"totalCases": json.Number("2")}
	ApplyIncrements(f, map[string]int64{"totalCases": 1, "lostCases": 1})

	assert.Equal(t, int64(3), f.Int64("totalCases"))
	assert.Equal(t, int64(1), f.Int64("lostCases"))
}
