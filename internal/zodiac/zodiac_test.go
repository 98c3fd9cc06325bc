package zodiac

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignCatalog(t *testing.T) {
	require.Len(t, Signs, 12)
	for _, s := range Signs {
		assert.True(t, Valid(s.Name), "sign %s should be valid", s.Name)
		assert.NotEmpty(t, s.Title)
		assert.NotEmpty(t, s.Emoji)
	}
	assert.False(t, Valid("ophiuchus"))
	assert.False(t, Valid(""))
}

func TestInfo(t *testing.T) {
	info, ok := Info(Leo)
	require.True(t, ok)
	assert.Equal(t, "Leo", info.Title)

	_, ok = Info("nope")
	assert.False(t, ok)
}

func TestGenerateDeterministic(t *testing.T) {
	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	first := Generate(Leo, date)
	second := Generate(Leo, date)
	assert.Equal(t, first, second)

	// Time of day must not matter, only the calendar date.
	later := Generate(Leo, time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, first, later)
}

func TestGenerateNonEmptyForAllSigns(t *testing.T) {
	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for _, s := range Signs {
		text := Generate(s.Name, date)
		assert.NotEmpty(t, text)
		assert.Contains(t, text, s.Title)
	}
}

func TestGenerateVariesAcrossSigns(t *testing.T) {
	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	assert.NotEqual(t, Generate(Leo, date), Generate(Virgo, date))
}
