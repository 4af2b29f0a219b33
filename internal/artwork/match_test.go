package artwork

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchTitle_Exact(t *testing.T) {
	m := MatchTitle("Super_Mario_Advance_(USA)", []string{"Metroid Fusion", "Super Mario Advance"})
	assert.True(t, m.Matched())
	assert.Equal(t, 1, m.Index)
	assert.Equal(t, "Super Mario Advance", m.Title)
	assert.InDelta(t, 1.0, m.Score, 0.0001)
}

func TestMatchTitle_NoCandidates(t *testing.T) {
	m := MatchTitle("Anything", nil)
	assert.False(t, m.Matched())
	assert.Equal(t, -1, m.Index)
}

func TestMatchTitle_Unrelated(t *testing.T) {
	m := MatchTitle("Metroid Fusion", []string{"Super Mario Advance"})
	assert.False(t, m.Matched())
}

func TestMatchTitle_SequenceNumbers(t *testing.T) {
	m := MatchTitle("Mario Kart 64", []string{"Mario Kart"})
	assert.False(t, m.Matched(), "missing sequence number should fall below threshold, score %v", m.Score)

	m = MatchTitle("Mario Kart 64", []string{"Mario Kart", "Mario Kart 64"})
	assert.True(t, m.Matched())
	assert.Equal(t, "Mario Kart 64", m.Title)
}
