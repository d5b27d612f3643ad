package ranks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableShape(t *testing.T) {
	all := All()
	require.Len(t, all, 29)

	seen := map[string]bool{}
	prev := 0
	for _, r := range all {
		assert.False(t, seen[r.Code], "duplicate code %s", r.Code)
		seen[r.Code] = true
		assert.GreaterOrEqual(t, r.Level, prev, "table must be ordered by level")
		prev = r.Level
	}
}

func TestTierBoundaries(t *testing.T) {
	assert.Len(t, ByTier(TierEnlisted), 13)
	assert.Len(t, ByTier(TierWarrant), 5)
	assert.Len(t, ByTier(TierOfficer), 11)

	for _, r := range ByTier(TierEnlisted) {
		assert.LessOrEqual(t, r.Level, 10)
	}
	for _, r := range ByTier(TierWarrant) {
		assert.True(t, r.Level >= 11 && r.Level <= 15, r.Code)
	}
	for _, r := range ByTier(TierOfficer) {
		assert.GreaterOrEqual(t, r.Level, 16)
	}
}

func TestLookup(t *testing.T) {
	r, ok := Lookup("SPC")
	require.True(t, ok)
	assert.Equal(t, 4, r.Level)
	assert.Equal(t, "SPC - Specialist", r.Label())

	_, ok = Lookup("XYZ")
	assert.False(t, ok)
	assert.Equal(t, 0, Level("XYZ"))
	assert.True(t, Valid("GA"))
}

func TestAllReturnsCopy(t *testing.T) {
	all := All()
	all[0].Name = "changed"
	r, _ := Lookup("PV1")
	assert.Equal(t, "Private", r.Name)
}
