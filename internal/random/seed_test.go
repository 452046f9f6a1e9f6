package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeed(t *testing.T) {
	seen := make(map[int64]bool)
	for i := 0; i < 8; i++ {
		seed, err := NewSeed()
		require.NoError(t, err)
		assert.NotZero(t, seed)
		seen[seed] = true
	}
	assert.Greater(t, len(seen), 1)
}
