package pacchetto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChance(t *testing.T) {
	for seed := uint64(0); seed < 100; seed++ {
		assert.False(t, Chance(seed, 0))
		assert.True(t, Chance(seed, 1))
		assert.Equal(t, Chance(seed, 0.5), Chance(seed, 0.5))
	}
}
