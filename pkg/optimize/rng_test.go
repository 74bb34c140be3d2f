package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRNGDeterministic(t *testing.T) {
	a := NewRNG(42)
	b := NewRNG(42)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestDeriveSeedDeterministic(t *testing.T) {
	s1 := DeriveSeed(42, 3, 1)
	s2 := DeriveSeed(42, 3, 1)
	assert.Equal(t, s1, s2)
}

func TestDeriveSeedVariesByInput(t *testing.T) {
	base := DeriveSeed(42, 0, 0)
	assert.NotEqual(t, base, DeriveSeed(42, 1, 0))
	assert.NotEqual(t, base, DeriveSeed(42, 0, 1))
	assert.NotEqual(t, base, DeriveSeed(43, 0, 0))
}
