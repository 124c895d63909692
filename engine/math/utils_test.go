package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 5, Clamp(7, 0, 5))
	assert.Equal(t, 0, Clamp(-1, 0, 5))
	assert.Equal(t, 2.5, Clamp(2.5, 0.0, 5.0))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 3.0, Round(2.5))
	assert.Equal(t, -2.0, Round(-2.5))
	assert.Equal(t, 100.0, Round(99.6))
	assert.Equal(t, float32(1), Round(float32(0.5)))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, 499, Truncate(333*1.5))
	assert.Equal(t, 0, Truncate(-3.0))
	assert.Equal(t, 1919, Truncate(1919.99))
}

func TestLerpAndMod(t *testing.T) {
	assert.Equal(t, 5.0, Lerp(0.0, 10.0, 0.5))
	assert.Equal(t, 200.0, Mod(1200.0, 1000.0))
	assert.Equal(t, 0.0, Mod(1000.0, 1000.0))
}
