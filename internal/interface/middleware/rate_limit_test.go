package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemainingQuota(t *testing.T) {
	assert.Equal(t, 4, remainingQuota(5, 1))
	assert.Equal(t, 0, remainingQuota(5, 5))
	// Counters keep growing past the limit; the header floors at zero.
	assert.Equal(t, 0, remainingQuota(5, 9))
}

func TestToInt(t *testing.T) {
	assert.Equal(t, 7, toInt(int64(7)))
	assert.Equal(t, 7, toInt(7))
	assert.Equal(t, 7, toInt("7"))
	assert.Equal(t, 0, toInt("not a number"))
	assert.Equal(t, 0, toInt(nil))
}
