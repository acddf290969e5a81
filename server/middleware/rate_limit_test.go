package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllowsBurstThenBlocks(t *testing.T) {
	rl := NewRateLimiter(time.Hour, 2)

	assert.True(t, rl.Allow("client"))
	assert.True(t, rl.Allow("client"))
	assert.False(t, rl.Allow("client"))
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(time.Hour, 1)

	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))
}

func TestRateLimiterDefaults(t *testing.T) {
	rl := NewRateLimiter(0, 0)

	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
}
