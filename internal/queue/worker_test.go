package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	assert.Equal(t, 2*time.Second, backoff(1))
	assert.Equal(t, 4*time.Second, backoff(2))
	assert.Equal(t, 32*time.Second, backoff(5))
	// Caps at ten minutes.
	assert.Equal(t, 600*time.Second, backoff(10))
	assert.Equal(t, 600*time.Second, backoff(30))
}
