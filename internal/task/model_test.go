package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusDerivedFromCompleted(t *testing.T) {
	tk := &Todo{}
	assert.Equal(t, StatusPending, tk.Status())

	tk.Completed = true
	assert.Equal(t, StatusCompleted, tk.Status())
}

func TestPriorityLabel(t *testing.T) {
	assert.Equal(t, "", PriorityLabel(0))
	assert.Equal(t, "Medium", PriorityLabel(1))
	assert.Equal(t, "High", PriorityLabel(2))
	assert.Equal(t, "Urgent", PriorityLabel(3))
	assert.Equal(t, "", PriorityLabel(7))
}
