package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstanceQueue(t *testing.T) {
	assert.Empty(t, instanceQueue("", "abc"))
	assert.Equal(t, "kaoduen.changes.abc", instanceQueue("kaoduen.changes", "abc"))

	// two instances configured alike still get separate queues
	assert.NotEqual(t, instanceQueue("kaoduen.changes", "one"), instanceQueue("kaoduen.changes", "two"))
}
