package uid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUID_Generate(t *testing.T) {
	t.Parallel()

	a, b := NewUUID().Generate(), NewUUID().Generate()

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.NotEqual(t, a, b)
}

func TestSnowflake_Generate(t *testing.T) {
	t.Parallel()

	// Arrange
	gen, err := NewSnowflakeNode(7)
	require.NoError(t, err)

	// Act
	seen := make(map[int64]struct{}, 1000)
	prev := int64(0)
	for range 1000 {
		id := gen.Generate()
		// Assert
		assert.Greater(t, id, prev)
		seen[id] = struct{}{}
		prev = id
	}
	assert.Len(t, seen, 1000)
}

func TestNewSnowflakeNode_OutOfRange(t *testing.T) {
	t.Parallel()

	_, err := NewSnowflakeNode(4096)
	assert.Error(t, err)
}

func TestNodeFromName(t *testing.T) {
	t.Parallel()

	n := nodeFromName("api-7c9d")
	assert.GreaterOrEqual(t, n, int64(0))
	assert.Less(t, n, int64(1024))
	assert.Equal(t, n, nodeFromName("api-7c9d"))
}
