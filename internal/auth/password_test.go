package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("hunter2!")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2!", hash)

	assert.True(t, CheckPassword(hash, "hunter2!"))
	assert.False(t, CheckPassword(hash, "hunter3!"))
	assert.False(t, CheckPassword("", "hunter2!"))
	assert.False(t, CheckPassword("not-a-bcrypt-hash", "hunter2!"))
}

func TestTempPassword(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		p, err := TempPassword()
		require.NoError(t, err)
		assert.Len(t, p, 16)
		assert.NotContains(t, p, "-")
		assert.NotContains(t, p, "_")
		assert.False(t, seen[p], "temp passwords must not repeat")
		seen[p] = true
	}
}
