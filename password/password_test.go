package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	h, err := NewHasher(4)
	require.NoError(t, err)

	digest, err := h.Hash("Secr3t!pass")
	require.NoError(t, err)
	assert.NotEqual(t, "Secr3t!pass", digest)

	assert.True(t, h.Verify("Secr3t!pass", digest))
	assert.False(t, h.Verify("secr3t!pass", digest))
	assert.False(t, h.Verify("Secr3t!pass", "not-a-hash"))
}

func TestHashIsSalted(t *testing.T) {
	h, err := NewHasher(4)
	require.NoError(t, err)

	a, err := h.Hash("Same1!pass")
	require.NoError(t, err)
	b, err := h.Hash("Same1!pass")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestNewHasherRejectsBadCost(t *testing.T) {
	_, err := NewHasher(2)
	assert.Error(t, err)
	_, err = NewHasher(40)
	assert.Error(t, err)
}

func TestHashErrorDoesNotLeakPlaintext(t *testing.T) {
	h, err := NewHasher(4)
	require.NoError(t, err)

	long := strings.Repeat("Aa1!", 30)
	_, err = h.Hash(long)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), long)
}
