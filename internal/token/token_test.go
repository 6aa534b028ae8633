package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	plain, hash, lastFour, err := Generate()

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(plain, Prefix))
	assert.Len(t, plain, len(Prefix)+rawBytes*2)
	assert.Equal(t, Hash(plain), hash)
	assert.Equal(t, plain[len(plain)-4:], lastFour)
	assert.True(t, WellFormed(plain))
}

func TestGenerateUnique(t *testing.T) {
	a, _, _, err := Generate()
	require.NoError(t, err)
	b, _, _, err := Generate()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestHashDeterministic(t *testing.T) {
	assert.Equal(t, Hash("evt_abc"), Hash("evt_abc"))
	assert.NotEqual(t, Hash("evt_abc"), Hash("evt_abd"))
	assert.Len(t, Hash("anything"), 64)
}

func TestWellFormed(t *testing.T) {
	plain, _, _, err := Generate()
	require.NoError(t, err)

	assert.True(t, WellFormed(plain))
	assert.False(t, WellFormed(""))
	assert.False(t, WellFormed("Bearer something"))
	assert.False(t, WellFormed(Prefix+"short"))
	assert.False(t, WellFormed(Prefix+strings.Repeat("z", rawBytes*2))) // not hex
	assert.False(t, WellFormed(strings.TrimPrefix(plain, Prefix)))
}
