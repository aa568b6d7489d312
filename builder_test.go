package fastindex

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func distinctKeys(n int, seed int64) []uint64 {
	r := rand.New(rand.NewSource(seed))
	seen := make(map[uint64]bool, n)
	keys := make([]uint64, 0, n)
	for len(keys) < n {
		k := r.Uint64()
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}

func TestBuilderEncodeInvariant(t *testing.T) {
	keys := distinctKeys(500, 11)
	b, err := NewBuilder[uint16](Config{Segments: 3})
	require.NoError(t, err)

	f, err := b.Build(keys)
	require.NoError(t, err)
	require.Greater(t, b.LastAttempts(), 0)

	// spec.md invariant 1: XOR of a key's s fingerprints equals its
	// narrowed target hash.
	for _, k := range keys {
		h := mix(k ^ f.seed)
		target := narrow[uint16](h)
		var acc uint16
		for i := 0; i < f.segments; i++ {
			j := segmentIndex(h, i, f.segments, f.l)
			acc ^= f.fingerprints[uint32(i)*f.l+j]
		}
		assert.Equal(t, target, acc)
	}
}

func TestBuilderReuseAcrossBuilds(t *testing.T) {
	b, err := NewBuilder[uint8](Config{Segments: 3})
	require.NoError(t, err)

	for trial := 0; trial < 5; trial++ {
		keys := distinctKeys(200+trial*50, int64(100+trial))
		f, err := b.Build(keys)
		require.NoError(t, err)
		for _, k := range keys {
			assert.True(t, f.Contains(k))
		}
	}
}

func TestBuilderReleaseThenRebuild(t *testing.T) {
	b, err := NewBuilder[uint8](Config{Segments: 3})
	require.NoError(t, err)

	keys := distinctKeys(300, 77)
	_, err = b.Build(keys)
	require.NoError(t, err)

	b.Release()

	f, err := b.Build(keys)
	require.NoError(t, err)
	for _, k := range keys {
		assert.True(t, f.Contains(k))
	}
}

func TestSegmentMapExcludesSelf(t *testing.T) {
	m := buildSegmentMap(3)
	require.Len(t, m, 3)
	for i, others := range m {
		require.Len(t, others, 2)
		for _, o := range others {
			assert.NotEqual(t, i, o)
		}
	}
}

func TestConfigValidation(t *testing.T) {
	_, err := NewBuilder[uint8](Config{Segments: 1})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = NewBuilder[uint8](Config{Segments: maxSegments + 1})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	b, err := NewBuilder[uint8](Config{})
	require.NoError(t, err)
	_, err = b.Build(nil)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
