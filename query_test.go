package fastindex_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonmat/fastindex"
)

// TestIndexRoundTrip is spec.md Property 3: an external payload array
// indexed by Index round-trips for every member key.
func TestIndexRoundTrip(t *testing.T) {
	keys := uniqueKeys(t, 2000, 99)
	f, err := fastindex.BuildUint16(keys, fastindex.Config{Segments: 3})
	require.NoError(t, err)

	payload := make([]uint64, f.Size())
	for _, k := range keys {
		idx := f.Index(k)
		require.GreaterOrEqual(t, idx, 0)
		payload[idx] = k
	}
	for _, k := range keys {
		assert.Equal(t, k, payload[f.Index(k)])
	}
}

func TestPackedOriginTagBytes(t *testing.T) {
	keys := uniqueKeys(t, 100, 5)
	f, err := fastindex.BuildUint8(keys, fastindex.Config{Segments: 3})
	require.NoError(t, err)

	got := f.PackedOriginTagBytes()
	want := (f.Size() + 3) / 4
	assert.Equal(t, want, got)
}

func TestFingerprintWidthAccessor(t *testing.T) {
	keys := uniqueKeys(t, 50, 9)

	f8, err := fastindex.BuildUint8(keys, fastindex.Config{Segments: 3})
	require.NoError(t, err)
	assert.Equal(t, 8, f8.FingerprintWidth())

	f32, err := fastindex.BuildUint32(keys, fastindex.Config{Segments: 3})
	require.NoError(t, err)
	assert.Equal(t, 32, f32.FingerprintWidth())
}

func TestFourSegments(t *testing.T) {
	keys := uniqueKeys(t, 500, 6)
	f, err := fastindex.BuildUint32(keys, fastindex.Config{Segments: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, f.Segments())

	for _, k := range keys {
		assert.True(t, f.Contains(k))
		assert.GreaterOrEqual(t, f.Index(k), 0)
	}
}
