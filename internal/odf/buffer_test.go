package odf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryBuffer(t *testing.T) {
	for _, size := range []int{0, 1, 16, 4096} {
		b := newEntryBuffer(size)

		_, err := b.Write([]byte("<office:"))
		require.NoError(t, err)
		_, err = b.WriteString("document")
		require.NoError(t, err)
		_, err = b.WriteRune('✓')
		require.NoError(t, err)
		assert.Equal(t, len("<office:document✓"), b.Len(), "size %d", size)

		got, err := b.Bytes()
		require.NoError(t, err)
		assert.Equal(t, "<office:document✓", string(got), "size %d", size)
	}
}

func TestEntryBufferEmpty(t *testing.T) {
	got, err := newEntryBuffer(8).Bytes()
	require.NoError(t, err)
	assert.Empty(t, got)
}
