package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_ReadWrite32(t *testing.T) {
	memory := MakeMemory(0x1000, 0x100)

	t.Run("write and read", func(t *testing.T) {
		require.NoError(t, memory.Write32(0x1008, 0xDEADBEEF))

		value, err := memory.Read32(0x1008)
		require.NoError(t, err)
		assert.Equal(t, uint32(0xDEADBEEF), value)
	})

	t.Run("little endian", func(t *testing.T) {
		require.NoError(t, memory.Write32(0x1010, 0x04030201))

		data, err := memory.ReadBytes(0x1010, 4)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, data)
	})

	t.Run("unaligned", func(t *testing.T) {
		_, err := memory.Read32(0x1002)
		assert.ErrorIs(t, err, ErrUnalignedAccess)

		err = memory.Write32(0x1003, 0)
		assert.ErrorIs(t, err, ErrUnalignedAccess)
	})

	t.Run("below base", func(t *testing.T) {
		_, err := memory.Read32(0x0FFC)
		assert.ErrorIs(t, err, ErrSegfault)
	})

	t.Run("past the end", func(t *testing.T) {
		_, err := memory.Read32(0x1100)
		assert.ErrorIs(t, err, ErrSegfault)

		err = memory.Write32(0x1100, 1)
		assert.ErrorIs(t, err, ErrSegfault)
	})

	t.Run("last word", func(t *testing.T) {
		require.NoError(t, memory.Write32(0x10FC, 7))
	})
}

func TestMemory_AddressSpaceEnd(t *testing.T) {
	memory := MakeMemory(0xFFFFFFF0, 0x10)

	require.NoError(t, memory.Write32(0xFFFFFFFC, 1))

	_, err := memory.ReadBytes(0xFFFFFFFC, 8)
	assert.ErrorIs(t, err, ErrSegfault)
}

func TestMemory_LoadBytes(t *testing.T) {
	memory := MakeMemory(0, 16)

	require.NoError(t, memory.LoadBytes(1, []byte{0x20, 0x31, 0xE0}))

	value, err := memory.Read32(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xE0312000), value)

	err = memory.LoadBytes(14, []byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrSegfault)
}
