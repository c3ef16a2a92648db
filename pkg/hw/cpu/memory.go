package cpu

import (
	"encoding/binary"
	"errors"
)

var (
	ErrUnalignedAccess = errors.New("unaligned access")
	ErrSegfault        = errors.New("segmentation fault")
)

// Size in bytes of a memory word
const WordSize = 4

// MemoryBus gives word aligned access to memory.
//
// Implementations report inaccessible addresses with ErrSegfault and misaligned ones with
// ErrUnalignedAccess. Both are faults for the caller, nothing retries them.
type MemoryBus interface {
	Read32(address uint32) (uint32, error)
	Write32(address uint32, value uint32) error
}

// Memory is a little endian RAM region mapped at a base address.
//
// Memory is not safe for concurrent use. Callers running several cores over the same
// memory must serialize accesses.
type Memory struct {
	base   uint32
	buffer []byte
}

// Creates a zeroed memory region of size bytes starting at base
func MakeMemory(base uint32, size uint32) *Memory {
	return &Memory{
		base:   base,
		buffer: make([]byte, size),
	}
}

// First address of the region
func (m *Memory) Base() uint32 {
	return m.base
}

// Size of the region in bytes
func (m *Memory) Size() uint32 {
	return uint32(len(m.buffer))
}

// Returns the offset of [address, address + length) within the buffer
func (m *Memory) offset(address uint32, length uint32) (uint32, error) {
	if address < m.base || uint64(address)+uint64(length) > uint64(m.base)+uint64(len(m.buffer)) {
		return 0, makeError(ErrSegfault, "address 0x%08x (%d bytes) is outside of memory [0x%08x, 0x%08x)", address, length, m.base, uint64(m.base)+uint64(len(m.buffer)))
	}

	return address - m.base, nil
}

func (m *Memory) wordOffset(address uint32) (uint32, error) {
	if address%WordSize != 0 {
		return 0, makeError(ErrUnalignedAccess, "tried accessing address 0x%08x which is not aligned to the %v bytes word boundary", address, WordSize)
	}

	return m.offset(address, WordSize)
}

func (m *Memory) Read32(address uint32) (uint32, error) {
	offset, err := m.wordOffset(address)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(m.buffer[offset:]), nil
}

func (m *Memory) Write32(address uint32, value uint32) error {
	offset, err := m.wordOffset(address)
	if err != nil {
		return err
	}

	binary.LittleEndian.PutUint32(m.buffer[offset:], value)
	return nil
}

// Copies data into memory starting at address. The address does not need to be aligned.
func (m *Memory) LoadBytes(address uint32, data []byte) error {
	offset, err := m.offset(address, uint32(len(data)))
	if err != nil {
		return err
	}

	copy(m.buffer[offset:], data)
	return nil
}

// Returns a copy of n bytes starting at address
func (m *Memory) ReadBytes(address uint32, n uint32) ([]byte, error) {
	offset, err := m.offset(address, n)
	if err != nil {
		return nil, err
	}

	data := make([]byte, n)
	copy(data, m.buffer[offset:])
	return data, nil
}
