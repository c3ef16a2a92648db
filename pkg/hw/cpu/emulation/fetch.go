package emulation

import (
	"github.com/Manu343726/atomicemu/pkg/hw/cpu"
	"github.com/Manu343726/atomicemu/pkg/hw/cpu/mc/instructions"
	"github.com/Manu343726/atomicemu/pkg/utils"
)

// Reads the instruction at pc.
//
// The result holds the instruction bytes in its low 24 bits, high byte zeroed. Instructions
// are 3 bytes long so pc is often not word aligned; in that case the two aligned words
// around pc are read and the instruction is taken from them. Nothing outside those two
// words is touched.
func Fetch(bus cpu.MemoryBus, pc uint32) (uint32, error) {
	offset := pc % cpu.WordSize
	aligned := pc - offset

	low, err := bus.Read32(aligned)
	if err != nil {
		return 0, utils.MakeError(ErrFetch, "pc 0x%08x: %w", pc, err)
	}

	if offset == 0 {
		return low & utils.AllOnes[uint32](instructions.InstructionBits), nil
	}

	high, err := bus.Read32(aligned + cpu.WordSize)
	if err != nil {
		return 0, utils.MakeError(ErrFetch, "pc 0x%08x: %w", pc, err)
	}

	buffer := uint64(high)<<32 | uint64(low)
	word := uint32(buffer >> (offset * utils.BitsPerByte))

	return word & utils.AllOnes[uint32](instructions.InstructionBits), nil
}
