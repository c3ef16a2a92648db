package emulation

import (
	"testing"

	"github.com/Manu343726/atomicemu/pkg/hw/cpu"
	"github.com/Manu343726/atomicemu/pkg/hw/cpu/mc/instructions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	memoryBase = 0x1000
	memorySize = 0x1000
	codeBase   = 0x1800
)

type environment struct {
	memory   *cpu.Memory
	frame    *cpu.Frame
	emulator *Emulator
}

// Sets up a core 0 environment with the instruction placed at codeBase + offset
func newEnvironment(t *testing.T, instruction instructions.Instruction, offset uint32, opts Options) *environment {
	t.Helper()

	memory := cpu.MakeMemory(memoryBase, memorySize)
	pc := uint32(codeBase) + offset
	require.NoError(t, memory.LoadBytes(pc, instructions.Bytes(instruction)))

	return &environment{
		memory:   memory,
		frame:    &cpu.Frame{PC: pc},
		emulator: NewEmulator(memory, NewCoreState(0), opts),
	}
}

func (env *environment) write(t *testing.T, address uint32, value uint32) {
	require.NoError(t, env.memory.Write32(address, value))
}

func (env *environment) read(t *testing.T, address uint32) uint32 {
	value, err := env.memory.Read32(address)
	require.NoError(t, err)
	return value
}

func (env *environment) snapshot(t *testing.T) []byte {
	data, err := env.memory.ReadBytes(env.memory.Base(), env.memory.Size())
	require.NoError(t, err)
	return data
}

func TestHandle_WriteSCompare1(t *testing.T) {
	for target := 0; target < cpu.TotalRegisters; target++ {
		for offset := uint32(0); offset < cpu.WordSize; offset++ {
			instruction := instructions.WriteAuxiliaryRegister{Target: cpu.Register(target), AuxID: instructions.SCOMPARE1}
			env := newEnvironment(t, instruction, offset, Options{})

			for _, r := range cpu.AllRegisters() {
				env.frame.Set(r, 0x100+uint32(r.Index()))
			}
			value := uint32(0xC0DE0000) | uint32(target)
			env.frame.Set(instruction.Target, value)

			frameBefore := *env.frame
			memoryBefore := env.snapshot(t)

			handled, err := env.emulator.Handle(env.frame)
			require.NoError(t, err)

			assert.True(t, handled)
			assert.Equal(t, value, env.emulator.State().SCompare1())
			assert.Equal(t, frameBefore, *env.frame, "registers and pc must be unchanged")
			assert.Equal(t, memoryBefore, env.snapshot(t), "memory must be unchanged")
		}
	}
}

func TestHandle_CompareAndSwap(t *testing.T) {
	instruction := instructions.CompareAndSwapWord{Target: 5, Base: 9, WordOffset: 7}
	const (
		base    = memoryBase + 0x100
		address = base + 7*4
	)

	t.Run("match stores the new value", func(t *testing.T) {
		env := newEnvironment(t, instruction, 2, Options{})
		env.emulator.State().SetSCompare1(0xAAAA)
		env.frame.Set(5, 0xBBBB)
		env.frame.Set(9, base)
		env.write(t, address, 0xAAAA)
		pc := env.frame.PC

		handled, err := env.emulator.Handle(env.frame)
		require.NoError(t, err)

		assert.True(t, handled)
		assert.Equal(t, uint32(0xBBBB), env.read(t, address))
		assert.Equal(t, uint32(0xAAAA), env.frame.Get(5))
		assert.Equal(t, uint32(base), env.frame.Get(9))
		assert.Equal(t, uint32(0xAAAA), env.emulator.State().SCompare1())
		assert.Equal(t, pc, env.frame.PC)
	})

	t.Run("mismatch leaves memory untouched", func(t *testing.T) {
		env := newEnvironment(t, instruction, 1, Options{})
		env.emulator.State().SetSCompare1(0xAAAA)
		env.frame.Set(5, 0xBBBB)
		env.frame.Set(9, base)
		env.write(t, address, 0xCCCC)
		memoryBefore := env.snapshot(t)
		pc := env.frame.PC

		handled, err := env.emulator.Handle(env.frame)
		require.NoError(t, err)

		assert.True(t, handled)
		assert.Equal(t, memoryBefore, env.snapshot(t))
		assert.Equal(t, uint32(0xCCCC), env.frame.Get(5))
		assert.Equal(t, pc, env.frame.PC)
	})

	t.Run("target and base can be the same register", func(t *testing.T) {
		same := instructions.CompareAndSwapWord{Target: 4, Base: 4, WordOffset: 0}
		env := newEnvironment(t, same, 0, Options{})
		env.frame.Set(4, base)
		env.emulator.State().SetSCompare1(0)

		handled, err := env.emulator.Handle(env.frame)
		require.NoError(t, err)

		assert.True(t, handled)
		assert.Equal(t, uint32(base), env.read(t, base), "the base address is stored as the new value")
		assert.Equal(t, uint32(0), env.frame.Get(4))
	})
}

func TestHandle_Scenarios(t *testing.T) {
	t.Run("write aux register", func(t *testing.T) {
		env := newEnvironment(t, instructions.WriteAuxiliaryRegister{Target: 0, AuxID: 12}, 0, Options{})
		env.frame.Set(0, 0x1234)

		handled, err := env.emulator.Handle(env.frame)
		require.NoError(t, err)

		assert.True(t, handled)
		assert.Equal(t, uint32(0x1234), env.emulator.State().SCompare1())
	})

	cas := instructions.CompareAndSwapWord{Target: 3, Base: 1, WordOffset: 2}

	t.Run("compare and swap, match", func(t *testing.T) {
		env := newEnvironment(t, cas, 3, Options{})
		env.frame.Set(3, 0x99)
		env.frame.Set(1, 0x1000)
		env.emulator.State().SetSCompare1(0x55)
		env.write(t, 0x1008, 0x55)

		handled, err := env.emulator.Handle(env.frame)
		require.NoError(t, err)

		assert.True(t, handled)
		assert.Equal(t, uint32(0x99), env.read(t, 0x1008))
		assert.Equal(t, uint32(0x55), env.frame.Get(3))
	})

	t.Run("compare and swap, mismatch", func(t *testing.T) {
		env := newEnvironment(t, cas, 3, Options{})
		env.frame.Set(3, 0x99)
		env.frame.Set(1, 0x1000)
		env.emulator.State().SetSCompare1(0x55)
		env.write(t, 0x1008, 0x77)

		handled, err := env.emulator.Handle(env.frame)
		require.NoError(t, err)

		assert.True(t, handled)
		assert.Equal(t, uint32(0x77), env.read(t, 0x1008))
		assert.Equal(t, uint32(0x77), env.frame.Get(3))
	})
}

func TestHandle_NotHandled(t *testing.T) {
	cases := []struct {
		name        string
		instruction instructions.Instruction
	}{
		{"unrecognized", instructions.Unrecognized{Word: 0x004136}},
		{"zero", instructions.Unrecognized{Word: 0}},
		{"wsr to another special register", instructions.WriteAuxiliaryRegister{Target: 2, AuxID: 230}},
		{"wsr to a neighbour of scompare1", instructions.WriteAuxiliaryRegister{Target: 2, AuxID: instructions.SCOMPARE1 + 1}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			for offset := uint32(0); offset < cpu.WordSize; offset++ {
				env := newEnvironment(t, c.instruction, offset, Options{})
				env.emulator.State().SetSCompare1(0x42)
				env.frame.Set(2, 0x99)
				frameBefore := *env.frame
				memoryBefore := env.snapshot(t)

				handled, err := env.emulator.Handle(env.frame)
				require.NoError(t, err)

				assert.False(t, handled)
				assert.Equal(t, frameBefore, *env.frame)
				assert.Equal(t, memoryBefore, env.snapshot(t))
				assert.Equal(t, uint32(0x42), env.emulator.State().SCompare1())
			}
		})
	}
}

func TestHandle_UnwatchedWritePolicies(t *testing.T) {
	instruction := instructions.WriteAuxiliaryRegister{Target: 2, AuxID: 3}

	t.Run("forward", func(t *testing.T) {
		env := newEnvironment(t, instruction, 0, Options{UnwatchedWrites: UnwatchedWritePolicy_Forward})

		handled, err := env.emulator.Handle(env.frame)
		require.NoError(t, err)
		assert.False(t, handled)
	})

	t.Run("ignore", func(t *testing.T) {
		env := newEnvironment(t, instruction, 0, Options{UnwatchedWrites: UnwatchedWritePolicy_Ignore})
		env.frame.Set(2, 0x99)
		frameBefore := *env.frame

		handled, err := env.emulator.Handle(env.frame)
		require.NoError(t, err)
		assert.True(t, handled)
		assert.Equal(t, frameBefore, *env.frame)
		assert.Equal(t, uint32(0), env.emulator.State().SCompare1())
	})

	t.Run("fatal", func(t *testing.T) {
		env := newEnvironment(t, instruction, 0, Options{UnwatchedWrites: UnwatchedWritePolicy_Fatal})

		handled, err := env.emulator.Handle(env.frame)
		assert.False(t, handled)
		assert.ErrorIs(t, err, ErrUnwatchedAuxiliaryRegister)
		assert.False(t, env.emulator.State().Busy())
	})
}

func TestHandle_Faults(t *testing.T) {
	t.Run("fetch outside of memory", func(t *testing.T) {
		emulator := NewEmulator(cpu.MakeMemory(memoryBase, memorySize), NewCoreState(0), Options{})

		handled, err := emulator.Handle(&cpu.Frame{PC: 0x10})
		assert.False(t, handled)
		assert.ErrorIs(t, err, ErrFetch)
		assert.ErrorIs(t, err, cpu.ErrSegfault)
	})

	t.Run("compare and swap outside of memory", func(t *testing.T) {
		env := newEnvironment(t, instructions.CompareAndSwapWord{Target: 3, Base: 1, WordOffset: 0}, 0, Options{})
		env.frame.Set(1, 0x8000)
		env.frame.Set(3, 0x99)

		handled, err := env.emulator.Handle(env.frame)
		assert.False(t, handled)
		assert.ErrorIs(t, err, ErrMemoryAccess)
		assert.ErrorIs(t, err, cpu.ErrSegfault)
		assert.Equal(t, uint32(0x99), env.frame.Get(3), "target register must keep its value")
	})

	t.Run("unaligned compare and swap", func(t *testing.T) {
		env := newEnvironment(t, instructions.CompareAndSwapWord{Target: 3, Base: 1, WordOffset: 0}, 0, Options{})
		env.frame.Set(1, memoryBase+2)

		_, err := env.emulator.Handle(env.frame)
		assert.ErrorIs(t, err, ErrMemoryAccess)
		assert.ErrorIs(t, err, cpu.ErrUnalignedAccess)
	})
}

func TestHandle_ForeignCoreState(t *testing.T) {
	env := newEnvironment(t, instructions.WriteAuxiliaryRegister{Target: 0, AuxID: instructions.SCOMPARE1}, 0, Options{})
	env.frame.CoreID = 1
	env.frame.Set(0, 0x1234)

	handled, err := env.emulator.Handle(env.frame)

	assert.False(t, handled)
	assert.ErrorIs(t, err, ErrForeignCoreState)
	assert.Equal(t, uint32(0), env.emulator.State().SCompare1())
}

// Traps again on the first read, as a nested exception would
type reentrantBus struct {
	*cpu.Memory
	emulator *Emulator
	frame    *cpu.Frame
	nested   error
	done     bool
}

func (b *reentrantBus) Read32(address uint32) (uint32, error) {
	if !b.done {
		b.done = true
		_, b.nested = b.emulator.Handle(b.frame)
	}

	return b.Memory.Read32(address)
}

func TestHandle_ReentrantTrap(t *testing.T) {
	memory := cpu.MakeMemory(memoryBase, memorySize)
	instruction := instructions.WriteAuxiliaryRegister{Target: 0, AuxID: instructions.SCOMPARE1}
	require.NoError(t, memory.LoadBytes(codeBase, instructions.Bytes(instruction)))

	frame := &cpu.Frame{PC: codeBase}
	frame.Set(0, 0x1234)

	bus := &reentrantBus{Memory: memory, frame: frame}
	bus.emulator = NewEmulator(bus, NewCoreState(0), Options{})

	handled, err := bus.emulator.Handle(frame)
	require.NoError(t, err)

	assert.True(t, handled)
	assert.ErrorIs(t, bus.nested, ErrReentrantTrap)
	assert.Equal(t, uint32(0x1234), bus.emulator.State().SCompare1())
	assert.False(t, bus.emulator.State().Busy())
}

func TestCoreState_IsPerCore(t *testing.T) {
	memory := cpu.MakeMemory(memoryBase, memorySize)
	require.NoError(t, memory.LoadBytes(codeBase, instructions.Bytes(instructions.WriteAuxiliaryRegister{Target: 0, AuxID: instructions.SCOMPARE1})))

	core0 := NewEmulator(memory, NewCoreState(0), Options{})
	core1 := NewEmulator(memory, NewCoreState(1), Options{})

	frame0 := &cpu.Frame{PC: codeBase, CoreID: 0}
	frame0.Set(0, 0xAA)
	frame1 := &cpu.Frame{PC: codeBase, CoreID: 1}
	frame1.Set(0, 0xBB)

	_, err := core0.Handle(frame0)
	require.NoError(t, err)
	_, err = core1.Handle(frame1)
	require.NoError(t, err)

	assert.Equal(t, uint32(0xAA), core0.State().SCompare1())
	assert.Equal(t, uint32(0xBB), core1.State().SCompare1())
}
