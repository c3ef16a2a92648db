package loader

import (
	"path/filepath"
	"testing"

	"github.com/Manu343726/atomicemu/pkg/hw/cpu"
	"github.com/Manu343726/atomicemu/pkg/hw/cpu/interpreter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func settings() interpreter.Settings {
	return interpreter.DefaultSettings()
}

func TestLoadScenario(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "swap.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "compare and swap succeeds", scenario.Name)
	assert.Equal(t, Word(0x1000), scenario.Memory.Base)
	require.Len(t, scenario.Cores, 1)
	assert.Equal(t, Word(0x1800), scenario.Cores[0].PC)
	assert.Equal(t, []string{"wsr a0, scompare1", "s32c1i a3, a1, 8"}, scenario.Cores[0].Program)
	assert.Equal(t, map[Word]Word{0x1008: 0x55}, scenario.Data)

	machine, err := scenario.Build(settings())
	require.NoError(t, err)

	result := machine.Run(0, 0)
	require.NoError(t, result.Error)
	assert.Equal(t, interpreter.StopTermination, result.StopReason)

	assert.NoError(t, scenario.Check(machine))
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join("testdata", "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadScenario_SeveralCores(t *testing.T) {
	path := filepath.Join("testdata", "spinlock.yaml")
	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "two cores race for a lock word", scenario.Name)
	assert.Len(t, scenario.Cores, 2)
}

func TestScenario_RunCores(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "spinlock.yaml"))
	require.NoError(t, err)

	machine, err := scenario.Build(settings())
	require.NoError(t, err)

	for _, result := range machine.RunCores(0) {
		require.NoError(t, result.Error)
		assert.Equal(t, interpreter.StopTermination, result.StopReason)
	}

	owner, err := machine.Memory().Read32(0x1c00)
	require.NoError(t, err)
	assert.Contains(t, []uint32{1, 2}, owner)

	loser := machine.Cores()[2-owner]
	assert.Equal(t, owner, loser.Frame.Get(cpu.A3))
}

func TestParse(t *testing.T) {
	t.Run("number notations", func(t *testing.T) {
		scenario, err := Parse([]byte(`
memory: {base: 0b1000000000000, size: 4096}
cores:
  - pc: 0o14000
    registers: {A5: 0xdead_beef}
`))
		require.NoError(t, err)
		assert.Equal(t, Word(0x1000), scenario.Memory.Base)
		assert.Equal(t, Word(4096), scenario.Memory.Size)
		assert.Equal(t, Word(0x1800), scenario.Cores[0].PC)
		assert.Equal(t, Word(0xdeadbeef), scenario.Cores[0].Registers["A5"])
	})

	tests := []struct {
		name string
		yaml string
	}{
		{"no cores", "memory: {base: 0x1000}"},
		{"empty document", ""},
		{"unknown field", "cores: [{pc: 0}]\nbogus: 1"},
		{"bad number", "cores: [{pc: banana}]"},
		{"number too big", "cores: [{pc: 0x100000000}]"},
		{"non scalar number", "cores: [{pc: [1, 2]}]"},
		{"bad register", "cores: [{registers: {a16: 1}}]"},
		{"bad program", "cores: [{program: [nop]}]"},
		{"bad expected register", "cores: [{}]\nexpect: {cores: [{registers: {x1: 1}}]}"},
		{"too many expectations", "cores: [{}]\nexpect: {cores: [{}, {}]}"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse([]byte(test.yaml))
			assert.ErrorIs(t, err, ErrInvalidScenario)
		})
	}
}

func TestScenario_Build(t *testing.T) {
	t.Run("memory size defaults to settings", func(t *testing.T) {
		scenario, err := Parse([]byte("memory: {base: 0x4000}\ncores: [{pc: 0x4000}]"))
		require.NoError(t, err)

		s := settings()
		s.MemorySize = 0x100
		machine, err := scenario.Build(s)
		require.NoError(t, err)
		assert.Equal(t, uint32(0x4000), machine.Memory().Base())
		assert.Equal(t, uint32(0x100), machine.Memory().Size())
	})

	t.Run("initial state", func(t *testing.T) {
		scenario, err := Parse([]byte(`
memory: {base: 0x1000, size: 0x100}
cores:
  - pc: 0x1000
    registers: {a1: 7}
    scompare1: 0x42
  - pc: 0x1010
data: {0x1080: 3}
`))
		require.NoError(t, err)

		machine, err := scenario.Build(settings())
		require.NoError(t, err)
		require.Len(t, machine.Cores(), 2)

		assert.Equal(t, uint32(7), machine.Cores()[0].Frame.Get(cpu.A1))
		assert.Equal(t, uint32(0x42), machine.Cores()[0].State().SCompare1())
		assert.Equal(t, uint32(0x1010), machine.Cores()[1].Frame.PC)
		assert.True(t, machine.Cores()[0].IsTerminationAddress(0x1000), "an empty program terminates right away")

		word, err := machine.Memory().Read32(0x1080)
		require.NoError(t, err)
		assert.Equal(t, uint32(3), word)
	})

	t.Run("program outside memory", func(t *testing.T) {
		scenario, err := Parse([]byte("memory: {base: 0x1000, size: 0x100}\ncores: [{pc: 0x2000, program: [\"wsr a0, scompare1\"]}]"))
		require.NoError(t, err)
		require.Equal(t, []string{"wsr a0, scompare1"}, scenario.Cores[0].Program)

		_, err = scenario.Build(settings())
		assert.ErrorIs(t, err, ErrInvalidScenario)
		assert.ErrorIs(t, err, cpu.ErrSegfault)
	})

	t.Run("data outside memory", func(t *testing.T) {
		scenario, err := Parse([]byte("memory: {base: 0x1000, size: 0x100}\ncores: [{pc: 0x1000}]\ndata: {0x1100: 1}"))
		require.NoError(t, err)

		_, err = scenario.Build(settings())
		assert.ErrorIs(t, err, ErrInvalidScenario)
	})
}

func TestScenario_Check(t *testing.T) {
	scenario, err := Parse([]byte(`
memory: {base: 0x1000, size: 0x100}
cores:
  - pc: 0x1000
    registers: {a1: 1, a2: 2}
    scompare1: 5
data: {0x1010: 9}
expect:
  cores:
    - registers: {a1: 1, a2: 3}
      scompare1: 6
      pc: 0x1004
      halted: true
  memory:
    0x1010: 9
    0x1014: 1
    0x2000: 0
`))
	require.NoError(t, err)

	machine, err := scenario.Build(settings())
	require.NoError(t, err)

	err = scenario.Check(machine)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExpectationMismatch)

	errs := multierr.Errors(err)
	require.Len(t, errs, 6)
	assert.Contains(t, errs[0].Error(), "core 0 a2")
	assert.Contains(t, errs[1].Error(), "core 0 scompare1")
	assert.Contains(t, errs[2].Error(), "core 0 pc")
	assert.Contains(t, errs[3].Error(), "core 0 halted")
	assert.Contains(t, errs[4].Error(), "memory 0x00001014")
	assert.ErrorIs(t, errs[5], cpu.ErrSegfault)
}
