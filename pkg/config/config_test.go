package config

import (
	"bytes"
	"testing"

	"github.com/Manu343726/atomicemu/pkg/hw/cpu/emulation"
	"github.com/Manu343726/atomicemu/pkg/hw/cpu/interpreter"
	"github.com/Manu343726/atomicemu/pkg/logging"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, "warn", c.Log.Level)
	assert.Equal(t, logging.FormatText, c.Log.Format)
	assert.Empty(t, c.Log.File)
	assert.Equal(t, "forward", c.Emulation.UnwatchedPolicy)
	assert.Equal(t, 10000, c.Emulation.MaxSteps)
	assert.Equal(t, interpreter.DefaultMemorySize, c.Memory.Size)
}

func TestLoad_File(t *testing.T) {
	v := newViper()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(`
log:
  level: debug
  file: /tmp/atomicemu.log
emulation:
  unwatched_policy: fatal
  max_steps: 50
memory:
  size: 0x2000
`)))

	c, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, logging.FormatText, c.Log.Format, "keys missing from the file keep their default")
	assert.Equal(t, "/tmp/atomicemu.log", c.Log.File)
	assert.Equal(t, 50, c.Emulation.MaxSteps)
	assert.Equal(t, uint32(0x2000), c.Memory.Size)

	policy, err := c.UnwatchedWrites()
	require.NoError(t, err)
	assert.Equal(t, emulation.UnwatchedWritePolicy_Fatal, policy)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("ATOMICEMU_EMULATION_UNWATCHED_POLICY", "ignore")

	v := newViper()
	BindEnv(v)

	c, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "ignore", c.Emulation.UnwatchedPolicy)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("policy", func(t *testing.T) {
		v := newViper()
		v.Set(KeyUnwatchedPolicy, "explode")

		_, err := Load(v)
		assert.ErrorIs(t, err, emulation.ErrUnknownPolicy)
	})

	t.Run("log level", func(t *testing.T) {
		v := newViper()
		v.Set(KeyLogLevel, "verbose")

		_, err := Load(v)
		assert.ErrorIs(t, err, logging.ErrUnknownLevel)
	})
}

func TestMachineSettings(t *testing.T) {
	v := newViper()
	v.Set(KeyUnwatchedPolicy, "ignore")
	v.Set(KeyMemorySize, 0x400)

	c, err := Load(v)
	require.NoError(t, err)

	logger := logging.Discard()
	settings, err := c.MachineSettings(logger)
	require.NoError(t, err)

	assert.Equal(t, emulation.UnwatchedWritePolicy_Ignore, settings.UnwatchedWrites)
	assert.Equal(t, uint32(0x400), settings.MemorySize)
	assert.Equal(t, interpreter.DefaultMemoryBase, settings.MemoryBase)
	assert.Equal(t, 1, settings.Cores)
	assert.Same(t, logger, settings.Logger)

	c.Emulation.UnwatchedPolicy = "nope"
	_, err = c.MachineSettings(logger)
	assert.ErrorIs(t, err, emulation.ErrUnknownPolicy)
}
