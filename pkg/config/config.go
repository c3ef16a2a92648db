// Package config holds the settings read from the configuration file, environment and flags.
package config

import (
	"log/slog"
	"strings"

	"github.com/Manu343726/atomicemu/pkg/hw/cpu/emulation"
	"github.com/Manu343726/atomicemu/pkg/hw/cpu/interpreter"
	"github.com/Manu343726/atomicemu/pkg/logging"
	"github.com/spf13/viper"
)

// Prefix of the environment variables overriding settings (ATOMICEMU_LOG_LEVEL, ...)
const EnvPrefix = "ATOMICEMU"

const (
	KeyLogLevel        = "log.level"
	KeyLogFormat       = "log.format"
	KeyLogFile         = "log.file"
	KeyUnwatchedPolicy = "emulation.unwatched_policy"
	KeyMaxSteps        = "emulation.max_steps"
	KeyMemorySize      = "memory.size"
)

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

type Emulation struct {
	// What to do with WSR instructions writing special registers other than SCOMPARE1
	UnwatchedPolicy string `mapstructure:"unwatched_policy"`
	// Instructions each core may run before being stopped (0 = unlimited)
	MaxSteps int `mapstructure:"max_steps"`
}

type Memory struct {
	// Size of the simulated memory when a scenario does not give one
	Size uint32 `mapstructure:"size"`
}

type Config struct {
	Log       Log       `mapstructure:"log"`
	Emulation Emulation `mapstructure:"emulation"`
	Memory    Memory    `mapstructure:"memory"`
}

// Registers the default value of every setting
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyLogFormat, logging.FormatText)
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyUnwatchedPolicy, emulation.UnwatchedWritePolicy_Forward.String())
	v.SetDefault(KeyMaxSteps, 10000)
	v.SetDefault(KeyMemorySize, interpreter.DefaultMemorySize)
}

// Reads the settings from v and validates them
func Load(v *viper.Viper) (*Config, error) {
	var c Config

	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}

	if _, err := c.UnwatchedWrites(); err != nil {
		return err
	}

	return nil
}

func (c *Config) UnwatchedWrites() (emulation.UnwatchedWritePolicy, error) {
	return emulation.ParseUnwatchedWritePolicy(c.Emulation.UnwatchedPolicy)
}

func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{
		Level:  c.Log.Level,
		Format: c.Log.Format,
		File:   c.Log.File,
	}
}

// Returns the machine settings described by the configuration
func (c *Config) MachineSettings(logger *slog.Logger) (interpreter.Settings, error) {
	policy, err := c.UnwatchedWrites()
	if err != nil {
		return interpreter.Settings{}, err
	}

	settings := interpreter.DefaultSettings()
	settings.MemorySize = c.Memory.Size
	settings.UnwatchedWrites = policy
	settings.Logger = logger
	return settings, nil
}

// Makes ATOMICEMU_<KEY> environment variables override settings, dots in keys
// replaced by underscores
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}
