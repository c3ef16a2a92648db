package cmd

import (
	"fmt"
	"os"

	"github.com/Manu343726/atomicemu/cmd/cpu"
	"github.com/Manu343726/atomicemu/cmd/tools"
	"github.com/Manu343726/atomicemu/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "atomicemu",
	Short: "Software emulation of the Xtensa S32C1I instruction",
	Long: `atomicemu emulates the S32C1I compare and swap instruction and the WSR writes to
SCOMPARE1 it depends on, for cores built without the conditional store option.

The emulator runs from the illegal instruction exception path. This CLI runs machine
scenarios through it, and decodes and assembles the emulated instructions.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := RootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	RootCmd.AddCommand(cpu.CpuCmd, tools.ToolsCmd)
	cobra.OnInitialize(initConfig)

	flags := RootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.atomicemu.yaml)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (text, json)")
	flags.String("log-file", "", "also write JSON logs to this file")

	viper.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	viper.BindPFlag(config.KeyLogFormat, flags.Lookup("log-format"))
	viper.BindPFlag(config.KeyLogFile, flags.Lookup("log-file"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".atomicemu" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".atomicemu")
	}

	config.BindEnv(viper.GetViper())

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		cobra.CheckErr(err)
	}
}
