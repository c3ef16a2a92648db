package cpu

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Manu343726/atomicemu/pkg/config"
	"github.com/Manu343726/atomicemu/pkg/logging"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// CpuCmd groups the commands working with emulated instructions
var CpuCmd = &cobra.Command{
	Use:   "cpu",
	Short: "Run, decode and assemble emulated instructions",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		color.NoColor = color.NoColor || !term.IsTerminal(int(os.Stdout.Fd()))
	},
}

var (
	colorAddr    = color.New(color.FgCyan)
	colorInstr   = color.New(color.FgYellow)
	colorReg     = color.New(color.FgGreen)
	colorHex     = color.New(color.FgMagenta)
	colorError   = color.New(color.FgRed, color.Bold)
	colorSuccess = color.New(color.FgGreen, color.Bold)
	colorHeader  = color.New(color.FgWhite, color.Bold, color.Underline)
	colorHiBlack = color.New(color.FgHiBlack)
)

func fatal(code int, format string, args ...any) {
	colorError.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(code)
}

// Loads the configuration and creates the logger it describes
func setup() (*config.Config, *slog.Logger, io.Closer) {
	c, err := config.Load(viper.GetViper())
	if err != nil {
		fatal(1, "invalid configuration: %v", err)
	}

	logger, closer, err := logging.New(c.LoggingOptions())
	if err != nil {
		fatal(1, "setting up logging: %v", err)
	}

	return c, logger, closer
}

func hex32(value uint32) string {
	return colorHex.Sprintf("0x%08X", value)
}

func printHeader(format string, args ...any) {
	colorHeader.Println(fmt.Sprintf(format, args...))
}
