package tools

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Manu343726/atomicemu/pkg/hw/cpu/mc/instructions"
	"github.com/Manu343726/atomicemu/pkg/utils"
	"github.com/spf13/cobra"
)

var supportedModules = map[string]func() (string, error){
	"cpu.instructions": instructions.Instructions.DocString,
	"cpu.special_registers": func() (string, error) {
		return instructions.SpecialRegistersDocString(), nil
	},
}

var docsCmd = &cobra.Command{
	Use:   "docs module",
	Short: "Show atomicemu documentation",
	Long: `Dumps the documentation of the specified atomicemu module.
By default the tool dumps the documentation to stdout, but it can be redirected to a file using the --output flag.

Supported modules:
` + strings.Join(utils.Map(utils.SortedKeys(supportedModules), func(module string) string { return "  " + module }), "\n"),
	Args:      cobra.MatchAll(cobra.OnlyValidArgs, cobra.ExactArgs(1)),
	ValidArgs: utils.SortedKeys(supportedModules),
	Run: func(cmd *cobra.Command, args []string) {
		doc, err := supportedModules[args[0]]()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error generating documentation:", err)
			os.Exit(1)
		}

		var output io.Writer = os.Stdout

		outputFile, _ := cmd.Flags().GetString("output")
		if outputFile != "" {
			file, err := os.Create(outputFile)
			if err != nil {
				fmt.Fprintln(os.Stderr, "Error creating file:", err)
				os.Exit(1)
			}
			defer file.Close()
			output = file
		}

		fmt.Fprintln(output, doc)
	},
}

func init() {
	ToolsCmd.AddCommand(docsCmd)
	docsCmd.Flags().StringP("output", "o", "", "Output file. If not specified, the documentation is dumped to stdout.")
}
