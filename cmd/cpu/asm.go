package cpu

import (
	"bufio"
	"fmt"
	"os"

	"github.com/Manu343726/atomicemu/pkg/hw/cpu/mc/instructions"
	"github.com/spf13/cobra"
)

var asmFile string

var asmCmd = &cobra.Command{
	Use:   "asm [<instruction>...]",
	Short: "Assemble WSR and S32C1I instructions",
	Long: `Assembles instructions into their 24 bit encoding.
Instructions are read from the arguments, or from a file with --file (one per line).

Example:
  atomicemu cpu asm "wsr a0, scompare1" "s32c1i a3, a1, 8"
  atomicemu cpu asm -f lock.s`,
	Run: func(cmd *cobra.Command, args []string) {
		lines := args

		if asmFile != "" {
			file, err := os.Open(asmFile)
			if err != nil {
				fatal(1, "%v", err)
			}
			defer file.Close()

			scanner := bufio.NewScanner(file)
			for scanner.Scan() {
				lines = append(lines, scanner.Text())
			}
			if err := scanner.Err(); err != nil {
				fatal(1, "reading %v: %v", asmFile, err)
			}
		}

		program, err := instructions.ParseProgram(lines)
		if err != nil {
			fatal(1, "%v", err)
		}

		for _, instruction := range program {
			bytes := instructions.Bytes(instruction)
			fmt.Printf("%s  %s  %s\n",
				colorHex.Sprintf("%06X", instruction.Encode()),
				colorHiBlack.Sprintf("% X", bytes),
				colorInstr.Sprint(instruction))
		}
	},
}

func init() {
	CpuCmd.AddCommand(asmCmd)
	asmCmd.Flags().StringVarP(&asmFile, "file", "f", "", "Assembly file")
}
