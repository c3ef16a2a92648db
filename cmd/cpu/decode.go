package cpu

import (
	"fmt"

	"github.com/Manu343726/atomicemu/pkg/hw/cpu/mc/instructions"
	"github.com/Manu343726/atomicemu/pkg/utils"
	"github.com/spf13/cobra"
)

var decodeFrame bool

var decodeCmd = &cobra.Command{
	Use:   "decode <word>...",
	Short: "Decode 24 bit instruction words",
	Long: `Decodes instruction words the way the emulator does when a core traps on them.
Words that are neither WSR nor S32C1I are reported as unrecognized.

Example:
  atomicemu cpu decode 0x130C00 0x02E132`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		for _, arg := range args {
			word, err := utils.ParseUint32(arg)
			if err != nil {
				fatal(1, "'%v' is not an instruction word: %v", arg, err)
			}

			instruction := instructions.Decode(word)
			fmt.Printf("%s  %s\n", colorHex.Sprintf("%06X", word&0xFFFFFF), colorInstr.Sprint(instruction))

			if decodeFrame {
				if _, ok := instruction.(instructions.Unrecognized); ok {
					continue
				}

				frame, err := instructions.PrettyPrint(instruction, 2)
				if err != nil {
					fatal(1, "%v", err)
				}
				fmt.Println(frame)
			}
		}
	},
}

func init() {
	CpuCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().BoolVarP(&decodeFrame, "frame", "f", false, "Draw the instruction fields")
}
