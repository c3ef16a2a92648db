package cpu

import (
	"fmt"
	"os"
	"sync"

	"github.com/Manu343726/atomicemu/pkg/config"
	"github.com/Manu343726/atomicemu/pkg/hw/cpu"
	"github.com/Manu343726/atomicemu/pkg/hw/cpu/interpreter"
	"github.com/Manu343726/atomicemu/pkg/hw/cpu/loader"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

var (
	execVerbose bool
	execTrace   bool
)

var execCmd = &cobra.Command{
	Use:   "exec <scenario.yaml>...",
	Short: "Run machine scenarios",
	Long: `Loads and runs machine scenarios.

A scenario describes the memory and cores of a machine, the program each core runs
and the state expected once all cores finish. Every instruction of the programs traps
and goes through the S32C1I/WSR emulator, cores run concurrently.

The command exits with a non zero status if any scenario fails to load, faults or
does not meet its expectations.

Example:
  atomicemu cpu exec testdata/swap.yaml
  atomicemu cpu exec --trace --unwatched fatal scenarios/*.yaml`,
	Args: cobra.MinimumNArgs(1),
	Run:  runExec,
}

func init() {
	CpuCmd.AddCommand(execCmd)
	execCmd.Flags().BoolVarP(&execVerbose, "verbose", "v", false, "Print the final state of every core")
	execCmd.Flags().BoolVarP(&execTrace, "trace", "t", false, "Trace each emulated instruction")
	execCmd.Flags().IntP("max-steps", "n", 0, "Maximum number of instructions per core (0 = unlimited)")
	execCmd.Flags().StringP("unwatched", "u", "", "Policy for WSR writes to special registers other than SCOMPARE1 (forward, ignore, fatal)")

	viper.BindPFlag(config.KeyMaxSteps, execCmd.Flags().Lookup("max-steps"))
	viper.BindPFlag(config.KeyUnwatchedPolicy, execCmd.Flags().Lookup("unwatched"))
}

func runExec(cmd *cobra.Command, args []string) {
	c, logger, closer := setup()
	defer closer.Close()

	settings, err := c.MachineSettings(logger)
	if err != nil {
		fatal(1, "%v", err)
	}

	failed := 0

	for _, path := range args {
		if err := execScenario(path, settings, c.Emulation.MaxSteps); err != nil {
			failed++
			for _, e := range multierr.Errors(err) {
				colorError.Fprintf(os.Stderr, "  %v\n", e)
			}
			colorError.Printf("FAIL %s\n", path)
		} else {
			colorSuccess.Printf("PASS %s\n", path)
		}
	}

	if failed > 0 {
		closer.Close()
		os.Exit(2)
	}
}

func execScenario(path string, settings interpreter.Settings, maxSteps int) error {
	scenario, err := loader.LoadScenario(path)
	if err != nil {
		return err
	}

	machine, err := scenario.Build(settings)
	if err != nil {
		return err
	}

	if execTrace {
		machine.SetEventCallback(traceCallback())
	}

	var errs error

	for _, result := range machine.RunCores(maxSteps) {
		switch result.StopReason {
		case interpreter.StopTermination:
		case interpreter.StopHalt:
			errs = multierr.Append(errs, fmt.Errorf("core %v halted at %v: %w", result.CoreID, hex32(result.LastPC), result.Error))
		case interpreter.StopMaxSteps:
			errs = multierr.Append(errs, fmt.Errorf("core %v did not finish after %v instructions", result.CoreID, result.StepsExecuted))
		default:
			errs = multierr.Append(errs, fmt.Errorf("core %v stopped (%v) at %v: %w", result.CoreID, result.StopReason, hex32(result.LastPC), result.Error))
		}
	}

	if execVerbose {
		printHeader("%s", scenario.Name)
		for _, core := range machine.Cores() {
			printCore(core)
		}
	}

	return multierr.Append(errs, scenario.Check(machine))
}

// Prints each emulated instruction. Cores run concurrently so lines are serialized.
func traceCallback() interpreter.EventCallback {
	var lock sync.Mutex

	return func(core *interpreter.Core, event interpreter.ExecutionEvent, result *interpreter.ExecutionResult) bool {
		if event != interpreter.EventStep {
			return true
		}

		lock.Lock()
		defer lock.Unlock()

		fmt.Fprintf(os.Stderr, "[core %d] %s %s %s\n",
			core.ID(),
			colorAddr.Sprintf("%08X", result.LastPC),
			colorInstr.Sprintf("%-24s", result.LastInstruction),
			colorHiBlack.Sprintf("scompare1=0x%08X", core.State().SCompare1()))
		return true
	}
}

func printCore(core *interpreter.Core) {
	status := "running"
	if core.Halted {
		status = "halted"
	}

	fmt.Printf("core %d: pc=%s scompare1=%s (%s)\n", core.ID(), hex32(core.Frame.PC), hex32(core.State().SCompare1()), status)

	for i, r := range cpu.AllRegisters() {
		fmt.Printf("  %s = %s", colorReg.Sprintf("%-3s", r), hex32(core.Frame.Get(r)))
		if i%4 == 3 {
			fmt.Println()
		}
	}
}
