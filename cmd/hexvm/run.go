package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sibexico/HexVM/memphy"
	"github.com/sibexico/HexVM/vmm"
)

var (
	dumpRAM     bool
	showMetrics bool
)

var runCmd = &cobra.Command{
	Use:   "run SCRIPT",
	Short: "Replay a workload script.",
	Long: "Each script line reads `<pid> <op> args`. Ops: alloc rg size, " +
		"free rg, write rg off val, read rg off, writestr rg text, " +
		"readstr rg, dump, exit. Use - to read the script from stdin.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if showMetrics {
			config.EnableMetrics = true
		}

		cmds, err := readScript(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}

		logger := vmm.NewLogger(cmd.ErrOrStderr(), config.LogLevel)
		m, err := vmm.NewManager(config, logger)
		if err != nil {
			return err
		}
		// swap files are closed even when a later step exits early
		atexit.Register(func() { m.Close() })

		out := cmd.OutOrStdout()
		if err := runScript(m, cmds, out); err != nil {
			return err
		}

		if dumpRAM {
			fmt.Fprintln(out, "== ram ==")
			if err := memphy.Dump(out, m.RAM()); err != nil {
				return err
			}
		}

		if err := m.Close(); err != nil {
			return fmt.Errorf("failed to release memory: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&dumpRAM, "dump", false, "Dump non-zero RAM cells after the run")
	runCmd.Flags().BoolVar(&showMetrics, "metrics", false, "Log memory manager metrics after the run")
}

func readScript(path string, stdin io.Reader) ([]command, error) {
	if path == "-" {
		return parseScript(stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	return parseScript(f)
}
