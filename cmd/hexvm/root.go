package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sibexico/HexVM/vmm"
)

var (
	configFile  string
	ramFrames   uint32
	swapFrames  string
	swapBackend string
	lazyMapping bool
	logLevel    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hexvm",
	Short: "HexVM simulates paged virtual memory for a set of processes.",
	Long: `HexVM simulates paged virtual memory for a set of processes ` +
		`sharing a bounded RAM and one or more swap devices. Workload ` +
		`scripts drive region allocation and byte access per process.`,
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "JSON configuration file (default: HEXVM_* environment and .env)")
	flags.Uint32Var(&ramFrames, "ram-frames", 0, "Number of RAM frames")
	flags.StringVar(&swapFrames, "swap-frames", "", "Comma separated frame counts, one per swap device")
	flags.StringVar(&swapBackend, "swap-backend", "", "Swap backend: memory, compressed or mmap")
	flags.BoolVar(&lazyMapping, "lazy", false, "Bind frames on first touch instead of at allocation")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Registered exit handlers run before the process ends.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

// loadConfig resolves the effective configuration: file or environment
// first, then any flag the user set explicitly.
func loadConfig(cmd *cobra.Command) (*vmm.Config, error) {
	var (
		config *vmm.Config
		err    error
	)

	if configFile != "" {
		config, err = vmm.LoadConfigFromFile(configFile)
	} else {
		config, err = vmm.LoadConfigFromEnv()
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("ram-frames") {
		config.RAMFrames = ramFrames
	}
	if flags.Changed("swap-frames") {
		sizes, err := vmm.ParseFrameList(swapFrames)
		if err != nil {
			return nil, err
		}
		config.SwapFrames = sizes
	}
	if flags.Changed("swap-backend") {
		config.SwapBackend = swapBackend
	}
	if flags.Changed("lazy") {
		config.LazyMapping = lazyMapping
	}
	if flags.Changed("log-level") {
		config.LogLevel = logLevel
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}
