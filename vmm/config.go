package vmm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/sibexico/HexVM/memphy"
)

// Swap backends
const (
	SwapBackendMemory     = "memory"
	SwapBackendCompressed = "compressed"
	SwapBackendMmap       = "mmap"
)

// DefaultMaxRegions is the default symbol table capacity
const DefaultMaxRegions = 30

// Config holds memory manager configuration
type Config struct {
	// Physical memory
	RAMFrames  uint32   `json:"ram_frames"`  // Number of RAM frames shared by all processes
	SwapFrames []uint32 `json:"swap_frames"` // Frames per swap device, one entry per device
	ActiveSwap uint32   `json:"active_swap"` // Swap device that receives evicted pages

	// Swap storage
	SwapBackend     string `json:"swap_backend"`     // memory, compressed or mmap
	SwapCompression string `json:"swap_compression"` // none, snappy or lz4 (compressed backend)
	SwapDirectory   string `json:"swap_directory"`   // Directory for mmap swap files

	// Address spaces
	VirtualMemorySize uint32 `json:"virtual_memory_size"` // Per-process ceiling in bytes
	MaxRegions        int    `json:"max_regions"`         // Symbol table capacity
	StrictBounds      bool   `json:"strict_bounds"`       // Reject offsets past the region end
	LazyMapping       bool   `json:"lazy_mapping"`        // Bind frames on first touch instead of at grow

	// Observability
	EnableMetrics bool   `json:"enable_metrics"`
	LogLevel      string `json:"log_level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		RAMFrames:         256,
		SwapFrames:        []uint32{1024},
		ActiveSwap:        0,
		SwapBackend:       SwapBackendMemory,
		SwapCompression:   "snappy",
		SwapDirectory:     "./swap",
		VirtualMemorySize: MaxVirtualSize,
		MaxRegions:        DefaultMaxRegions,
		StrictBounds:      true,
		LazyMapping:       false,
		EnableMetrics:     true,
		LogLevel:          "info",
	}
}

// LoadConfigFromFile loads configuration from a JSON file
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadConfigFromEnv loads configuration from HEXVM_* environment variables.
// The given dotenv files (default ".env") are loaded first when they exist;
// variables already set in the environment win. Unset or unparsable
// variables keep their default values.
func LoadConfigFromEnv(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	return applyEnv(DefaultConfig()), nil
}

func applyEnv(config *Config) *Config {
	// Physical memory
	if val := os.Getenv("HEXVM_RAM_FRAMES"); val != "" {
		if n, err := strconv.ParseUint(val, 10, 32); err == nil {
			config.RAMFrames = uint32(n)
		}
	}

	if val := os.Getenv("HEXVM_SWAP_FRAMES"); val != "" {
		if sizes, err := ParseFrameList(val); err == nil {
			config.SwapFrames = sizes
		}
	}

	if val := os.Getenv("HEXVM_ACTIVE_SWAP"); val != "" {
		if n, err := strconv.ParseUint(val, 10, 32); err == nil {
			config.ActiveSwap = uint32(n)
		}
	}

	// Swap storage
	if val := os.Getenv("HEXVM_SWAP_BACKEND"); val != "" {
		config.SwapBackend = val
	}

	if val := os.Getenv("HEXVM_SWAP_COMPRESSION"); val != "" {
		config.SwapCompression = val
	}

	if val := os.Getenv("HEXVM_SWAP_DIRECTORY"); val != "" {
		config.SwapDirectory = val
	}

	// Address spaces
	if val := os.Getenv("HEXVM_VIRTUAL_MEMORY_SIZE"); val != "" {
		if n, err := strconv.ParseUint(val, 10, 32); err == nil {
			config.VirtualMemorySize = uint32(n)
		}
	}

	if val := os.Getenv("HEXVM_MAX_REGIONS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			config.MaxRegions = n
		}
	}

	if val := os.Getenv("HEXVM_STRICT_BOUNDS"); val != "" {
		config.StrictBounds = val == "true" || val == "1"
	}

	if val := os.Getenv("HEXVM_LAZY_MAPPING"); val != "" {
		config.LazyMapping = val == "true" || val == "1"
	}

	// Observability
	if val := os.Getenv("HEXVM_ENABLE_METRICS"); val != "" {
		config.EnableMetrics = val == "true" || val == "1"
	}

	if val := os.Getenv("HEXVM_LOG_LEVEL"); val != "" {
		config.LogLevel = val
	}

	return config
}

// ParseFrameList parses "1024,512" into per-device frame counts
func ParseFrameList(val string) ([]uint32, error) {
	parts := strings.Split(val, ",")
	sizes := make([]uint32, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid frame count %q: %w", p, err)
		}
		sizes = append(sizes, uint32(n))
	}
	return sizes, nil
}

// SaveToFile saves the configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.RAMFrames == 0 {
		return fmt.Errorf("ram frames must be greater than 0")
	}

	if c.RAMFrames > MaxFrames {
		return fmt.Errorf("ram frames must not exceed %d", MaxFrames)
	}

	if len(c.SwapFrames) == 0 {
		return fmt.Errorf("at least one swap device is required")
	}

	if len(c.SwapFrames) > MaxSwapDevices {
		return fmt.Errorf("at most %d swap devices are supported", MaxSwapDevices)
	}

	for i, n := range c.SwapFrames {
		if n > MaxSwapFrames {
			return fmt.Errorf("swap device %d: frames must not exceed %d", i, MaxSwapFrames)
		}
	}

	if int(c.ActiveSwap) >= len(c.SwapFrames) {
		return fmt.Errorf("active swap %d out of range (have %d devices)", c.ActiveSwap, len(c.SwapFrames))
	}

	switch c.SwapBackend {
	case SwapBackendMemory, SwapBackendCompressed:
	case SwapBackendMmap:
		if c.SwapDirectory == "" {
			return fmt.Errorf("swap directory cannot be empty for the mmap backend")
		}
	default:
		return fmt.Errorf("invalid swap backend: %s (must be memory, compressed, or mmap)", c.SwapBackend)
	}

	if _, err := memphy.ParseCompressionType(c.SwapCompression); err != nil {
		return err
	}

	if c.VirtualMemorySize == 0 || c.VirtualMemorySize > MaxVirtualSize {
		return fmt.Errorf("virtual memory size must be between 1 and %d", MaxVirtualSize)
	}

	if c.MaxRegions <= 0 {
		return fmt.Errorf("max regions must be greater than 0")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	clone.SwapFrames = append([]uint32(nil), c.SwapFrames...)
	return &clone
}
