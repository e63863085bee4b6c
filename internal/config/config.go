package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/screa/sha256-cracker/internal/crypto"
	crackerr "github.com/screa/sha256-cracker/pkg/errors"
)

// Environment variable prefix
const envPrefix = "CRACKER_"

// Defaults
const (
	DefaultBatchSize   = 5000
	DefaultLogInterval = 5
	DefaultLocalSize   = 256
)

// Errors
var (
	ErrNoHashSpecified        = errors.New("must specify the target hash")
	ErrNoSourceSpecified      = errors.New("must specify either --wordlist or --permutate")
	ErrConflictingSources     = errors.New("--wordlist and --permutate are mutually exclusive")
	ErrInvalidBatchSize       = errors.New("batch size must be positive")
	ErrInvalidLengthRange     = errors.New("invalid permutation length range")
	ErrInvalidLogInterval     = errors.New("log interval must be positive")
	ErrLengthWithoutPermutate = errors.New("--min-length and --max-length require --permutate")
)

// Config holds the application configuration
type Config struct {
	Hash        string `yaml:"-"`
	Wordlist    string `yaml:"wordlist"`
	Permutate   bool   `yaml:"permutate"`
	Alphabet    string `yaml:"alphabet"`
	MinLength   int    `yaml:"min_length"`
	MaxLength   int    `yaml:"max_length"` // 0 means up to the single-block limit
	Workers     int    `yaml:"workers"`
	LocalSize   int    `yaml:"local_size"`
	BatchSize   int    `yaml:"batch_size"`
	Verbose     bool   `yaml:"verbose"`
	LogLevel    string `yaml:"log_level"`
	LogFile     string `yaml:"log_file"`
	LogInterval int    `yaml:"log_interval"` // Logging interval in seconds
	MetricsAddr string `yaml:"metrics_addr"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		MinLength:   1,
		Workers:     runtime.NumCPU(),
		LocalSize:   DefaultLocalSize,
		BatchSize:   DefaultBatchSize,
		LogLevel:    "info",
		LogInterval: DefaultLogInterval,
	}
}

// Load creates a configuration from defaults, an optional .env file and
// CRACKER_* environment variables, in increasing precedence.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		// Existing environment variables win over the file.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, crackerr.Wrap(err, crackerr.KindInvalidConfig, "load env", envFile)
		}
	}
	cfg := NewConfig()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields with CRACKER_* environment variables
func (c *Config) ApplyEnv() error {
	var err error
	c.Wordlist = getEnv("WORDLIST", c.Wordlist)
	c.Alphabet = getEnv("ALPHABET", c.Alphabet)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("LOG_FILE", c.LogFile)
	c.MetricsAddr = getEnv("METRICS_ADDR", c.MetricsAddr)

	if c.Permutate, err = getEnvBool("PERMUTATE", c.Permutate); err != nil {
		return err
	}
	if c.Verbose, err = getEnvBool("VERBOSE", c.Verbose); err != nil {
		return err
	}
	for _, f := range []struct {
		key string
		dst *int
	}{
		{"MIN_LENGTH", &c.MinLength},
		{"MAX_LENGTH", &c.MaxLength},
		{"WORKERS", &c.Workers},
		{"LOCAL_SIZE", &c.LocalSize},
		{"BATCH_SIZE", &c.BatchSize},
		{"LOG_INTERVAL", &c.LogInterval},
	} {
		if *f.dst, err = getEnvInt(f.key, *f.dst); err != nil {
			return err
		}
	}
	return nil
}

// LoadFile overlays the YAML file at path. Keys absent from the file keep
// their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return crackerr.Wrap(err, crackerr.KindInvalidConfig, "load config", path)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return crackerr.Wrap(err, crackerr.KindInvalidConfig, "load config", "invalid YAML in "+path)
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return crackerr.Wrap(err, crackerr.KindInvalidConfig, "validate config", "invalid configuration")
	}
	return nil
}

func (c *Config) validate() error {
	if c.Hash == "" {
		return ErrNoHashSpecified
	}
	if c.Wordlist == "" && !c.Permutate {
		return ErrNoSourceSpecified
	}
	if c.Wordlist != "" && c.Permutate {
		return ErrConflictingSources
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.LogInterval <= 0 {
		return ErrInvalidLogInterval
	}
	if !c.Permutate {
		if c.MaxLength != 0 || (c.MinLength != 0 && c.MinLength != 1) {
			return ErrLengthWithoutPermutate
		}
		return nil
	}
	if c.MinLength < 1 || c.MinLength > crypto.MaxMessageLen {
		return fmt.Errorf("%w: min length %d outside 1..%d", ErrInvalidLengthRange, c.MinLength, crypto.MaxMessageLen)
	}
	if c.MaxLength < 0 || c.MaxLength > crypto.MaxMessageLen {
		return fmt.Errorf("%w: max length %d outside 0..%d", ErrInvalidLengthRange, c.MaxLength, crypto.MaxMessageLen)
	}
	if c.MaxLength != 0 && c.MaxLength < c.MinLength {
		return fmt.Errorf("%w: max length %d below min length %d", ErrInvalidLengthRange, c.MaxLength, c.MinLength)
	}
	return nil
}

// GetSourceDescription returns a human-readable description of the candidate source
func (c *Config) GetSourceDescription() string {
	if c.Wordlist != "" {
		return "wordlist: " + c.Wordlist
	}
	if c.Permutate {
		maxLen := "unbounded"
		if c.MaxLength > 0 {
			maxLen = strconv.Itoa(c.MaxLength)
		}
		return fmt.Sprintf("permutations, length %d..%s", c.MinLength, maxLen)
	}
	return "unknown"
}

// GetLogInterval returns the progress logging interval
func (c *Config) GetLogInterval() time.Duration {
	return time.Duration(c.LogInterval) * time.Second
}

// GetLogLevel returns the effective log level
func (c *Config) GetLogLevel() string {
	if c.Verbose {
		return "debug"
	}
	return c.LogLevel
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(envPrefix + key); ok {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value, ok := os.LookupEnv(envPrefix + key)
	if !ok || value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, crackerr.Wrap(err, crackerr.KindInvalidConfig, "load env", envPrefix+key)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value, ok := os.LookupEnv(envPrefix + key)
	if !ok || value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, crackerr.Wrap(err, crackerr.KindInvalidConfig, "load env", envPrefix+key)
	}
	return b, nil
}
