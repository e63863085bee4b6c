package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/screa/sha256-cracker/internal/config"
	"github.com/screa/sha256-cracker/internal/crypto"
	logpkg "github.com/screa/sha256-cracker/internal/logger"
	"github.com/screa/sha256-cracker/internal/metrics"
	crackerpkg "github.com/screa/sha256-cracker/pkg/cracker"
	"github.com/screa/sha256-cracker/pkg/generator"
	"github.com/screa/sha256-cracker/pkg/types"
)

// Exit codes
const (
	exitError    = 1
	exitNotFound = 2
)

// errNotFound ends a run whose candidates were exhausted or interrupted
var errNotFound = errors.New("no match found")

var (
	cfg        *config.Config
	configFile string
	envFile    string
	logger     *logpkg.Logger
)

func main() {
	envFile = os.Getenv("CRACKER_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}

	var err error
	cfg, err = config.Load(envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}

	var rootCmd = &cobra.Command{
		Use:   "sha256-cracker [flags] HASH",
		Short: "Batched SHA-256 password hash cracker",
		Long: `A command line utility for recovering passwords from SHA-256 digests.
Candidates come from a wordlist or from every alphanumeric permutation by
increasing length, and are hashed in parallel batches on a compute device.
Only passwords of up to 55 bytes can be recovered.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCracker,
	}

	bindFlags(rootCmd.Flags(), cfg, &configFile)

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errNotFound) {
			os.Exit(exitNotFound)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}
}

func runCracker(cmd *cobra.Command, args []string) error {
	cfg.Hash = args[0]

	if configFile != "" {
		if err := loadConfigFile(cmd.Flags(), cfg, configFile); err != nil {
			return err
		}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	target, err := crypto.DecodeDigest(cfg.Hash)
	if err != nil {
		return err
	}

	// Setup logging
	setupLogging()
	defer logger.Sync()

	logger.Infof("Starting SHA-256 cracker with %d lanes...", cfg.Workers)
	logger.Infof("Target: %s", target.Hex())
	logger.Infof("Source: %s", cfg.GetSourceDescription())

	src, closeSrc, err := openSource()
	if err != nil {
		return err
	}
	defer closeSrc()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if cfg.MetricsAddr != "" {
		srv := serveMetrics(reg)
		defer shutdown(srv)
	}

	cracker := crackerpkg.New(cfg, logger, crackerpkg.WithMetrics(metrics.New(reg)))

	// Ctrl+C stops the cracker after the in-flight batch
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := cracker.Crack(ctx, target, src)
	if err != nil {
		return err
	}

	reportResult(result)
	if !result.Found() {
		return errNotFound
	}
	return nil
}

func bindFlags(fs *pflag.FlagSet, c *config.Config, configPath *string) {
	fs.StringVarP(&c.Wordlist, "wordlist", "w", c.Wordlist, "Wordlist used to guess the hash (- for stdin)")
	fs.BoolVarP(&c.Permutate, "permutate", "p", c.Permutate, "Use permutations of alphanumerics to guess the hash")
	fs.StringVar(&c.Alphabet, "alphabet", c.Alphabet, "Permutation alphabet (default a-z, A-Z, 0-9)")
	fs.IntVar(&c.MinLength, "min-length", c.MinLength, "Shortest permutation to try")
	fs.IntVar(&c.MaxLength, "max-length", c.MaxLength, "Longest permutation to try (0: no limit)")
	fs.IntVarP(&c.Workers, "workers", "n", c.Workers, "Number of device lanes")
	fs.IntVar(&c.LocalSize, "local-size", c.LocalSize, "Work-items per lane dispatch")
	fs.IntVarP(&c.BatchSize, "batch-size", "b", c.BatchSize, "Candidates per batch")
	fs.BoolVarP(&c.Verbose, "verbose", "v", c.Verbose, "Verbose output")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVarP(&c.LogFile, "log-file", "l", c.LogFile, "Log file for progress tracking (default: stdout)")
	fs.IntVarP(&c.LogInterval, "log-interval", "i", c.LogInterval, "Logging interval in seconds")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "Serve Prometheus metrics on this address")
	fs.StringVarP(configPath, "config", "c", os.Getenv("CRACKER_CONFIG"), "YAML configuration file")
}

// loadConfigFile overlays the YAML file at path onto c. File values sit
// between the environment and explicit flags, so flags set on the command
// line are applied again afterwards.
func loadConfigFile(fs *pflag.FlagSet, c *config.Config, path string) error {
	explicit := make(map[string]string)
	fs.Visit(func(f *pflag.Flag) {
		explicit[f.Name] = f.Value.String()
	})

	if err := c.LoadFile(path); err != nil {
		return err
	}
	for name, value := range explicit {
		if err := fs.Set(name, value); err != nil {
			return fmt.Errorf("reapply flag --%s: %w", name, err)
		}
	}
	return nil
}

func openSource() (generator.Source, func(), error) {
	if cfg.Permutate {
		opts := []generator.PermutationOption{
			generator.WithMinLength(cfg.MinLength),
			generator.WithMaxLength(cfg.MaxLength),
		}
		if cfg.Alphabet != "" {
			opts = append(opts, generator.WithAlphabet(cfg.Alphabet))
		}
		return generator.NewPermutation(opts...), func() {}, nil
	}

	var r io.Reader = os.Stdin
	closeFn := func() {}
	if cfg.Wordlist != "-" {
		file, err := os.Open(cfg.Wordlist)
		if err != nil {
			return nil, nil, fmt.Errorf("open wordlist: %w", err)
		}
		r = file
		closeFn = func() { _ = file.Close() }
	}
	return generator.NewWordlist(r), closeFn, nil
}

func reportResult(result *types.Result) {
	// Calculate rate safely
	rate := 0.0
	if result.Duration.Seconds() > 0 {
		rate = float64(result.Attempts) / result.Duration.Seconds()
	}

	switch result.State {
	case types.StateFound:
		logger.Infof("Found match!")
		logger.Infof("Hash: %s | Word: %s", result.DigestHex, result.Candidate)
		logger.Infof("Position: %d", result.Index)
	case types.StateExhausted:
		logger.Infof("No match found, candidates exhausted.")
	case types.StateCanceled:
		logger.Infof("Cracking stopped by user.")
	}
	logger.Infof("Attempts: %d", result.Attempts)
	logger.Infof("Duration: %v", result.Duration)
	logger.Infof("Rate: %.2f hashes/sec", rate)
	if result.Skipped > 0 {
		logger.Warnf("Skipped %d wordlist entries longer than %d bytes", result.Skipped, crypto.MaxMessageLen)
	}
}

func setupLogging() {
	logger = logpkg.NewWithOptions(logpkg.Options{
		Level: cfg.GetLogLevel(),
		File:  cfg.LogFile,
	})
}

func serveMetrics(reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw("metrics server failed", "addr", cfg.MetricsAddr, "error", err)
		}
	}()
	logger.Infof("Serving metrics on %s/metrics", cfg.MetricsAddr)
	return srv
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
