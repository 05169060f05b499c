package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/alex-ilgayev/adaptogen/pkg/bus"
	"github.com/alex-ilgayev/adaptogen/pkg/config"
	"github.com/alex-ilgayev/adaptogen/pkg/eventlogger"
	"github.com/alex-ilgayev/adaptogen/pkg/ingest"
	"github.com/alex-ilgayev/adaptogen/pkg/llm"
	"github.com/alex-ilgayev/adaptogen/pkg/output"
	"github.com/alex-ilgayev/adaptogen/pkg/version"
)

// Command line flags
type rootOptions struct {
	configPath  string
	verbose     bool
	logLevel    string
	jsonl       bool
	format      string
	outputFile  string
	dedup       bool
	showRaw     bool
	metricsAddr string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "adaptogen [files...]",
		Short: "Normalize LLM provider responses into content frames",
		Long: `adaptogen reads raw LLM API responses (Anthropic Messages, OpenAI-compatible
chat completions) and converts them into a provider-independent content frame:
an ordered list of text, thinking, tool use and tool result blocks.

Responses are read from the given files, or from stdin when none is given
or the file is "-". The parser is selected by the response's "model" field.`,
		Version: version.String(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default: $ADAPTOGEN_CONFIG or ./adaptogen.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging (debug level)")
	rootCmd.PersistentFlags().StringVarP(&opts.logLevel, "log-level", "l", "info", "Set log level (trace, debug, info, warn, error, fatal, panic)")

	rootCmd.Flags().BoolVarP(&opts.jsonl, "jsonl", "j", false, "Treat every input line as a separate response")
	rootCmd.Flags().StringVarP(&opts.format, "format", "f", config.FormatConsole, "Output format (console, jsonl)")
	rootCmd.Flags().StringVarP(&opts.outputFile, "output", "o", "", "Output file (JSONL format will be written to file)")
	rootCmd.Flags().BoolVar(&opts.dedup, "dedup", false, "Drop responses identical to one already seen")
	rootCmd.Flags().BoolVar(&opts.showRaw, "raw", false, "Show the raw payload of responses that failed to parse (console only)")
	rootCmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")

	rootCmd.AddCommand(newModelsCommand(opts))

	return rootCmd
}

// setupLogging applies the log level, with --verbose as a shortcut for debug.
func setupLogging(cmd *cobra.Command, opts *rootOptions, cfg *config.Config) (logrus.Level, error) {
	levelName := cfg.Log.Level
	if cmd.Flags().Changed("log-level") {
		levelName = opts.logLevel
	}
	if opts.verbose {
		levelName = "debug"
	}

	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		return 0, fmt.Errorf("invalid log level '%s': %w", levelName, err)
	}
	logrus.SetLevel(level)
	return level, nil
}

// loadConfig loads the config file and environment, then applies the
// flags set explicitly on the command line.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("jsonl") {
		cfg.Input.JSONL = opts.jsonl
	}
	if flags.Changed("dedup") {
		cfg.Input.Dedup = opts.dedup
	}
	if flags.Changed("format") {
		cfg.Output.Format = opts.format
	}
	if flags.Changed("output") {
		cfg.Output.File = opts.outputFile
	}
	if flags.Changed("raw") {
		cfg.Output.ShowRaw = opts.showRaw
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = opts.metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func run(cmd *cobra.Command, opts *rootOptions, args []string) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	level, err := setupLogging(cmd, opts, cfg)
	if err != nil {
		return err
	}

	stdout := cmd.OutOrStdout()

	registry := newRegistry(cfg.Parsers, llm.WithMetrics())
	logrus.WithField("models", len(registry.Models())).Debug("Parser registry ready")

	// Set up signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Metrics.Addr != "" {
		stop := serveMetrics(cfg.Metrics.Addr)
		defer stop()
	}

	// A publish/subscribe event bus for inter-component communication
	eventBus := bus.New()
	defer eventBus.Close()

	if level >= logrus.TraceLevel {
		el, err := eventlogger.New(eventBus)
		if err != nil {
			return fmt.Errorf("failed to create event logger: %w", err)
		}
		defer el.Close()
	}

	// Set up file output if specified
	var file *os.File
	if cfg.Output.File != "" {
		file, err = os.Create(cfg.Output.File)
		if err != nil {
			return fmt.Errorf("failed to create output file '%s': %w", cfg.Output.File, err)
		}
		defer func() {
			if err := file.Close(); err != nil {
				logrus.WithError(err).Error("Failed to close output file")
			}
		}()
	}

	var display output.OutputHandler
	var recordWriters []*output.JSONLDisplay
	switch cfg.Output.Format {
	case config.FormatJSONL:
		var w io.Writer = stdout
		if file != nil {
			// One display for both destinations; see JSONLDisplay.Close.
			w = io.MultiWriter(stdout, file)
		}
		jsonlDisplay, err := output.NewJSONLDisplay(w, eventBus)
		if err != nil {
			return fmt.Errorf("failed to create JSONL display: %w", err)
		}
		display = jsonlDisplay
		recordWriters = append(recordWriters, jsonlDisplay)
	default:
		consoleDisplay, err := output.NewConsoleDisplay(stdout, cfg.Output.ShowRaw, eventBus)
		if err != nil {
			return fmt.Errorf("failed to create console display: %w", err)
		}
		display = consoleDisplay
		if file != nil {
			fileDisplay, err := output.NewJSONLDisplay(file, eventBus)
			if err != nil {
				consoleDisplay.Close()
				return fmt.Errorf("failed to create file display: %w", err)
			}
			defer fileDisplay.Close()
			recordWriters = append(recordWriters, fileDisplay)
		}
	}
	defer display.Close()
	display.PrintHeader()

	normalizer, err := ingest.NewNormalizer(eventBus, registry, ingest.NormalizerOptions{
		Dedup:    cfg.Input.Dedup,
		DedupTTL: cfg.Input.DedupTTL,
		Metrics:  true,
	})
	if err != nil {
		return fmt.Errorf("failed to create normalizer: %w", err)
	}
	defer normalizer.Close()

	inputs := args
	if len(inputs) == 0 {
		inputs = []string{ingest.StdinSource}
	}

	reader := ingest.NewReader(eventBus, cfg.Input.JSONL, cfg.Input.MaxResponseSize)
	readErrors := 0
	for _, input := range inputs {
		n, err := reader.ReadFile(ctx, input)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				display.PrintInfo("Interrupted, stopping")
				break
			}
			readErrors++
			logrus.WithError(err).WithField("source", input).Error("Failed to read input")
		}
		logrus.WithFields(logrus.Fields{"source": input, "responses": n}).Debug("Input read")
	}

	// Wait for the pipeline to drain before reporting.
	eventBus.Wait()

	stats := normalizer.Stats()
	display.PrintStats(display.Stats())

	writeErrors := 0
	for _, w := range recordWriters {
		writeErrors += w.WriteErrors()
	}
	logrus.WithFields(logrus.Fields{
		"parsed":       stats.Parsed,
		"failed":       stats.Failed,
		"duplicates":   stats.Duplicates,
		"write_errors": writeErrors,
	}).Debug("Done")

	return exitError(stats, readErrors, writeErrors)
}

// exitError reports a non-zero exit status when any input could not be
// read, any response failed to parse or any record could not be written.
func exitError(stats ingest.Stats, readErrors, writeErrors int) error {
	var problems []string
	if readErrors > 0 {
		problems = append(problems, fmt.Sprintf("%d inputs could not be read", readErrors))
	}
	if stats.Failed > 0 {
		problems = append(problems, fmt.Sprintf("%d of %d responses failed to parse", stats.Failed, stats.Failed+stats.Parsed))
	}
	if writeErrors > 0 {
		problems = append(problems, fmt.Sprintf("%d records could not be written", writeErrors))
	}
	if len(problems) == 0 {
		return nil
	}
	return errors.New(strings.Join(problems, "; "))
}

// serveMetrics starts the Prometheus endpoint and returns a function that
// shuts it down.
func serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logrus.WithField("addr", addr).Info("Serving metrics")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Error("Metrics server failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logrus.WithError(err).Debug("Failed to shut down metrics server")
		}
	}
}
