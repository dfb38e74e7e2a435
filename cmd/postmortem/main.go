// Package main runs the postmortem debugger server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/postmortem/internal/config"
	"github.com/dshills/postmortem/internal/debugger"
	"github.com/dshills/postmortem/internal/event"
	"github.com/dshills/postmortem/internal/highlight"
	"github.com/dshills/postmortem/internal/logging"
	"github.com/dshills/postmortem/internal/server"
	"github.com/dshills/postmortem/internal/source"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	configPath  string
	addr        string
	logLevel    string
	demo        bool
	printConfig bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		return 1
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		return 1
	}

	if opts.printConfig {
		data, err := cfg.Encode("postmortem.toml")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		os.Stdout.Write(data)
		return 0
	}

	logger := logging.New(logging.Config{
		Level:  cfg.LogLevel(),
		Output: os.Stderr,
		Prefix: "postmortem",
	})
	logging.SetDefault(logger)

	srv, cleanup, err := build(cfg, logger, opts.demo)
	if err != nil {
		logger.WithError(err).Error("failed to initialize")
		return 1
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.demo {
		logger.Info("demo routes enabled: GET http://%s/demo/panic", cfg.Server.Addr)
	}
	if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
		logger.WithError(err).Error("server stopped")
		return 1
	}
	return 0
}

// build wires the configured collaborators into a server. cleanup releases
// the source cache and every stored capture.
func build(cfg *config.Config, logger *logging.Logger, demo bool) (*server.Server, func(), error) {
	provider, err := cfg.REPLProvider()
	if err != nil {
		return nil, nil, err
	}
	formatter, err := cfg.EditorFormatter()
	if err != nil {
		return nil, nil, err
	}

	var reader source.Reader = source.FileReader{}
	cache, err := source.NewCachedReader(source.WithCacheLogger(logger))
	if err != nil {
		logger.WithError(err).Warn("source cache disabled")
	} else {
		reader = cache
	}

	chroma := highlight.NewChroma("lua")
	metrics := debugger.NewMetrics()
	bus := event.NewBus(event.WithBusLogger(logger))
	store := debugger.NewStore(cfg.Server.StoreCapacity,
		debugger.WithStoreLogger(logger),
		debugger.WithStoreMetrics(metrics),
		debugger.WithStoreBus(bus),
	)

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithMetrics(metrics),
		server.WithBus(bus),
		server.WithRoot(cfg.Debugger.Root),
		server.WithStylesheet(chroma.CSS()),
		server.WithMCP(cfg.Server.MCP),
		server.WithVersion(version),
		server.WithRegistryOptions(
			debugger.WithProvider(provider),
			debugger.WithMaxInspectSize(cfg.Debugger.MaxInspectSize),
			debugger.WithContextLines(cfg.Debugger.ContextLines),
			debugger.WithReader(reader),
			debugger.WithEditor(formatter),
			debugger.WithHighlighter(chroma),
			debugger.WithLogger(logger),
		),
	}
	if demo {
		opts = append(opts, server.WithRoutes(demoRoutes))
	}

	cleanup := func() {
		store.Close()
		if cache != nil {
			cache.Close()
		}
	}
	return server.New(store, opts...), cleanup, nil
}

func parseFlags() options {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.configPath, "config", os.Getenv("POSTMORTEM_CONFIG"), "Path to a TOML or YAML configuration file")
	flag.StringVar(&opts.configPath, "c", os.Getenv("POSTMORTEM_CONFIG"), "Path to configuration file (shorthand)")
	flag.StringVar(&opts.addr, "addr", "", "Listen address (overrides config)")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.demo, "demo", false, "Serve /demo routes that panic with bound locals")
	flag.BoolVar(&opts.printConfig, "print-config", false, "Print the effective configuration as TOML and exit")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "postmortem - interactive post-mortem debugger\n\n")
		fmt.Fprintf(os.Stderr, "Usage: postmortem [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  postmortem -demo                   Serve the demo routes\n")
		fmt.Fprintf(os.Stderr, "  postmortem -c postmortem.toml      Load settings from a file\n")
		fmt.Fprintf(os.Stderr, "  postmortem -print-config           Show effective settings\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("postmortem %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if opts.logLevel != "" && !logging.ValidLevel(opts.logLevel) {
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.logLevel)
		os.Exit(1)
	}

	return opts
}
