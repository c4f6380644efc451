// Package main provides the socrelay binary entry point.
// Socrelay is the Third Space SOC assistant backend: it relays analyst
// requests to LLM completions and enriches alerts with indicator reputation.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	// Register LLM providers via init()
	_ "github.com/thirdspace/socrelay/llm/providers"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/spf13/cobra"

	"github.com/thirdspace/socrelay/config"
	"github.com/thirdspace/socrelay/cve"
	"github.com/thirdspace/socrelay/llm"
	"github.com/thirdspace/socrelay/model"
	"github.com/thirdspace/socrelay/reputation"
	"github.com/thirdspace/socrelay/server"
	"github.com/thirdspace/socrelay/storage"
	"github.com/thirdspace/socrelay/triage"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "socrelay"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "socrelay",
		Short: "SOC assistant backend",
		Long: `Socrelay is the Third Space SOC assistant backend.

It provides:
- Alert ingestion with structured triage and ticket synthesis
- Assistant endpoints for triage, KB, threat intel, phishing and remediation
- URL/IP reputation enrichment via VirusTotal
- CVE lookup with model-generated explanations

Alert records and scan telemetry persist to NATS JetStream KV.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, logLevel)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func run(configPath, logLevel string) error {
	printBanner()

	// Configure logging
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	loader := config.NewLoader(logger)
	cfg, err := loader.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to NATS and open the document store
	nc, err := nats.Connect(cfg.NATS.URL, nats.Name(appName))
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}

	store, err := storage.NewStore(ctx, js)
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}

	// Completion gateway
	registry := buildRegistry(cfg)
	llmClient := llm.NewClient(registry,
		llm.WithTimeout(cfg.Model.Timeout),
		llm.WithLogger(logger))

	// Reputation enrichment
	repClient := reputation.NewClient(cfg.Reputation.BaseURL, cfg.Reputation.APIKey,
		reputation.WithTimeout(cfg.Reputation.Timeout),
		reputation.WithLogger(logger))
	enricher := reputation.NewEnricher(repClient, reputation.WithEnricherLogger(logger))
	enricher.SetDisabled(cfg.Reputation.Disabled)

	// Reload the reputation toggle when the config file changes
	if configPath != "" {
		watcher, err := config.NewWatcher(configPath, logger, func(updated *config.Config) {
			enricher.SetDisabled(updated.Reputation.Disabled)
		})
		if err != nil {
			logger.Warn("Config watcher unavailable", "path", configPath, "error", err)
		} else {
			go watcher.Run(ctx)
		}
	}

	orchestrator := triage.NewOrchestrator(llmClient, enricher,
		triage.WithLogger(logger),
		triage.WithTemperature(cfg.Model.Temperature))

	cveClient := cve.NewClient(cfg.CVE.BaseURL,
		cve.WithHTTPClient(&http.Client{Timeout: cfg.CVE.Timeout}),
		cve.WithLogger(logger))
	cveService := cve.NewService(cveClient, llmClient, logger)

	srv := server.New(orchestrator, llmClient, enricher, store, cveService,
		server.WithLogger(logger),
		server.WithTemperature(cfg.Model.Temperature))

	logger.Info("Socrelay ready",
		"version", Version,
		"addr", cfg.Server.Addr,
		"analysis_model", cfg.Model.Analysis,
		"drafting_model", cfg.Model.Drafting,
		"reputation_disabled", cfg.Reputation.Disabled)

	return srv.Run(ctx, cfg.Server.Addr, cfg.Server.ShutdownTimeout)
}

// buildRegistry maps the model config onto the capability registry. A custom
// endpoint overrides the OpenAI-compatible URL for the configured models.
func buildRegistry(cfg *config.Config) *model.Registry {
	registry := model.NewDefaultRegistry()

	registry.SetEndpoint(cfg.Model.Analysis, &model.EndpointConfig{
		Provider: "openai",
		URL:      cfg.Model.Endpoint,
		Model:    cfg.Model.Analysis,
	})
	registry.SetEndpoint(cfg.Model.Drafting, &model.EndpointConfig{
		Provider: "openai",
		URL:      cfg.Model.Endpoint,
		Model:    cfg.Model.Drafting,
	})

	registry.SetCapability(model.CapabilityAnalysis, &model.CapabilityConfig{
		Description: "Structured triage, phishing and threat-intel analysis",
		Preferred:   []string{cfg.Model.Analysis},
		Fallback:    []string{cfg.Model.Drafting, "qwen"},
	})
	registry.SetCapability(model.CapabilityDrafting, &model.CapabilityConfig{
		Description: "Ticket drafting, knowledge-base answers",
		Preferred:   []string{cfg.Model.Drafting},
		Fallback:    []string{"qwen"},
	})
	registry.SetDefault(cfg.Model.Drafting)

	return registry
}

func printBanner() {
	fmt.Println("╔═══════════════════════════════════════════════╗")
	fmt.Println("║             Socrelay v" + Version + "                   ║")
	fmt.Println("║      Third Space SOC Assistant Backend        ║")
	fmt.Println("╚═══════════════════════════════════════════════╝")
}
