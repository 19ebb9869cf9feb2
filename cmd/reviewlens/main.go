// ReviewLens - review-grounded Q&A service entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/arielvoskov/reviewlens/internal/api"
	"github.com/arielvoskov/reviewlens/internal/api/handlers"
	"github.com/arielvoskov/reviewlens/internal/domain/chat"
	"github.com/arielvoskov/reviewlens/internal/domain/retrieval"
	"github.com/arielvoskov/reviewlens/internal/infra/config"
	"github.com/arielvoskov/reviewlens/internal/infra/embed"
	"github.com/arielvoskov/reviewlens/internal/infra/eventbus"
	"github.com/arielvoskov/reviewlens/internal/infra/llm"
	"github.com/arielvoskov/reviewlens/internal/infra/metrics"
	"github.com/arielvoskov/reviewlens/internal/infra/remotecfg"
	"github.com/arielvoskov/reviewlens/internal/infra/vectorstore"
	"github.com/arielvoskov/reviewlens/internal/server"
	"github.com/arielvoskov/reviewlens/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("reviewlens", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	showVersion := fs.Bool("version", false, "Show version information")
	showHelp := fs.Bool("help", false, "Show help")
	configPath := fs.String("config", "", "Path to a YAML config file")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}
	if *showHelp {
		printHelp(out)
		return 0
	}

	if err := serve(*configPath); err != nil {
		fmt.Fprintf(out, "reviewlens: %v\n", err) //nolint:errcheck
		return 1
	}
	return 0
}

func serve(configPath string) error {
	// Optional .env for local development; missing file is fine.
	_ = godotenv.Load()

	var cfg config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg = config.Load()
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if level, parseErr := logrus.ParseLevel(cfg.LogLevel); parseErr == nil {
		logger.SetLevel(level)
	}

	// Embedding providers.
	registry := embed.NewRegistry(map[string]embed.Embedder{
		embed.ProviderOllama: embed.NewOllamaEmbedder(cfg.OllamaBaseURL, cfg.OllamaEmbedModel),
		embed.ProviderOpenAI: embed.NewOpenAIEmbedder(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIEmbedModel),
	}, embed.ProviderOllama)

	// Generation providers behind the model router.
	ollamaChat := llm.NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaChatModel)
	openaiChat := llm.NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIChatModel)
	router := llm.NewRouter(ollamaChat, openaiChat, ollamaChat, cfg.OllamaChatModel)

	store := vectorstore.NewQdrantStore(cfg.QdrantURL, cfg.QdrantAPIKey, cfg.QdrantCollection)
	settings := remotecfg.NewCache(cfg.SettingsURL, cfg.SettingsTTL, logger)

	searcher := retrieval.NewSearcher(registry, store, logger)
	assembler := retrieval.NewContextBuilder(searcher)

	bus := eventbus.New()
	recorder := metrics.NewRecorder()
	metricsCtx, stopMetrics := context.WithCancel(context.Background())
	defer stopMetrics()
	go recorder.Run(metricsCtx, bus)

	chatService := chat.NewService(assembler, router, settings, bus, logger)

	handler := api.NewRouter(api.Deps{
		Chat:     chatService,
		Searcher: searcher,
		Health: map[string]handlers.HealthChecker{
			"qdrant": store,
			"ollama": ollamaChat,
		},
		Metrics: recorder.Handler(),
	})

	srvCfg := server.DefaultConfig()
	srvCfg.Host = cfg.Host
	srvCfg.Port = cfg.Port
	srv := server.NewServer(handler, srvCfg, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.WithField("signal", sig.String()).Info("Signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func printHelp(out io.Writer) {
	helpText := `ReviewLens - review-grounded Q&A service

Usage:
  reviewlens [options]

Options:
  --version         Show version information
  --help            Show this help message
  --config <path>   Load settings from a YAML file (env vars still win)

With no options the server starts on the configured host/port.`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}
