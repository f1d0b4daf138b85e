package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/autoinsurance/storefront/internal/common/config"
	"github.com/autoinsurance/storefront/internal/common/configtypes"
	"github.com/autoinsurance/storefront/internal/common/logger"
	"github.com/autoinsurance/storefront/internal/common/metricsserver"
	"github.com/autoinsurance/storefront/internal/common/redis"
	"github.com/autoinsurance/storefront/internal/content"
	"github.com/autoinsurance/storefront/internal/site/events"
	"github.com/autoinsurance/storefront/internal/site/leads"
	"github.com/autoinsurance/storefront/internal/site/metrics"
	"github.com/autoinsurance/storefront/internal/site/server"
)

func main() {
	configPath := flag.String("c", "configs/storefront.yaml", "path to configuration file")
	testMode := flag.Bool("t", false, "test configuration and exit")
	flag.Parse()

	if *testMode {
		os.Exit(runConfigTest(*configPath))
	}

	initialLogger, err := logger.NewDefaultLogger()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	initialLogger.Info("Starting storefront", zap.String("config_path", *configPath))

	configManager, err := config.NewManager(*configPath, initialLogger.Logger)
	if err != nil {
		initialLogger.Fatal("Failed to load configuration", zap.Error(err))
	}
	cfg := configManager.GetConfig()

	dynamicLogger, err := logger.NewLogger(cfg.Log, logger.WithStartupOverride())
	if err != nil {
		initialLogger.Fatal("Failed to create configured logger", zap.Error(err))
	}
	defer dynamicLogger.Sync()
	siteLogger := dynamicLogger.Logger

	metricsCollector := metrics.NewPrometheusMetrics(cfg.Metrics.Namespace, siteLogger)
	metricsServer, err := metricsserver.StartMetricsServer(cfg.Metrics, metricsCollector, siteLogger)
	if err != nil {
		siteLogger.Fatal("Failed to start metrics server", zap.Error(err))
	}

	// Lead recording and readiness both hang off the optional Redis client.
	// The interface values stay nil (not typed nil) when it is disabled.
	var (
		leadWriter  leads.StreamWriter
		readiness   server.HealthChecker
		redisClient *redis.Client
	)
	if cfg.Leads.Redis.Enabled {
		redisClient, err = redis.NewClient(&cfg.Leads.Redis, siteLogger)
		if err != nil {
			siteLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		leadWriter = redisClient
		readiness = redisClient
	} else {
		siteLogger.Info("Lead recording disabled")
	}

	contentClient := content.NewClient(cfg.ContentAPI, metricsCollector, siteLogger)
	recorder := leads.NewRecorder(leadWriter, cfg.Leads, siteLogger)

	var eventEmitter events.EventEmitter
	if cfg.AccessLog.Enabled {
		fileEmitter, err := events.NewFileEmitter(cfg.AccessLog, siteLogger)
		if err != nil {
			siteLogger.Fatal("Failed to create access log", zap.Error(err))
		}
		eventEmitter = fileEmitter
		siteLogger.Info("Access log enabled", zap.String("path", cfg.AccessLog.Path))
	}

	srv := server.NewServer(configManager, contentClient, recorder, readiness, metricsCollector, eventEmitter, siteLogger)

	listenAddr, err := configtypes.NormalizeListen(cfg.Server.Listen)
	if err != nil {
		siteLogger.Fatal("Invalid server.listen", zap.Error(err))
	}

	serverErrors := make(chan error, 1)
	httpLifecycle := &serverLifecycle{
		server:  newFastHTTPServer(srv.HandleRequest, cfg.Server.Timeout.ToDuration()),
		name:    "HTTP",
		address: listenAddr,
		logger:  siteLogger,
	}
	httpLifecycle.StartWithErrorChan(serverErrors)

	// Wait briefly for the listener to fail fast on a busy port
	time.Sleep(100 * time.Millisecond)
	select {
	case err := <-serverErrors:
		siteLogger.Fatal("Server failed to start", zap.Error(err))
	default:
	}

	siteLogger.Info("Storefront started",
		zap.String("http_addr", cfg.Server.Listen),
		zap.String("content_api", cfg.ContentAPI.BaseURL))

	dynamicLogger.SwitchToConfiguredLevel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		dynamicLogger.EnsureInfoLevelForShutdown()
		siteLogger.Info("Shutting down storefront...")
	case err := <-serverErrors:
		dynamicLogger.EnsureInfoLevelForShutdown()
		siteLogger.Error("Server failed, initiating shutdown", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if metricsServer != nil {
		siteLogger.Info("Shutting down metrics server")
		if err := metricsServer.ShutdownWithContext(shutdownCtx); err != nil {
			siteLogger.Error("Metrics server shutdown error", zap.Error(err))
		}
	}

	_ = httpLifecycle.Shutdown(shutdownCtx)

	if err := srv.Close(); err != nil {
		siteLogger.Error("Failed to close access log", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			siteLogger.Error("Failed to close Redis client", zap.Error(err))
		}
	}

	siteLogger.Info("Storefront stopped")
}

const serverName = "Storefront/1.0"

func newFastHTTPServer(handler fasthttp.RequestHandler, timeout time.Duration) *fasthttp.Server {
	return &fasthttp.Server{
		Handler:                      handler,
		Name:                         serverName,
		ReadTimeout:                  timeout,
		WriteTimeout:                 timeout,
		IdleTimeout:                  timeout,
		DisablePreParseMultipartForm: true,
		NoDefaultServerHeader:        true,
		NoDefaultDate:                true,
	}
}

type serverLifecycle struct {
	server  *fasthttp.Server
	name    string
	address string
	logger  *zap.Logger
}

func (s *serverLifecycle) StartWithErrorChan(errChan chan<- error) {
	go func() {
		if err := s.server.ListenAndServe(s.address); err != nil {
			s.logger.Error("Server error", zap.String("name", s.name), zap.Error(err))
			if errChan != nil {
				errChan <- fmt.Errorf("%s server failed: %w", s.name, err)
			}
		}
	}()
	s.logger.Info("Server started", zap.String("name", s.name), zap.String("address", s.address))
}

func (s *serverLifecycle) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server", zap.String("name", s.name))
	err := s.server.ShutdownWithContext(ctx)
	if err != nil {
		s.logger.Error("Server shutdown error", zap.String("name", s.name), zap.Error(err))
	}
	return err
}

// runConfigTest loads and validates the configuration, printing the result
// in the style of nginx -t.
func runConfigTest(configPath string) int {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation error: %v\n", err)
		return 1
	}

	result := config.Validate(cfg)
	if !result.Valid() {
		fmt.Println("Configuration validation FAILED:")
		for _, e := range result.Errors {
			fmt.Printf("- %s: %s\n", configPath, e)
		}
		return 1
	}

	fmt.Printf("configuration file %s syntax is ok\n", configPath)

	if len(result.Warnings) > 0 {
		fmt.Println()
		fmt.Printf("Configuration warnings (%d):\n", len(result.Warnings))
		for _, w := range result.Warnings {
			fmt.Printf("- %s: %s\n", configPath, w)
		}
		fmt.Println()
	}

	fmt.Println("configuration test is successful")
	return 0
}
