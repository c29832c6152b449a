package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/medscribe/medscribe/pkg/validator"

	"github.com/medscribe/medscribe/internal/adapter/handler"
	"github.com/medscribe/medscribe/internal/infrastructure/audio"
	"github.com/medscribe/medscribe/internal/infrastructure/directory"
	"github.com/medscribe/medscribe/internal/infrastructure/external/assemblyai"
	"github.com/medscribe/medscribe/internal/infrastructure/external/translate"
	"github.com/medscribe/medscribe/internal/infrastructure/report"
	"github.com/medscribe/medscribe/internal/infrastructure/storage"
	"github.com/medscribe/medscribe/internal/status"
	"github.com/medscribe/medscribe/internal/usecase/pipeline"
	"github.com/medscribe/medscribe/internal/watcher"
	pkgai "github.com/medscribe/medscribe/pkg/ai"
	"github.com/medscribe/medscribe/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := cfg.EnsureDirs(); err != nil {
		log.Fatalf("Failed to prepare artifact directories: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")

	// Status slot
	publisher := status.NewPublisher(cfg.Paths.StatusFile, logger)
	publisher.Reset()

	// Pipeline collaborators
	log.Println("🤖 Initializing pipeline collaborators...")
	transcriber := assemblyai.New(cfg.Assembly.APIKey, logger)
	summarizer := pkgai.NewGroqClient(&cfg.Groq)
	translator := translate.New(cfg.Translate.BaseURL)
	renderer := report.NewRenderer(cfg.Paths.ReportsDir, cfg.Paths.FontsDir, logger)

	// Doctor directory is optional; without a DSN every job falls back to
	// the configured default doctor.
	var doctorDir pipeline.DoctorDirectory
	if cfg.Directory.DSN != "" {
		log.Println("📦 Connecting to doctor directory...")
		dir, err := directory.New(cfg.Directory.DSN)
		if err != nil {
			log.Fatalf("Failed to connect to doctor directory: %v", err)
		}
		doctorDir = dir
	} else {
		log.Println("⚠️  No doctor directory configured; using default doctor for all jobs")
	}

	var archiver pipeline.Archiver
	if cfg.Storage.Enabled {
		log.Println("📦 Connecting to report archive...")
		archive, err := storage.NewArchive(&cfg.Storage)
		if err != nil {
			log.Fatalf("Failed to connect to report archive: %v", err)
		}
		archiver = archive
	}

	// Orchestrator
	log.Println("⚙️  Initializing pipeline orchestrator...")
	orchestrator := pipeline.NewService(
		pipeline.Config{
			TranscriptsDir:       cfg.Paths.TranscriptsDir,
			SummariesDir:         cfg.Paths.SummariesDir,
			TranscribeAttempts:   cfg.Pipeline.TranscribeAttempts,
			TranscribeRetryDelay: cfg.Pipeline.TranscribeRetryDelay,
			DefaultDoctor:        cfg.DefaultDoctor(),
		},
		transcriber,
		summarizer,
		translator,
		renderer,
		doctorDir,
		archiver,
		publisher,
		logger,
	)

	// Ingestion gateways
	preprocessor := audio.New(cfg.Paths.FFmpegBinary, logger)
	ingestor := handler.NewIngestor(cfg.Paths.UploadDir, cfg.Paths.ProcessedDir, preprocessor, orchestrator, logger)

	uploadHandler := handler.NewUpload(ingestor, logger)
	robotHandler := handler.NewRobot(&cfg.Robot, ingestor, logger)
	statusHandler := handler.NewStatus(publisher)
	reportHandler := handler.NewReport(cfg.Paths.ReportsDir, logger)

	// Background workers
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	ledger, err := watcher.LoadLedger(cfg.Paths.ProcessedLog)
	if err != nil {
		log.Fatalf("Failed to load dedup ledger: %v", err)
	}
	dropWatcher := watcher.New(
		watcher.Config{
			DropDir:      cfg.Watcher.DropDir,
			UploadDir:    cfg.Paths.UploadDir,
			ProcessedDir: cfg.Paths.ProcessedDir,
			PollInterval: cfg.Watcher.PollInterval,
			ReadyTimeout: cfg.Watcher.ReadyTimeout,
		},
		ledger,
		preprocessor,
		orchestrator,
		logger,
	)
	go dropWatcher.Start(bgCtx)
	go robotHandler.StartSweeper(bgCtx)

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	router := handler.NewRouter(cfg, uploadHandler, robotHandler, statusHandler, reportHandler, logger)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	bgCancel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
