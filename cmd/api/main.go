// Entry point for the dashboard REST API
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"attendance.service/internal/adapters/recordsapi"
	"attendance.service/internal/adapters/sqslive"
	"attendance.service/internal/api"
	"attendance.service/internal/config"
	"attendance.service/internal/core"
	"attendance.service/internal/ports"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"attendance.service/pkg/aws"
	"attendance.service/pkg/database"
	"attendance.service/pkg/logger"
	"attendance.service/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}

	// Configure structured logging
	logger.Setup(cfg.IsLocalDev)

	// Configure OpenTelemetry Tracing
	shutdownTracer, err := telemetry.InitTracer("attendance-api", cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init tracer")
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	// Batch record source: the service either owns the attendance store
	// or proxies the upstream records API.
	var source ports.BatchRecordSource
	if cfg.RecordsSource == "api" {
		source = recordsapi.NewClient(cfg.RecordsAPIURL)
		log.Info().Str("url", cfg.RecordsAPIURL).Msg("Using upstream records API as batch source")
	} else {
		db, err := database.NewInstrumentedConnection(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Error opening database")
		}
		defer db.Close()
		log.Info().Msg("Successfully connected to the database.")
		source = repository.NewAttendanceRepository(db)
	}

	// AWS SDK Config
	awsCfg, err := aws.NewAWSConfig(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load SDK config")
	}

	// Initialize dependencies
	sqsClient := sqs.NewFromConfig(awsCfg)
	roster := loadRoster(cfg.RosterFile)
	queries := core.NewQueryController(source, time.Local)
	stats := core.NewStatsEngine(roster, time.Local)
	producer := messaging.NewSQSProducer(sqsClient, cfg.ExportSQSQueueURL)
	liveSource := sqslive.NewSource(sqsClient, cfg.LiveSQSQueueURL)
	coreService := core.NewAttendanceService(queries, stats, roster, producer, time.Local)

	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()
	sessions := core.NewSessionManager(appCtx, queries, stats, liveSource, roster, core.SessionConfig{
		AutoRefreshInterval: time.Duration(cfg.AutoRefreshSeconds) * time.Second,
		NoticeDuration:      time.Duration(cfg.NoticeSeconds) * time.Second,
	})
	defer sessions.Close()

	// Setup router and server
	router := api.NewRouter(coreService, sessions)

	// Middleware to inject logger with trace ID
	loggerMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logger.EnrichContextWithLogger(ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}

	// Wrap the router with OpenTelemetry middleware to create spans for each request
	handler := otelhttp.NewHandler(loggerMiddleware(router), "api")

	serverAddr := ":" + cfg.ServerPort
	srv := &http.Server{
		Addr:    serverAddr,
		Handler: handler,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.ServerPort).Msg("Attendance API starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	// Stop live subscriptions and auto-refresh before draining requests.
	sessions.Close()
	cancelApp()

	// The context is used to inform the server it has 5 seconds to finish
	// the requests it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}

// loadRoster reads the employee roster snapshot from a JSON file mapping
// employee IDs to entries. An absent file means an empty roster; the core
// degrades to the events' own denormalized names.
func loadRoster(path string) ports.StaticRoster {
	roster := ports.StaticRoster{}
	if path == "" {
		return roster
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Could not read roster file, continuing without it")
		return roster
	}
	if err := json.Unmarshal(data, &roster); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Could not parse roster file, continuing without it")
		return ports.StaticRoster{}
	}
	log.Info().Int("employees", len(roster)).Msg("Roster snapshot loaded")
	return roster
}
