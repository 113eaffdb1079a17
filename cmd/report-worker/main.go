// Entry point for the export report worker
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"attendance.service/internal/adapters/recordsapi"
	"attendance.service/internal/config"
	"attendance.service/internal/core"
	"attendance.service/internal/ports"
	"attendance.service/internal/ports/repository"
	"attendance.service/internal/worker"
	"attendance.service/internal/worker/report"
	"attendance.service/pkg/aws"
	"attendance.service/pkg/database"
	"attendance.service/pkg/logger"
	"attendance.service/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Could not load configuration: %v", err)
	}

	logger.Setup(cfg.IsLocalDev)

	shutdownTracer, err := telemetry.InitTracer("attendance-report-worker", cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("Failed to init tracer: %v", err)
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	// Batch source mirrors the API's configuration.
	var source ports.BatchRecordSource
	if cfg.RecordsSource == "api" {
		source = recordsapi.NewClient(cfg.RecordsAPIURL)
	} else {
		db, err := database.NewConnection(cfg)
		if err != nil {
			log.Fatalf("Error opening database: %v", err)
		}
		defer db.Close()
		log.Println("Successfully connected to the database.")
		source = repository.NewAttendanceRepository(db)
	}

	// AWS SDK Config
	awsCfg, err := aws.NewAWSConfig(context.Background(), cfg)
	if err != nil {
		log.Fatalf("unable to load SDK config: %v", err)
	}

	// Initialize Dependencies
	sqsClient := sqs.NewFromConfig(awsCfg)
	sesClient := ses.NewFromConfig(awsCfg)

	queries := core.NewQueryController(source, time.Local)
	stats := core.NewStatsEngine(ports.StaticRoster{}, time.Local)
	mailer := core.NewSESReportMailer(sesClient, cfg.ReportSender)
	processor := report.NewProcessor(queries, stats, mailer)

	// Start Worker
	ctx, cancel := context.WithCancel(context.Background())
	app := worker.NewWorker(sqsClient, cfg.ExportSQSQueueURL, processor)

	go func() {
		app.Start(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down worker...")

	// Cancel the context to signal the worker to stop polling.
	cancel()

	log.Println("Worker exited gracefully")
}
