// cmd/submission-worker/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"applyflow/internal/archive"
	"applyflow/internal/ats"
	"applyflow/internal/browser"
	"applyflow/internal/common/aws"
	"applyflow/internal/common/camunda"
	"applyflow/internal/common/config"
	"applyflow/internal/common/database"
	"applyflow/internal/common/logger"
	"applyflow/internal/common/observability"
	"applyflow/internal/gates"
	"applyflow/internal/notify"
	"applyflow/internal/orchestrator"
	"applyflow/internal/store"

	sa "applyflow/internal/workers/submission/submit-application"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting submission worker...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("submission-worker")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebeClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = camunda.NewClient(cfg.Camunda.BrokerAddress)
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Evidence Store (S3) ---
	evidence, err := aws.NewS3EvidenceStore(ctx, cfg.Evidence.Region, cfg.Evidence.Bucket, cfg.Evidence.KeyPrefix)
	if err != nil {
		zapLog.Fatal("evidence store init failed", zap.Error(err))
	}
	zapLog.Info("Evidence store initialized", zap.String("bucket", cfg.Evidence.Bucket))

	// --- Init Notification Clients ---
	var sesClient *aws.SESClient
	var snsClient *aws.SNSClient
	if cfg.Notifications.Enabled {
		sesClient, err = aws.NewSESClient(ctx, cfg.Notifications.Region)
		if err != nil {
			zapLog.Fatal("SES client init failed", zap.Error(err))
		}
		snsClient, err = aws.NewSNSClient(ctx, cfg.Notifications.Region)
		if err != nil {
			zapLog.Fatal("SNS client init failed", zap.Error(err))
		}
		zapLog.Info("Notification clients initialized")
	}

	// --- Init Browser Manager ---
	browserManager := browser.NewManager(ctx, cfg.Browser)
	defer browserManager.Shutdown()
	zapLog.Info("Browser manager initialized", zap.Bool("headless", cfg.Browser.Headless))

	// --- Assemble pipeline ---
	registry := ats.NewRegistry(
		ats.NewGreenhouseAdapter(),
		ats.NewLeverAdapter(),
		ats.NewWorkableAdapter(),
	)
	planGate := gates.NewRedisPlanGate(redis.Client, log)
	orch := orchestrator.New(browserManager, evidence, registry, planGate, obs, cfg, log)
	results := store.NewResultStore(pg.DB, log)
	archiver := archive.NewAuditArchiver(esClient.Client, cfg.Database.Elasticsearch.AuditIndex, log)
	notifier := notify.NewManualNeededNotifier(sesClient, snsClient, cfg.Notifications, log)

	var submissionWorker *camunda.CamundaWorker
	if cfg.Workers[sa.TaskType].Enabled {
		handler := sa.NewHandler(
			&sa.Config{
				Timeout: time.Duration(cfg.Workers[sa.TaskType].Timeout) * time.Millisecond,
			},
			orch, registry, results, archiver, notifier, log,
		)
		submissionWorker = camunda.NewWorker(
			zeebeClient.GetClient(),
			sa.TaskType,
			cfg.Workers[sa.TaskType].MaxJobsActive,
			time.Duration(cfg.Workers[sa.TaskType].Timeout)*time.Millisecond,
			handler,
			zapLog,
		)
		submissionWorker.Start()
	}

	zapLog.Info("Submission worker registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	if submissionWorker != nil {
		submissionWorker.Stop(context.Background())
	}
	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Submission worker stopped gracefully")
}
