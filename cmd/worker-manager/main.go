// cmd/worker-manager/main.go
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

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"merchant-workers/internal/common/camunda"
	"merchant-workers/internal/common/config"
	"merchant-workers/internal/common/database"
	"merchant-workers/internal/common/logger"
	"merchant-workers/internal/common/observability"

	// Draft Workers (4)
	ad "merchant-workers/internal/workers/draft/attach-draft-document"
	cd "merchant-workers/internal/workers/draft/create-draft"
	mc "merchant-workers/internal/workers/draft/mark-draft-completed"
	sp "merchant-workers/internal/workers/draft/save-draft-progress"

	// Access Workers (2)
	il "merchant-workers/internal/workers/access/issue-access-link"
	vo "merchant-workers/internal/workers/access/validate-access-otp"

	// Action Workers (1)
	rt "merchant-workers/internal/workers/actions/record-terminal-action"

	// Routing Workers (2)
	sb "merchant-workers/internal/workers/routing/score-bank-candidates"
	st "merchant-workers/internal/workers/routing/submit-to-banks"

	// Search Workers (1)
	sa "merchant-workers/internal/workers/search/search-applications"
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
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	tracing, err := observability.NewTracing("worker-manager", cfg.Tracing.JaegerEndpoint)
	if err != nil {
		zapLog.Fatal("tracing setup failed", zap.Error(err))
	}
	defer tracing.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         time.Duration(cfg.Camunda.RequestTimeout) * time.Millisecond,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.GetClient()
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

	// --- START: Register ALL 10 Workers ---

	// --- 1. Draft Workers (4) ---
	if cfg.Workers[cd.TaskType].Enabled {
		handler := cd.NewHandler(
			cd.LoadConfig(cfg.Access.BaseURL, cfg.Access.OTPTTLDays),
			pg.DB, log,
		)
		startWorker(zeebeClient, cd.TaskType, cfg.Workers[cd.TaskType], handler.Handle, tracing, zapLog)
	}

	if cfg.Workers[sp.TaskType].Enabled {
		handler := sp.NewHandler(sp.LoadConfig(), pg.DB, log)
		startWorker(zeebeClient, sp.TaskType, cfg.Workers[sp.TaskType], handler.Handle, tracing, zapLog)
	}

	if cfg.Workers[mc.TaskType].Enabled {
		handler := mc.NewHandler(
			mc.LoadConfig(cfg.Database.Elasticsearch.Index),
			pg.DB, esClient.Client, log,
		)
		startWorker(zeebeClient, mc.TaskType, cfg.Workers[mc.TaskType], handler.Handle, tracing, zapLog)
	}

	if cfg.Workers[ad.TaskType].Enabled {
		handler := ad.NewHandler(ad.LoadConfig(), pg.DB, log)
		startWorker(zeebeClient, ad.TaskType, cfg.Workers[ad.TaskType], handler.Handle, tracing, zapLog)
	}

	// --- 2. Access Workers (2) ---
	if cfg.Workers[il.TaskType].Enabled {
		handler, err := il.NewHandler(
			il.LoadConfig(
				cfg.Access.BaseURL,
				cfg.Access.OTPTTLDays,
				cfg.Email.Region,
				cfg.Email.FromAddress,
				cfg.Email.ReplyTo,
			),
			pg.DB, log,
		)
		if err != nil {
			zapLog.Fatal("failed to create issue-access-link handler", zap.Error(err))
		}
		startWorker(zeebeClient, il.TaskType, cfg.Workers[il.TaskType], handler.Handle, tracing, zapLog)
	}

	if cfg.Workers[vo.TaskType].Enabled {
		handler := vo.NewHandler(
			vo.LoadConfig(cfg.Access.MaxOTPAttempts, cfg.Access.SessionTTLMin),
			pg.DB, redis.Client, log,
		)
		startWorker(zeebeClient, vo.TaskType, cfg.Workers[vo.TaskType], handler.Handle, tracing, zapLog)
	}

	// --- 3. Action Workers (1) ---
	if cfg.Workers[rt.TaskType].Enabled {
		handler, err := rt.NewHandler(
			rt.LoadConfig(cfg.Notifications.Region, cfg.Notifications.SNSTopicARN),
			pg.DB, log,
		)
		if err != nil {
			zapLog.Fatal("failed to create record-terminal-action handler", zap.Error(err))
		}
		startWorker(zeebeClient, rt.TaskType, cfg.Workers[rt.TaskType], handler.Handle, tracing, zapLog)
	}

	// --- 4. Routing Workers (2) ---
	if cfg.Workers[sb.TaskType].Enabled {
		handler := sb.NewHandler(sb.LoadConfig(), pg.DB, redis.Client, log)
		startWorker(zeebeClient, sb.TaskType, cfg.Workers[sb.TaskType], handler.Handle, tracing, zapLog)
	}

	if cfg.Workers[st.TaskType].Enabled {
		handler := st.NewHandler(
			st.LoadConfig(cfg.Banks.SubmitTimeoutMS, cfg.Banks.CallbackURL, cfg.Banks.APIKey),
			pg.DB, log,
		)
		startWorker(zeebeClient, st.TaskType, cfg.Workers[st.TaskType], handler.Handle, tracing, zapLog)
	}

	// --- 5. Search Workers (1) ---
	if cfg.Workers[sa.TaskType].Enabled {
		handler := sa.NewHandler(
			sa.LoadConfig(cfg.Database.Elasticsearch.Index),
			esClient.Client, log,
		)
		startWorker(zeebeClient, sa.TaskType, cfg.Workers[sa.TaskType], handler.Handle, tracing, zapLog)
	}

	zapLog.Info("All 10 workers registered successfully")

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
			if err := camundaClient.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"error":  err.Error(),
				})
				return
			}
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

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), tracing *observability.Tracing, log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	client.NewJobWorker().
		JobType(taskType).
		Handler(tracing.TraceJobHandler(taskType, handlerFunc)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}
