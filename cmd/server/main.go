// Command server runs the attendance verification service: the HTTP API,
// the verification engine, the anomaly detector, and the event stream worker.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rollcall/internal/anomaly"
	anomalyhandler "rollcall/internal/anomaly/handler"
	anomalymetrics "rollcall/internal/anomaly/metrics"
	anomalypg "rollcall/internal/anomaly/store/postgres"
	"rollcall/internal/anomaly/stream"
	"rollcall/internal/anomaly/stream/kafka"
	"rollcall/internal/anomaly/throttle"
	"rollcall/internal/attendance"
	attendancehandler "rollcall/internal/attendance/handler"
	attendancemetrics "rollcall/internal/attendance/metrics"
	attendancepg "rollcall/internal/attendance/store/postgres"
	"rollcall/internal/comparator"
	"rollcall/internal/comparator/remote"
	identitypg "rollcall/internal/identity/store/postgres"
	"rollcall/internal/platform/config"
	"rollcall/internal/platform/httpserver"
	"rollcall/internal/platform/logger"
	"rollcall/internal/platform/metrics"
	"rollcall/internal/platform/postgres"
	platformredis "rollcall/internal/platform/redis"
	sessionpg "rollcall/internal/session/store/postgres"
	httptransport "rollcall/internal/transport/http"
	"rollcall/internal/verify"
	verifymetrics "rollcall/internal/verify/metrics"
)

func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("service exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	identities := identitypg.NewPostgres(db)
	sessions := sessionpg.NewPostgres(db)
	anomalyStore := anomalypg.NewPostgres(db)
	attendanceStore := attendancepg.NewPostgres(db)

	// Anomaly event stream: durable insert first, Kafka delivery best-effort
	// via the background worker.
	anomalyMetrics := anomalymetrics.New()
	anomalyOpts := []anomaly.Option{
		anomaly.WithLogger(log),
		anomaly.WithMetrics(anomalyMetrics),
	}
	var streamDone chan struct{}
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := kafka.NewSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.AnomalyTopic)
		if err != nil {
			return fmt.Errorf("connect anomaly stream: %w", err)
		}
		defer sink.Close()

		publisher := stream.NewPublisher(256, stream.WithLogger(log))
		streamDone = make(chan struct{})
		go func() {
			defer close(streamDone)
			publisher.Run(ctx, sink)
		}()
		anomalyOpts = append(anomalyOpts, anomaly.WithPublisher(publisher))
		log.Info("anomaly stream enabled", "topic", cfg.Kafka.AnomalyTopic)
	}

	anomalyService, err := anomaly.NewService(anomalyStore, anomalyOpts...)
	if err != nil {
		return err
	}

	comparators := buildComparators(cfg.Verify, log)
	engine, err := verify.NewEngine(comparators, cfg.Verify.MinFaceConfidence,
		verify.WithLogger(log),
		verify.WithMetrics(verifymetrics.New()),
	)
	if err != nil {
		return err
	}

	detector, err := anomaly.NewDetector(identities, comparators.Face, anomalyStore,
		anomaly.WithDetectorLogger(log),
		anomaly.WithDetectorMetrics(anomalyMetrics),
		anomaly.WithScanConcurrency(cfg.Verify.ScanConcurrency),
	)
	if err != nil {
		return err
	}

	var counter throttle.Counter = throttle.NewStoreCounter(anomalyStore)
	if cfg.Throttle.Backend == config.ThrottleBackendRedis {
		counter = throttle.NewRedisCounter(redisClient.Client, cfg.Throttle.Window)
	}
	limiter, err := throttle.New(counter, cfg.Throttle.Window, cfg.Throttle.MaxFailures,
		throttle.WithLogger(log))
	if err != nil {
		return err
	}

	ledger, err := attendance.NewService(
		attendanceStore, identities, sessions, engine, limiter, anomalyService,
		attendance.WithLogger(log),
		attendance.WithMetrics(attendancemetrics.New()),
		attendance.WithSideChannel(detector),
	)
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.Config{
		Handlers: []httptransport.Registrar{
			attendancehandler.New(ledger, log),
			anomalyhandler.New(anomalyService, log),
		},
		Metrics: metrics.New(),
		DB:      db,
	})

	srv := httpserver.New(cfg.Addr, router)
	serverErr := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Addr, "comparator_mode", cfg.Verify.ComparatorMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	if streamDone != nil {
		<-streamDone
	}
	return nil
}

// buildComparators selects the comparator family for the deployment. The
// remote service only covers face and document; fingerprint matching is a
// local bcrypt comparison in every mode.
func buildComparators(cfg config.VerifyConfig, log *slog.Logger) comparator.Set {
	switch cfg.ComparatorMode {
	case config.ComparatorRemote:
		client := remote.NewClient(cfg.ComparatorURL, remote.WithLogger(log))
		return comparator.Set{
			Face:        client,
			Document:    client,
			Fingerprint: comparator.NewBcryptFingerprint(),
		}
	case config.ComparatorSimulated:
		return comparator.Set{
			Face:        comparator.NewSimulatedFace(),
			Document:    comparator.NewSimulatedDocument(),
			Fingerprint: comparator.NewSimulatedFingerprint(),
		}
	default:
		return comparator.Set{
			Face:        comparator.NewEmbeddingFace(cfg.FaceTolerance),
			Document:    comparator.NewTextDocument(),
			Fingerprint: comparator.NewBcryptFingerprint(),
		}
	}
}
