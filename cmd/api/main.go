// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

// Command api is the entry point for the Skolar HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ndthang/skolar/internal/api"
	"github.com/ndthang/skolar/internal/audit"
	"github.com/ndthang/skolar/internal/classroom"
	"github.com/ndthang/skolar/internal/platform/config"
	"github.com/ndthang/skolar/internal/platform/constants"
	"github.com/ndthang/skolar/internal/platform/migration"
	pgstore "github.com/ndthang/skolar/internal/platform/postgres"
	redisstore "github.com/ndthang/skolar/internal/platform/redis"
	"github.com/ndthang/skolar/internal/platform/sec"
	"github.com/ndthang/skolar/internal/school"
	"github.com/ndthang/skolar/internal/student"
	"github.com/ndthang/skolar/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "skolar"))
	slog.SetDefault(log)

	log.Info("[Skolar] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "skolar"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// Application-lifetime context. Cancellation stops the rate limiter's
	// background cleanup goroutine on shutdown.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Token Service ──────────────────────────────────────────────────
	jwtSvc, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	auditStore := audit.NewPostgresStore(pool)
	recorder := audit.NewRecorder(auditStore, log)

	userRepository := auth.NewUserRepository(pool)
	tokenRepository := auth.NewRefreshTokenRepository(pool)
	schoolRepository := school.NewPostgresRepository(pool)
	classroomRepository := classroom.NewPostgresRepository(pool)
	studentRepository := student.NewPostgresRepository(pool)

	// The school service counts classrooms, students, and admins before a
	// delete; the classroom and student services resolve scope through it.
	schoolService := school.NewService(schoolRepository, classroomRepository, studentRepository, userRepository, recorder, log)
	classroomService := classroom.NewService(classroomRepository, schoolService, studentRepository, log)
	studentService := student.NewService(studentRepository, schoolService, classroomService, recorder, log)

	throttleConfig := auth.ThrottleConfig{
		Window:       cfg.LoginAttemptWindow,
		MaxFailures:  cfg.LoginAttemptMax,
		LockDuration: cfg.LoginLockDuration,
	}
	var throttle auth.LoginThrottle
	if cfg.LoginThrottleBackend == "redis" {
		throttle = auth.NewRedisThrottle(rdb, throttleConfig)
		log.Info("login_throttle_configured", slog.String("backend", "redis"))
	} else {
		throttle = auth.NewMemoryThrottle(throttleConfig)
		log.Info("login_throttle_configured", slog.String("backend", "memory"))
	}

	authService := auth.NewService(userRepository, tokenRepository, schoolService, throttle, jwtSvc, recorder)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      auth.NewHandler(authService),
		School:    school.NewHandler(schoolService),
		Classroom: classroom.NewHandler(classroomService),
		Student:   student.NewHandler(studentService),
	}

	server := api.NewServer(appCtx, cfg, log, jwtSvc, handlers)

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
