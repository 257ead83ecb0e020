package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/capstone-api/internal/config"
	"github.com/capstone-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/capstone-api/internal/infrastructure/jwt"
	"github.com/capstone-api/internal/infrastructure/realtime"
	"github.com/capstone-api/internal/infrastructure/redis"
	"github.com/capstone-api/internal/infrastructure/sns"
	"github.com/capstone-api/internal/pkg/logger"
	"github.com/capstone-api/internal/scheduler"
	transporthttp "github.com/capstone-api/internal/transport/http"
	"github.com/capstone-api/internal/transport/http/handler"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		zl.Fatal("dynamodb client", zap.Error(err))
	}
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables, zl.Named("bootstrap"))

	deps := &transporthttp.Deps{
		NotificationRepo: dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications),
		TaskRepo:         dynamo.NewTaskRepo(dynamoClient, cfg.DynamoTables),
		ProjectRepo:      dynamo.NewProjectRepo(dynamoClient, cfg.DynamoTables.Projects),
		TeamRepo:         dynamo.NewTeamRepo(dynamoClient, cfg.DynamoTables.Teams),
		Logger:           zl,
		ReadinessChecks: map[string]handler.Check{
			"dynamodb": func(ctx context.Context) error {
				_, err := dynamoClient.ListTables(ctx, &dynamodb.ListTablesInput{Limit: aws.Int32(1)})
				return err
			},
		},
	}

	// JWT provider (optional: protected routes answer 503 without it).
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		deps.JWTProvider = p
	} else {
		zl.Warn("JWT provider not available", zap.Error(err))
	}

	// SNS relay (optional).
	if cfg.SNSTopicARN != "" {
		if client, err := sns.NewClient(ctx, cfg); err == nil {
			deps.Relay = sns.NewRelay(client, cfg.SNSTopicARN)
		} else {
			zl.Warn("SNS relay not available", zap.Error(err))
		}
	}

	hub := realtime.NewHub(cfg.AllowedOrigins, zl.Named("realtime"))
	deps.Hub = hub

	svcs := transporthttp.NewServices(cfg, deps)

	// Redis (optional: only the scheduler lock uses it).
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		if c, err := redis.NewClient(cfg, zl.Named("redis")); err == nil {
			rdb = c
			defer func() { _ = rdb.Close() }()
			deps.ReadinessChecks["redis"] = rdb.Ping
		} else {
			zl.Warn("redis not available, deadline scheduler runs unlocked", zap.Error(err))
		}
	}

	var sched *scheduler.Scheduler
	if cfg.Deadline.SchedulerEnabled {
		if rdb != nil {
			sched = scheduler.NewScheduler(svcs.Deadline, rdb, cfg.Deadline, zl.Named("scheduler"))
		} else {
			sched = scheduler.NewScheduler(svcs.Deadline, nil, cfg.Deadline, zl.Named("scheduler"))
		}
		sched.Start()
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(cfg, deps, svcs),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zl.Info("server starting", zap.String("port", cfg.AppPort), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	zl.Info("shutting down server")
	if sched != nil {
		sched.Stop()
	}
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("forced shutdown", zap.Error(err))
		os.Exit(1)
	}
	zl.Info("server stopped")
}
