package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/taekwondodev/go-account-service/internal/api"
	"github.com/taekwondodev/go-account-service/internal/api/controller"
	"github.com/taekwondodev/go-account-service/internal/auth/credentials"
	authgrpc "github.com/taekwondodev/go-account-service/internal/auth/grpc"
	"github.com/taekwondodev/go-account-service/internal/auth/repository"
	"github.com/taekwondodev/go-account-service/internal/auth/service"
	"github.com/taekwondodev/go-account-service/internal/config"
	"github.com/taekwondodev/go-account-service/internal/interceptors"
	"github.com/taekwondodev/go-account-service/internal/logging"
	"github.com/taekwondodev/go-account-service/internal/migrations"
	"github.com/taekwondodev/go-account-service/internal/telemetry"
)

const serviceName = "account-service"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logging.New(os.Stderr, "error").Error(ctx, "server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logging.New(os.Stdout, cfg.LogLevel).With("service", serviceName)
	gin.SetMode(cfg.GinMode)

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTelEndpoint, serviceName)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.WithoutCancel(ctx))

	db, err := config.OpenDatabase(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := migrations.Up(ctx, db, config.MigrationDialect(cfg.Database.Driver))
	if err != nil {
		return err
	}
	log.Info(ctx, "migrations applied", "count", applied)

	hasher, err := config.NewHasher(cfg.Password)
	if err != nil {
		return err
	}
	issuer, verifier, err := config.NewTokens(cfg.JWT)
	if err != nil {
		return err
	}
	limiter, redisClient, err := config.NewLimiter(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	userRepo := repository.NewUserRepository(db, repository.DialectFor(cfg.Database.Driver))
	store, err := credentials.NewCredentialStore(userRepo, hasher,
		credentials.WithLogger(log),
		credentials.WithMinPasswordLength(cfg.Password.MinLength),
		credentials.WithActiveOnCreate(cfg.Password.RegisterActive),
	)
	if err != nil {
		return err
	}
	authService := service.NewAuthService(store, issuer, verifier, limiter, log)

	router := api.SetupRoutes(controller.NewAuthController(authService), authService, log)
	httpServer := api.NewServer(cfg.HTTPAddr, router, cfg.ShutdownTimeout, log)

	grpcServer, err := config.NewGRPCServer(cfg.GRPC, cfg.ShutdownTimeout, log,
		interceptors.AuthInterceptor(authService, authgrpc.MeMethod))
	if err != nil {
		return err
	}
	authgrpc.RegisterAccountServiceServer(grpcServer.Server, authgrpc.NewServer(authService))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, 2)
	go func() { errs <- httpServer.Run(ctx) }()
	go func() { errs <- grpcServer.ListenAndServe(ctx) }()

	// Either server stopping takes the other one down with it.
	first := <-errs
	cancel()
	return errors.Join(first, <-errs)
}
