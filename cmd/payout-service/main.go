package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/LavaJover/shvark-payout-service/internal/app/background"
	"github.com/LavaJover/shvark-payout-service/internal/app/setup"
	"github.com/LavaJover/shvark-payout-service/internal/config"
	"github.com/LavaJover/shvark-payout-service/internal/delivery/http/handlers"
	"github.com/LavaJover/shvark-payout-service/internal/infrastructure/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	// Reading config
	cfg := config.MustLoad()

	appLogger, err := logger.New(logger.Options{
		Level:  cfg.LogConfig.LogLevel,
		Format: cfg.LogConfig.LogFormat,
		Output: cfg.LogConfig.LogOutput,
	})
	if err != nil {
		log.Printf("failed to open log output, using stdout: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := setup.InitializeDependencies(ctx, cfg, appLogger)
	if err != nil {
		log.Fatalf("failed to init dependencies: %v", err)
	}
	defer deps.Close()

	ucs, err := setup.InitializeUseCases(deps)
	if err != nil {
		log.Fatalf("failed to init usecases: %v", err)
	}

	// gRPC: только health-check для балансировщика
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%s", cfg.GRPCServer.Host, cfg.GRPCServer.Port))
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}
	go func() {
		appLogger.Info("gRPC server started", "addr", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Error("gRPC server stopped", "error", err)
		}
	}()

	// HTTP API
	payoutHandler := handlers.NewPayoutHandler(ucs.PayoutUsecase, deps.Repositories.ConfigStore, ucs.ExchangeRateService, appLogger)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.HTTPServer.Host, cfg.HTTPServer.Port),
		Handler: handlers.NewRouter(payoutHandler, deps.Registry),
	}
	go func() {
		appLogger.Info("HTTP server started", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server failed", "error", err)
			stop()
		}
	}()

	// Фоновые воркеры: распределение, переуведомление, истечение, споры
	tasks := background.NewBackgroundTasks(ucs.Distributor, ucs.Monitor, ucs.Resolver, background.Intervals{
		Distribution: cfg.Distribution.Interval,
		Monitor:      cfg.Distribution.MonitorInterval,
		Expire:       cfg.Resolver.ExpireInterval,
		Disputes:     cfg.Resolver.DisputeInterval,
	}, appLogger)
	tasks.StartAll(ctx)

	<-ctx.Done()
	appLogger.Info("shutting down")

	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown failed", "error", err)
	}
	grpcServer.GracefulStop()
	tasks.Wait()
}
