package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	grpcadapter "github.com/simaogato/herdledger-backend/internal/adapter/grpc"
	httpadapter "github.com/simaogato/herdledger-backend/internal/adapter/http"
	"github.com/simaogato/herdledger-backend/internal/adapter/repository/mongodb"
	"github.com/simaogato/herdledger-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/herdledger-backend/internal/config"
	"github.com/simaogato/herdledger-backend/internal/scheduler"
	"github.com/simaogato/herdledger-backend/internal/usecase/exit"
	"github.com/simaogato/herdledger-backend/internal/usecase/movement"
	"github.com/simaogato/herdledger-backend/internal/usecase/reconciliation"
	"github.com/simaogato/herdledger-backend/internal/usecase/sale"
	"github.com/simaogato/herdledger-backend/internal/usecase/seeder"
	"github.com/simaogato/herdledger-backend/internal/usecase/snapshot"
	"github.com/simaogato/herdledger-backend/pkg/clients/webhook"
	"github.com/simaogato/herdledger-backend/pkg/logger"
)

const serviceName = "herdledger"

func main() {
	envFile := flag.String("env", "", "optional path to a .env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		boot := logger.Must(logger.New(logger.Options{Service: serviceName}))
		boot.Fatal("failed to load configuration", zap.Error(err))
	}

	log := logger.Must(logger.New(cfg.LoggerOptions()))
	defer log.Sync()

	// 1. Setup Database
	db, err := connectWithRetry(cfg.Database.ConnStr, 5, 2*time.Second, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		version, err := postgres.Migrate(db)
		if err != nil {
			log.Fatal("failed to apply migrations", zap.Error(err))
		}
		log.Info("database schema ready", zap.Uint("version", version))
	}

	// 2. Initialize Repositories (Postgres)
	movementRepo := postgres.NewMovementRepository(db)
	allocationRepo := postgres.NewAllocationRepository(db)
	saleRepo := postgres.NewSaleRepository(db)
	exitStore := postgres.NewExitStore(db)
	causeRepo := postgres.NewExitCauseRepository(db)

	ctx := context.Background()
	if err := seeder.NewCauseSeeder(causeRepo).Seed(ctx); err != nil {
		log.Fatal("failed to seed exit causes", zap.Error(err))
	}
	log.Info("exit cause catalogue seeded")

	// 3. Initialize Services (Use Cases)
	var notifier sale.Notifier
	if cfg.Webhook.URL != "" {
		notifier = webhook.NewSaleNotifier(cfg.Webhook.URL, cfg.Webhook.Timeout, cfg.Ledger.CurrencyPlaces)
		log.Info("settlement webhook enabled", zap.String("url", cfg.Webhook.URL))
	}

	engine := reconciliation.NewEngine(cfg.Ledger.CurrencyPlaces)
	movementService := movement.NewMovementService(movementRepo, allocationRepo, logger.Named(log, "movement"))
	saleService := sale.NewSaleService(saleRepo, allocationRepo, notifier, cfg.Ledger.CurrencyPlaces, logger.Named(log, "sale"))
	exitService := exit.NewExitService(movementRepo, allocationRepo, exitStore, saleService, logger.Named(log, "exit"))
	ledgerService := reconciliation.NewLedgerService(movementRepo, allocationRepo, saleRepo, engine, logger.Named(log, "ledger"))

	// 4. Snapshot archive (optional)
	var sched *scheduler.Scheduler
	if cfg.MongoDB.URI != "" {
		mongoCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		snapshotRepo, err := mongodb.NewSnapshotRepository(mongoCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		cancel()
		if err != nil {
			log.Fatal("failed to connect to snapshot archive", zap.Error(err))
		}
		defer snapshotRepo.Close(context.Background())

		generator := snapshot.NewGenerator(ledgerService, snapshotRepo, logger.Named(log, "snapshot"))
		sched = scheduler.NewScheduler(cfg.Snapshot.CronSchedule, generator, logger.Named(log, "scheduler"))
		if err := sched.Start(); err != nil {
			log.Fatal("failed to start scheduler", zap.Error(err))
		}
	}

	// 5. Start gRPC Server
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			grpcadapter.LoggingInterceptor(logger.Named(log, "grpc")),
			grpcadapter.AuthInterceptor(cfg.Server.APIToken),
		),
	)
	grpcadapter.RegisterLedgerServiceServer(grpcServer, grpcadapter.NewServer(
		movementService, exitService, saleService, ledgerService, causeRepo, logger.Named(log, "grpc"),
	))
	if err := grpcadapter.RegisterFileDescriptor(); err != nil {
		log.Warn("gRPC reflection disabled", zap.Error(err))
	} else {
		reflection.Register(grpcServer)
	}

	lis, err := net.Listen("tcp", cfg.Server.GRPCPort)
	if err != nil {
		log.Fatal("failed to listen", zap.String("addr", cfg.Server.GRPCPort), zap.Error(err))
	}

	go func() {
		log.Info("gRPC server listening", zap.String("addr", cfg.Server.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal("failed to serve gRPC server", zap.Error(err))
		}
	}()

	// 6. Start HTTP Server
	handler := httpadapter.NewHandler(movementService, exitService, saleService, ledgerService, causeRepo, logger.Named(log, "http"))
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           httpadapter.NewRouter(handler, cfg.Server.APIToken, logger.Named(log, "http")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to serve HTTP server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	waitForShutdown(grpcServer, httpServer, sched, log)
}

// connectWithRetry retries the initial connection while Postgres starts up
func connectWithRetry(connStr string, attempts int, wait time.Duration, log *zap.Logger) (*postgres.DB, error) {
	var lastErr error
	for i := 1; i <= attempts; i++ {
		db, err := postgres.NewDB(connStr)
		if err == nil {
			return db, nil
		}
		lastErr = err
		log.Warn("database not ready", zap.Int("attempt", i), zap.Error(err))
		time.Sleep(wait)
	}
	return nil, lastErr
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the servers
func waitForShutdown(grpcServer *grpclib.Server, httpServer *http.Server, sched *scheduler.Scheduler, log *zap.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Info("shutting down gracefully", zap.String("signal", sig.String()))

	if sched != nil {
		sched.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}

	grpcServer.GracefulStop()
	log.Info("servers stopped")
}
