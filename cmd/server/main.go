package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"

	"github.com/thraizz/kingdom-server-go/internal/auth"
	"github.com/thraizz/kingdom-server-go/internal/config"
	"github.com/thraizz/kingdom-server-go/internal/game"
	"github.com/thraizz/kingdom-server-go/internal/repository"
	"github.com/thraizz/kingdom-server-go/internal/server"
	"github.com/thraizz/kingdom-server-go/internal/session"
	"github.com/thraizz/kingdom-server-go/internal/table"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting kingdom server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	cat, err := game.DefaultCatalog()
	if err != nil {
		logger.Fatal("failed to load card catalog", zap.Error(err))
	}
	logger.Info("card catalog loaded",
		zap.Int("cards", len(cat.Cards())),
		zap.Int("kingdom_eligible", len(cat.KingdomEligible())),
	)

	// Database is optional; without it results are not stored and only
	// guest logins are possible.
	var db *repository.DB
	if cfg.Database.Enabled() {
		db, err = repository.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			logger.Fatal("failed to migrate database", zap.Error(err))
		}

		stats := db.Stats()
		logger.Info("database connection pool initialized",
			zap.Int32("total_conns", stats.TotalConns()),
			zap.Int32("idle_conns", stats.IdleConns()),
		)
	} else {
		logger.Warn("database not configured; game results will not be stored")
	}

	var authenticator auth.Authenticator = auth.GuestAuthenticator{}
	if cfg.Auth.Mode == config.AuthModePassword {
		authenticator = auth.NewPasswordAuthenticator(repository.NewUserRepository(db.Pool), cfg.Auth.BcryptCost, logger)
	}
	logger.Info("authenticator initialized", zap.String("mode", cfg.Auth.Mode))

	sessionMgr := session.NewManager(cfg.Server.LeasePeriod, cfg.Server.MaxSessions, logger)
	logger.Info("session manager initialized",
		zap.Duration("lease_period", cfg.Server.LeasePeriod),
	)
	go sessionMgr.CleanupExpiredSessions(ctx)

	hub := server.NewHub(logger)
	tableMgr := table.NewManager(cat, hub, table.Config{
		Seats:              cfg.Game.Seats,
		KingdomSize:        cfg.Game.KingdomSize,
		AutoPlayTreasures:  cfg.Game.AutoPlayTreasures,
		VerifyConservation: cfg.Game.VerifyConservation,
		Seed:               cfg.Game.Seed,
	}, logger)
	if db != nil {
		tableMgr.SetResultStore(repository.NewResultRepository(db.Pool))
	}
	if cfg.Replay.Enabled {
		if err := os.MkdirAll(cfg.Replay.Dir, 0o755); err != nil {
			logger.Fatal("failed to create replay directory", zap.Error(err))
		}
		tableMgr.SetReplayRecorder(game.NewReplayRecorder(cfg.Replay.Dir, logger))
		logger.Info("replay recording enabled", zap.String("dir", cfg.Replay.Dir))
	}
	logger.Info("table manager initialized", zap.Int("default_seats", cfg.Game.Seats))

	wsServer := server.NewServer(cfg.Server.WebSocket, hub, tableMgr, sessionMgr, authenticator, logger)

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(server.ChainUnaryInterceptors(
			server.RecoveryInterceptor(logger),
			server.LoggingInterceptor(logger),
		)),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 10 * time.Second,
		}),
		grpc.MaxConcurrentStreams(uint32(cfg.Server.GRPC.MaxConcurrentStreams)),
	)
	healthServer := server.RegisterHealth(grpcServer)

	lis, err := net.Listen("tcp", cfg.Server.GRPC.Address)
	if err != nil {
		logger.Fatal("failed to listen", zap.Error(err))
	}

	// Start gRPC server
	go func() {
		logger.Info("starting gRPC server", zap.String("address", cfg.Server.GRPC.Address))
		if serveErr := grpcServer.Serve(lis); serveErr != nil {
			logger.Error("gRPC server error", zap.Error(serveErr))
		}
	}()

	// Start WebSocket server
	wsErr := make(chan error, 1)
	go func() {
		wsErr <- wsServer.ListenAndServe()
	}()

	logger.Info("kingdom server initialized",
		zap.String("version", version),
		zap.String("grpc_address", cfg.Server.GRPC.Address),
		zap.String("websocket_address", cfg.Server.WebSocket.Address),
		zap.Int("max_sessions", cfg.Server.MaxSessions),
	)

	// Wait for termination signal or a listener failure
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-wsErr:
		if err != nil {
			logger.Error("WebSocket server error", zap.Error(err))
		}
	}

	logger.Info("shutting down gracefully...")
	healthServer.Shutdown()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("websocket shutdown incomplete", zap.Error(err))
	}

	tableMgr.Close()
	sessionMgr.CloseAll()
	grpcServer.GracefulStop()

	logger.Info("kingdom server stopped")
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
