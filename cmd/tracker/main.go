package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	grpc_adapter "github.com/JoeShih716/go-finance-tracker/internal/app/core/adapter/in/grpc"
	http_adapter "github.com/JoeShih716/go-finance-tracker/internal/app/core/adapter/in/http"
	mysql_adapter "github.com/JoeShih716/go-finance-tracker/internal/app/core/adapter/out/mysql"
	"github.com/JoeShih716/go-finance-tracker/internal/app/core/adapter/out/remote"
	"github.com/JoeShih716/go-finance-tracker/internal/app/core/domain"
	"github.com/JoeShih716/go-finance-tracker/internal/app/core/usecase"
	"github.com/JoeShih716/go-finance-tracker/internal/config"
	"github.com/JoeShih716/go-finance-tracker/pkg/mysql"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to config.yaml")
	envPath := flag.String("env", "", "optional .env file")
	flag.Parse()

	// 1. 載入設定
	cfg, err := config.Load(*configPath, *envPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. 資料來源
	source, closeSource, err := newSource(ctx, cfg)
	if err != nil {
		logger.Error("failed to init source", "error", err, "kind", cfg.Source.Kind)
		os.Exit(1)
	}
	defer closeSource()

	// 3. 狀態變更派送
	events, err := newEventPipeline(cfg, logger)
	if err != nil {
		logger.Error("failed to init event pipeline", "error", err, "journal", cfg.Journal.Path)
		os.Exit(1)
	}
	defer events.Close()

	// 4. Controller 與初次同步
	controller := usecase.NewController(source,
		usecase.WithLogger(logger),
		usecase.WithEventBus(events.Bus()),
		usecase.WithUser(domain.User{
			UserName:    cfg.User.UserName,
			MemberSince: cfg.User.MemberSince,
		}),
		usecase.WithRetry(cfg.Source.RetryAttempts, cfg.Source.RetryInterval),
	)
	controller.Initialize(ctx)
	logger.Info("ledger ready",
		"balance", controller.AccountBalance(),
		"credits", len(controller.CreditList()),
		"debits", len(controller.DebitList()),
	)

	// 5. gRPC
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen", "error", err, "addr", cfg.Server.GRPCAddr)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer()
	grpc_adapter.RegisterLedgerServiceServer(grpcServer, grpc_adapter.NewGrpcServer(controller, logger))
	go func() {
		logger.Info("starting grpc server", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("grpc server error", "error", err)
			stop()
		}
	}()

	// 6. HTTP
	httpServer := &http.Server{
		Addr:         cfg.Server.HTTPAddr,
		Handler:      http_adapter.NewHandler(controller, cfg.Currency, logger).Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("starting http server", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Graceful Shutdown
	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
	grpcServer.GracefulStop()
	logger.Info("server exited")
}

// newSource 依設定選擇資料來源，回傳關閉函式
func newSource(ctx context.Context, cfg *config.Config) (usecase.Source, func(), error) {
	switch cfg.Source.Kind {
	case config.SourceMySQL:
		client, err := mysql.NewClient(ctx, cfg.MySQL)
		if err != nil {
			return nil, nil, err
		}
		return mysql_adapter.NewSource(client), func() { _ = client.Close() }, nil
	default:
		return remote.NewSource(remote.Config{
			CreditsURL: cfg.Source.CreditsURL,
			DebitsURL:  cfg.Source.DebitsURL,
			Timeout:    cfg.Source.Timeout,
		}), func() {}, nil
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
