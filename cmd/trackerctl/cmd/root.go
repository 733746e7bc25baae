// Package cmd trackerctl 的子命令，透過 gRPC 操作執行中的 tracker
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	grpc_adapter "github.com/JoeShih716/go-finance-tracker/internal/app/core/adapter/in/grpc"
	"github.com/JoeShih716/go-finance-tracker/internal/app/core/domain"
	grpcpool "github.com/JoeShih716/go-finance-tracker/pkg/grpc"
)

var (
	addr     string
	currency string
	timeout  time.Duration
	debug    bool

	pool *grpcpool.Pool
)

// poolOptions 測試時可替換成 bufconn dialer
var poolOptions []grpcpool.PoolOption

var rootCmd = &cobra.Command{
	Use:   "trackerctl",
	Short: "Query and update a running finance tracker",
	Long: `trackerctl talks to the tracker server over gRPC.

Example:
  trackerctl balance
  trackerctl add-credit "Salary" 100
  trackerctl add-debit "Groceries" 40 --date 2024-01-02
  trackerctl login alice
  trackerctl watch`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logLevel := slog.LevelInfo
		if debug {
			logLevel = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)

		opts := append([]grpcpool.PoolOption{
			grpcpool.WithInterceptor(grpcpool.LoggingInterceptor(logger)),
		}, poolOptions...)
		pool = grpcpool.NewPool(opts...)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if pool != nil {
			_ = pool.Close()
		}
	},
}

// Execute 執行 root command
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "localhost:50051", "tracker gRPC address")
	rootCmd.PersistentFlags().StringVar(&currency, "currency", domain.DefaultCurrency, "currency used for display")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Second, "timeout for unary calls")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(creditsCmd)
	rootCmd.AddCommand(debitsCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(addCreditCmd)
	rootCmd.AddCommand(addDebitCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(watchCmd)
}

// newClient 由連線池取得連線
func newClient() (*grpc_adapter.Client, error) {
	conn, err := pool.GetConnection(addr)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}
	return grpc_adapter.NewClient(conn), nil
}

// callContext unary 呼叫用的 timeout context
func callContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, timeout)
}
