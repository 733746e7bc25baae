package grpc

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func TestPool_ReusesConnection(t *testing.T) {
	p := NewPool()

	first, err := p.GetConnection("passthrough:///tracker")
	require.NoError(t, err)
	second, err := p.GetConnection("passthrough:///tracker")
	require.NoError(t, err)
	assert.Same(t, first, second)

	other, err := p.GetConnection("passthrough:///other")
	require.NoError(t, err)
	assert.NotSame(t, first, other)

	require.NoError(t, p.Close())

	// 關閉後重新建立
	third, err := p.GetConnection("passthrough:///tracker")
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	require.NoError(t, p.Close())
}

func TestLoggingInterceptor(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	conn, err := grpc.NewClient("passthrough:///tracker", grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	wantErr := errors.New("unavailable")
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return wantErr
	}
	err = LoggingInterceptor(logger)(context.Background(), "/tracker.v1.LedgerService/GetState", nil, nil, conn, invoker)

	assert.ErrorIs(t, err, wantErr)
	assert.Contains(t, buf.String(), "grpc call")
	assert.Contains(t, buf.String(), "GetState")
}
