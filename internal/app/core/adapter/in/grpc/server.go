package grpc

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/JoeShih716/go-finance-tracker/internal/app/core/domain"
	"github.com/JoeShih716/go-finance-tracker/internal/app/core/usecase"
)

// 每個 Watch stream 的事件緩衝
const watchBuffer = 64

// GrpcServer LedgerService 的實作，只轉換訊息，不持有狀態
type GrpcServer struct {
	tracker usecase.Tracker
	logger  *slog.Logger
}

func NewGrpcServer(tracker usecase.Tracker, logger *slog.Logger) *GrpcServer {
	return &GrpcServer{
		tracker: tracker,
		logger:  logger,
	}
}

// GetState 回傳完整快照
func (s *GrpcServer) GetState(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.snapshot()
}

// AddCredit 新增收入，回傳新的快照
func (s *GrpcServer) AddCredit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.add(req, s.tracker.AddCredit)
}

// AddDebit 新增支出，回傳新的快照
func (s *GrpcServer) AddDebit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.add(req, s.tracker.AddDebit)
}

func (s *GrpcServer) add(req *structpb.Struct, add func(domain.Transaction) (domain.Transaction, domain.State, error)) (*structpb.Struct, error) {
	// 1. 解析並驗證
	entry, err := txFromStruct(req)
	if err != nil {
		return nil, toStatus(err)
	}
	// 2. 寫入帳本
	_, state, err := add(entry)
	if err != nil {
		return nil, toStatus(err)
	}
	// 3. 回傳這次提交的狀態
	return toStruct(state)
}

// SetCurrentUser 模擬登入
func (s *GrpcServer) SetCurrentUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	state, err := s.tracker.SetCurrentUser(userUpdateFromStruct(req))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(state)
}

// Watch 推送狀態變更，直到 client 斷線
func (s *GrpcServer) Watch(_ *emptypb.Empty, stream grpc.ServerStream) error {
	events := make(chan domain.Event, watchBuffer)
	unsubscribe := s.tracker.Subscribe(func(ev domain.Event) {
		select {
		case events <- ev:
		default:
			// client 跟不上，丟掉事件；client 可用 GetState 的 version 補齊
			s.logger.Warn("watch stream lagging, event dropped", "version", ev.Version)
		}
	})
	defer unsubscribe()

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			msg, err := eventToStruct(ev)
			if err != nil {
				return status.Error(codes.Internal, err.Error())
			}
			if err := stream.SendMsg(msg); err != nil {
				return err
			}
		}
	}
}

func (s *GrpcServer) snapshot() (*structpb.Struct, error) {
	return toStruct(s.tracker.Snapshot())
}

func toStruct(state domain.State) (*structpb.Struct, error) {
	st, err := stateToStruct(state)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return st, nil
}

// toStatus 驗證錯誤 -> InvalidArgument，其餘 -> Internal
func toStatus(err error) error {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

var _ LedgerServiceServer = (*GrpcServer)(nil)
