package grpc

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/JoeShih716/go-finance-tracker/internal/app/core/domain"
)

// Client LedgerService 的型別化客戶端
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// GetState 取得完整快照
func (c *Client) GetState(ctx context.Context) (domain.State, error) {
	return c.invoke(ctx, MethodGetState, &emptypb.Empty{})
}

// AddCredit 新增收入，回傳新的快照
func (c *Client) AddCredit(ctx context.Context, entry domain.Transaction) (domain.State, error) {
	return c.invokeEntry(ctx, MethodAddCredit, entry)
}

// AddDebit 新增支出，回傳新的快照
func (c *Client) AddDebit(ctx context.Context, entry domain.Transaction) (domain.State, error) {
	return c.invokeEntry(ctx, MethodAddDebit, entry)
}

// SetCurrentUser 模擬登入
func (c *Client) SetCurrentUser(ctx context.Context, userName string) (domain.State, error) {
	req, err := structpb.NewStruct(map[string]any{fieldUserName: userName})
	if err != nil {
		return domain.State{}, err
	}
	return c.invoke(ctx, MethodSetCurrentUser, req)
}

// Watch 持續接收狀態變更，fn 回傳錯誤或 stream 結束時返回
func (c *Client) Watch(ctx context.Context, fn func(domain.Event) error) error {
	stream, err := c.conn.NewStream(ctx, &ServiceDesc.Streams[0], MethodWatch)
	if err != nil {
		return err
	}
	if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}
	for {
		msg := new(structpb.Struct)
		if err := stream.RecvMsg(msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		ev, err := eventFromStruct(msg)
		if err != nil {
			return err
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
}

func (c *Client) invokeEntry(ctx context.Context, method string, entry domain.Transaction) (domain.State, error) {
	req, err := structpb.NewStruct(txToMap(entry))
	if err != nil {
		return domain.State{}, err
	}
	return c.invoke(ctx, method, req)
}

func (c *Client) invoke(ctx context.Context, method string, req any) (domain.State, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, req, out); err != nil {
		return domain.State{}, err
	}
	return stateFromStruct(out)
}
