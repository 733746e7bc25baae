package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName gRPC 服務名稱
const ServiceName = "tracker.v1.LedgerService"

// 完整方法名稱
const (
	MethodGetState       = "/" + ServiceName + "/GetState"
	MethodAddCredit      = "/" + ServiceName + "/AddCredit"
	MethodAddDebit       = "/" + ServiceName + "/AddDebit"
	MethodSetCurrentUser = "/" + ServiceName + "/SetCurrentUser"
	MethodWatch          = "/" + ServiceName + "/Watch"
)

// LedgerServiceServer 服務端介面
//
// 訊息一律使用 protobuf 內建型別 (Struct / Empty)，不需要額外產生程式碼。
type LedgerServiceServer interface {
	GetState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	AddCredit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddDebit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetCurrentUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Watch(*emptypb.Empty, grpc.ServerStream) error
}

// ServiceDesc 手寫的服務描述
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetState", Handler: unary[emptypb.Empty](MethodGetState, LedgerServiceServer.GetState)},
		{MethodName: "AddCredit", Handler: unary[structpb.Struct](MethodAddCredit, LedgerServiceServer.AddCredit)},
		{MethodName: "AddDebit", Handler: unary[structpb.Struct](MethodAddDebit, LedgerServiceServer.AddDebit)},
		{MethodName: "SetCurrentUser", Handler: unary[structpb.Struct](MethodSetCurrentUser, LedgerServiceServer.SetCurrentUser)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Watch", Handler: watchHandler, ServerStreams: true},
	},
}

// RegisterLedgerServiceServer 註冊到 gRPC Server
func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unary 產生 unary handler：解碼 -> (interceptor) -> 呼叫實作
func unary[Req any, PReq interface {
	*Req
	proto.Message
}](method string, call func(LedgerServiceServer, context.Context, PReq) (*structpb.Struct, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		impl := srv.(LedgerServiceServer)
		if interceptor == nil {
			return call(impl, ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(impl, ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(LedgerServiceServer).Watch(in, stream)
}
