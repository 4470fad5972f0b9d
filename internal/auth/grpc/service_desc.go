package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// The service speaks protobuf well-known types, so no generated stubs are
// needed on either side.
const ServiceName = "account.v1.AccountService"

const (
	RegisterMethod = "/" + ServiceName + "/Register"
	LoginMethod    = "/" + ServiceName + "/Login"
	RefreshMethod  = "/" + ServiceName + "/Refresh"
	MeMethod       = "/" + ServiceName + "/Me"
)

type AccountServiceServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Refresh(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Me(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

var AccountServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AccountServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unary(RegisterMethod, AccountServiceServer.Register)},
		{MethodName: "Login", Handler: unary(LoginMethod, AccountServiceServer.Login)},
		{MethodName: "Refresh", Handler: unary(RefreshMethod, AccountServiceServer.Refresh)},
		{MethodName: "Me", Handler: unary(MeMethod, AccountServiceServer.Me)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "account/v1/account.proto",
}

func RegisterAccountServiceServer(s grpc.ServiceRegistrar, srv AccountServiceServer) {
	s.RegisterService(&AccountServiceDesc, srv)
}

func unary[Req any, PReq interface {
	*Req
}](fullMethod string, call func(AccountServiceServer, context.Context, PReq) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AccountServiceServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AccountServiceServer), ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Client calls AccountService over any client connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, RegisterMethod, in, opts...)
}

func (c *Client) Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, LoginMethod, in, opts...)
}

func (c *Client) Refresh(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, RefreshMethod, in, opts...)
}

func (c *Client) Me(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, MeMethod, &emptypb.Empty{}, opts...)
}

func invoke(ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
