// Package api exposes a remote.Store over gRPC as huddle.v1.MessageStore.
//
// Requests and responses are protobuf well-known types, so the service
// descriptor is declared here instead of being generated.
package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "huddle.v1.MessageStore"

const (
	appendMethod = "/" + ServiceName + "/Append"
	fetchMethod  = "/" + ServiceName + "/Fetch"
	watchMethod  = "/" + ServiceName + "/Watch"
	statusMethod = "/" + ServiceName + "/Status"
)

// MessageStoreServer is the server API for huddle.v1.MessageStore.
type MessageStoreServer interface {
	Append(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
	Fetch(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Watch(*emptypb.Empty, grpc.ServerStreamingServer[structpb.Struct]) error
	Status(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterMessageStoreServer registers srv on s.
func RegisterMessageStoreServer(s grpc.ServiceRegistrar, srv MessageStoreServer) {
	s.RegisterService(&MessageStoreServiceDesc, srv)
}

// MessageStoreServiceDesc describes huddle.v1.MessageStore.
var MessageStoreServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MessageStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Append", Handler: appendHandler},
		{MethodName: "Fetch", Handler: fetchHandler},
		{MethodName: "Status", Handler: statusHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Watch", Handler: watchHandler, ServerStreams: true},
	},
	Metadata: "huddle/v1/store.proto",
}

func appendHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MessageStoreServer).Append(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: appendMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(MessageStoreServer).Append(ctx, req.(*structpb.Struct))
	})
}

func fetchHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MessageStoreServer).Fetch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fetchMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(MessageStoreServer).Fetch(ctx, req.(*emptypb.Empty))
	})
}

func statusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MessageStoreServer).Status(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: statusMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(MessageStoreServer).Status(ctx, req.(*emptypb.Empty))
	})
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(MessageStoreServer).Watch(in, &grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{ServerStream: stream})
}

// MessageStoreClient is the client API for huddle.v1.MessageStore.
type MessageStoreClient struct {
	cc grpc.ClientConnInterface
}

// NewMessageStoreClient creates a client over cc.
func NewMessageStoreClient(cc grpc.ClientConnInterface) *MessageStoreClient {
	return &MessageStoreClient{cc: cc}
}

func (c *MessageStoreClient) Append(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, appendMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MessageStoreClient) Fetch(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fetchMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MessageStoreClient) Status(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, statusMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MessageStoreClient) Watch(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &MessageStoreServiceDesc.Streams[0], watchMethod, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[emptypb.Empty, structpb.Struct]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
