package api

import (
	"context"
	"strings"

	"github.com/matheus3301/huddle/internal/remote"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// StatusFunc reports daemon status as JSON-compatible values.
type StatusFunc func(ctx context.Context) map[string]any

// StoreService implements MessageStoreServer on top of a remote.Store.
type StoreService struct {
	store  remote.Store
	status StatusFunc
	logger *zap.Logger
}

var _ MessageStoreServer = (*StoreService)(nil)

// NewStoreService creates the service. status may be nil.
func NewStoreService(store remote.Store, status StatusFunc, logger *zap.Logger) *StoreService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreService{store: store, status: status, logger: logger}
}

func (s *StoreService) Append(ctx context.Context, in *structpb.Struct) (*wrapperspb.StringValue, error) {
	r, err := StructToRecord(in)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.InvalidArgument, "record: %v", err)
	}
	if strings.TrimSpace(r.Text) == "" {
		return nil, grpcstatus.Error(codes.InvalidArgument, "text is required")
	}
	id, err := s.store.Append(ctx, r)
	if err != nil {
		s.logger.Error("append failed", zap.Error(err))
		return nil, grpcstatus.Errorf(codes.Unavailable, "append: %v", err)
	}
	return wrapperspb.String(id), nil
}

func (s *StoreService) Fetch(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	snap, err := s.store.Fetch(ctx)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Unavailable, "fetch: %v", err)
	}
	return SnapshotToStruct(snap), nil
}

// Watch streams a full snapshot on every change. A slow client only
// receives the newest snapshot.
func (s *StoreService) Watch(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ctx := stream.Context()
	latest := make(chan *remote.Snapshot, 1)

	sub, err := s.store.Subscribe(ctx, func(snap *remote.Snapshot) {
		for {
			select {
			case latest <- snap:
				return
			default:
			}
			select {
			case <-latest:
			default:
			}
		}
	})
	if err != nil {
		return grpcstatus.Errorf(codes.Unavailable, "subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	for {
		select {
		case snap := <-latest:
			if err := stream.Send(SnapshotToStruct(snap)); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *StoreService) Status(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if s.status == nil {
		return &structpb.Struct{Fields: map[string]*structpb.Value{}}, nil
	}
	out, err := structpb.NewStruct(s.status(ctx))
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "encode status: %v", err)
	}
	return out, nil
}
