// Package grpcstore is a remote.Store that talks to a huddle daemon.
package grpcstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/matheus3301/huddle/internal/api"
	"github.com/matheus3301/huddle/internal/remote"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

// Store forwards every call to the daemon's MessageStore service.
type Store struct {
	conn   *grpc.ClientConn
	client *api.MessageStoreClient
	logger *zap.Logger
}

var _ remote.Store = (*Store)(nil)

// Dial connects to the daemon listening on socketPath.
func Dial(socketPath string, logger *zap.Logger) (*Store, error) {
	conn, err := grpc.NewClient(
		"unix://"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to daemon: %w", err)
	}
	return New(conn, logger), nil
}

// New wraps an existing connection. Close closes it.
func New(conn *grpc.ClientConn, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{conn: conn, client: api.NewMessageStoreClient(conn), logger: logger}
}

// Close closes the connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) Append(ctx context.Context, r remote.Record) (string, error) {
	resp, err := s.client.Append(ctx, api.RecordToStruct(r))
	if err != nil {
		return "", fmt.Errorf("append: %w", err)
	}
	return resp.GetValue(), nil
}

func (s *Store) Fetch(ctx context.Context) (*remote.Snapshot, error) {
	resp, err := s.client.Fetch(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	return api.StructToSnapshot(resp)
}

// Status returns the daemon's status report.
func (s *Store) Status(ctx context.Context) (map[string]any, error) {
	resp, err := s.client.Status(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	return resp.AsMap(), nil
}

// Subscribe opens a Watch stream and waits for its first snapshot, so an
// unreachable daemon is reported here rather than later.
func (s *Store) Subscribe(ctx context.Context, onSnapshot func(*remote.Snapshot)) (remote.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	stream, err := s.client.Watch(ctx, &emptypb.Empty{})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("watch: %w", err)
	}
	first, err := stream.Recv()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("watch: %w", err)
	}
	initial, err := api.StructToSnapshot(first)
	if err != nil {
		cancel()
		return nil, err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		onSnapshot(initial)
		for {
			msg, err := stream.Recv()
			if err != nil {
				if ctx.Err() == nil && !errors.Is(err, io.EOF) && grpcstatus.Code(err) != codes.Canceled {
					s.logger.Error("watch stream ended", zap.Error(err))
				}
				return
			}
			snap, err := api.StructToSnapshot(msg)
			if err != nil {
				s.logger.Warn("skip undecodable snapshot", zap.Error(err))
				continue
			}
			onSnapshot(snap)
		}
	}()

	return remote.NewSubscription(func() {
		cancel()
		wg.Wait()
	}), nil
}
