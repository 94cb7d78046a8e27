// Package redisstore keeps the messages collection in Redis.
//
// Records live in a hash keyed by id, enumeration order in a list, and every
// append is announced on a pub/sub channel so subscribers can re-read.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/matheus3301/huddle/internal/remote"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Store is a remote.Store backed by Redis.
type Store struct {
	client     *redis.Client
	collection string
	logger     *zap.Logger
}

var _ remote.Store = (*Store)(nil)

// New connects to redisURL and checks the connection.
func New(ctx context.Context, redisURL string, logger *zap.Logger) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewWithClient(client, remote.Collection, logger), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, collection string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, collection: collection, logger: logger}
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) recordsKey() string  { return fmt.Sprintf("huddle:%s:records", s.collection) }
func (s *Store) orderKey() string    { return fmt.Sprintf("huddle:%s:order", s.collection) }
func (s *Store) changedChan() string { return fmt.Sprintf("huddle:%s:changed", s.collection) }

// Append stores r under a new ULID and announces it.
func (s *Store) Append(ctx context.Context, r remote.Record) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}
	id := ulid.Make().String()

	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, s.recordsKey(), id, data)
		p.RPush(ctx, s.orderKey(), id)
		p.Publish(ctx, s.changedChan(), id)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("append: %w", err)
	}
	return id, nil
}

// Fetch reads the whole collection in append order.
func (s *Store) Fetch(ctx context.Context) (*remote.Snapshot, error) {
	ids, err := s.client.LRange(ctx, s.orderKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read order: %w", err)
	}
	snap := remote.NewSnapshot()
	if len(ids) == 0 {
		return snap, nil
	}
	vals, err := s.client.HMGet(ctx, s.recordsKey(), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			s.logger.Warn("record missing for id", zap.String("msg_id", ids[i]))
			continue
		}
		var r remote.Record
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			s.logger.Warn("skip undecodable record", zap.String("msg_id", ids[i]), zap.Error(err))
			continue
		}
		snap.Put(ids[i], r)
	}
	return snap, nil
}

// Subscribe delivers the current collection and a fresh snapshot after each
// announced append. Announcements arriving during a read are coalesced.
func (s *Store) Subscribe(ctx context.Context, onSnapshot func(*remote.Snapshot)) (remote.Subscription, error) {
	ps := s.client.Subscribe(ctx, s.changedChan())
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", s.changedChan(), err)
	}

	initial, err := s.Fetch(ctx)
	if err != nil {
		_ = ps.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	ch := ps.Channel()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		onSnapshot(initial)
		for {
			select {
			case _, ok := <-ch:
				if !ok {
					return
				}
				drain(ch)
				snap, err := s.Fetch(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					s.logger.Error("read snapshot for subscriber", zap.Error(err))
					continue
				}
				if ctx.Err() != nil {
					return
				}
				onSnapshot(snap)
			case <-ctx.Done():
				return
			}
		}
	}()

	return remote.NewSubscription(func() {
		cancel()
		_ = ps.Close()
		wg.Wait()
	}), nil
}

func drain(ch <-chan *redis.Message) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
