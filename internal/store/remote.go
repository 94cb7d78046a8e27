package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/matheus3301/huddle/internal/bus"
	"github.com/matheus3301/huddle/internal/remote"
	"go.uber.org/zap"
)

// Hub serves the messages collection out of the local database. Appends are
// fanned out over the bus so every subscriber re-reads a full snapshot.
type Hub struct {
	db     *DB
	bus    *bus.Bus
	logger *zap.Logger
}

var _ remote.Store = (*Hub)(nil)

// NewHub creates a hub over db publishing change signals on b.
func NewHub(db *DB, b *bus.Bus, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{db: db, bus: b, logger: logger}
}

// Append stores r under a new time-ordered key.
func (h *Hub) Append(ctx context.Context, r remote.Record) (string, error) {
	key, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	id := key.String()
	if err := h.db.InsertMessage(ctx, id, r); err != nil {
		return "", err
	}
	h.bus.Publish(bus.NewEvent(bus.StoreAppended, id))
	return id, nil
}

// Fetch returns the current collection.
func (h *Hub) Fetch(ctx context.Context) (*remote.Snapshot, error) {
	return h.db.Snapshot(ctx)
}

// Subscribe delivers the current collection, then a fresh snapshot after each
// append, until ctx ends or the subscription is detached. Appends that land
// while a snapshot is being read are coalesced into one re-read.
func (h *Hub) Subscribe(ctx context.Context, onSnapshot func(*remote.Snapshot)) (remote.Subscription, error) {
	ch, unsub := h.bus.Subscribe(bus.StoreAppended, 16)
	ctx, cancel := context.WithCancel(ctx)

	initial, err := h.db.Snapshot(ctx)
	if err != nil {
		cancel()
		unsub()
		return nil, err
	}

	go func() {
		defer unsub()
		onSnapshot(initial)
		for {
			select {
			case _, ok := <-ch:
				if !ok {
					return
				}
				drain(ch)
				snap, err := h.db.Snapshot(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					h.logger.Error("read snapshot for subscriber", zap.Error(err))
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

	return remote.NewSubscription(cancel), nil
}

func drain(ch <-chan bus.Event) {
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
