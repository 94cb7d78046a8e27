// Package remotetest provides an in-memory remote.Store for tests.
package remotetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/matheus3301/huddle/internal/remote"
)

// Store is an in-memory remote.Store whose failures can be injected.
type Store struct {
	mu        sync.Mutex
	snap      *remote.Snapshot
	next      int
	listeners map[int]func(*remote.Snapshot)
	nextSub   int

	// AppendErr, FetchErr and SubscribeErr are returned by the matching call when set.
	AppendErr    error
	FetchErr     error
	SubscribeErr error
	// FetchPanic makes Fetch panic with the given value.
	FetchPanic any

	Appended []remote.Record
	Fetches  int
}

// New returns an empty fake store.
func New() *Store {
	return &Store{
		snap:      remote.NewSnapshot(),
		listeners: make(map[int]func(*remote.Snapshot)),
	}
}

func (s *Store) Append(_ context.Context, r remote.Record) (string, error) {
	s.mu.Lock()
	if s.AppendErr != nil {
		s.mu.Unlock()
		return "", s.AppendErr
	}
	s.next++
	id := fmt.Sprintf("k%04d", s.next)
	s.snap.Put(id, r)
	s.Appended = append(s.Appended, r)
	s.mu.Unlock()

	s.broadcast()
	return id, nil
}

func (s *Store) Fetch(_ context.Context) (*remote.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fetches++
	if s.FetchPanic != nil {
		panic(s.FetchPanic)
	}
	if s.FetchErr != nil {
		return nil, s.FetchErr
	}
	return s.snap.Clone(), nil
}

func (s *Store) Subscribe(_ context.Context, fn func(*remote.Snapshot)) (remote.Subscription, error) {
	s.mu.Lock()
	if s.SubscribeErr != nil {
		s.mu.Unlock()
		return nil, s.SubscribeErr
	}
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	initial := s.snap.Clone()
	s.mu.Unlock()

	fn(initial)
	return remote.NewSubscription(func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}), nil
}

// Emit replaces the collection and pushes it to every listener.
func (s *Store) Emit(snap *remote.Snapshot) {
	s.mu.Lock()
	s.snap = snap.Clone()
	s.mu.Unlock()
	s.broadcast()
}

// Listeners returns the number of attached subscriptions.
func (s *Store) Listeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

func (s *Store) broadcast() {
	s.mu.Lock()
	snap := s.snap.Clone()
	fns := make([]func(*remote.Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(snap.Clone())
	}
}
