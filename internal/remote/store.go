package remote

import (
	"context"
	"errors"
	"sync"
)

// Collection is the path of the shared messages collection.
const Collection = "messages"

// ErrClosed is returned by store operations after Close.
var ErrClosed = errors.New("remote store closed")

// Store is an append-only keyed collection shared by every client.
//
// Subscribe delivers the entire current collection on every change, starting
// with the state at subscription time. Callbacks for one subscription run
// sequentially in the order the store emits them.
type Store interface {
	Append(ctx context.Context, r Record) (string, error)
	Fetch(ctx context.Context) (*Snapshot, error)
	Subscribe(ctx context.Context, onSnapshot func(*Snapshot)) (Subscription, error)
}

// Subscription detaches a snapshot listener. Unsubscribe is idempotent.
type Subscription interface {
	Unsubscribe()
}

type onceSubscription struct {
	once sync.Once
	fn   func()
}

// NewSubscription wraps fn so that it runs at most once.
func NewSubscription(fn func()) Subscription {
	return &onceSubscription{fn: fn}
}

func (s *onceSubscription) Unsubscribe() {
	s.once.Do(func() {
		if s.fn != nil {
			s.fn()
		}
	})
}
