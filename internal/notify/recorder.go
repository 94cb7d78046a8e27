package notify

import (
	"context"
	"sync"
)

// Recorder keeps every scheduled notification in memory.
type Recorder struct {
	mu   sync.Mutex
	perm Permission
	sent []Content

	// Err is returned by Schedule when set.
	Err error
	// OnSchedule, when set, is called with each recorded notification.
	OnSchedule func(Content)
}

// NewRecorder returns a recorder that already holds perm.
func NewRecorder(perm Permission) *Recorder {
	return &Recorder{perm: perm}
}

func (r *Recorder) PermissionStatus(context.Context) (Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.perm, nil
}

// RequestPermission returns the current permission unchanged.
func (r *Recorder) RequestPermission(ctx context.Context) (Permission, error) {
	return r.PermissionStatus(ctx)
}

func (r *Recorder) Schedule(_ context.Context, c Content) error {
	r.mu.Lock()
	if r.Err != nil {
		r.mu.Unlock()
		return r.Err
	}
	if r.perm != Granted {
		r.mu.Unlock()
		return ErrPermissionDenied
	}
	r.sent = append(r.sent, c)
	cb := r.OnSchedule
	r.mu.Unlock()
	if cb != nil {
		cb(c)
	}
	return nil
}

// Sent returns a copy of the recorded notifications.
func (r *Recorder) Sent() []Content {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Content(nil), r.sent...)
}
