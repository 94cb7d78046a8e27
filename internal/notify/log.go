package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Log shows notifications as log entries. Permission is granted on request
// only when the dispatcher is enabled.
type Log struct {
	logger  *zap.Logger
	enabled bool

	mu   sync.Mutex
	perm Permission
}

// NewLog creates a log dispatcher.
func NewLog(logger *zap.Logger, enabled bool) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger, enabled: enabled, perm: Denied}
}

func (l *Log) PermissionStatus(context.Context) (Permission, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.perm, nil
}

func (l *Log) RequestPermission(context.Context) (Permission, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.enabled {
		l.perm = Granted
	}
	return l.perm, nil
}

func (l *Log) Schedule(_ context.Context, c Content) error {
	l.mu.Lock()
	perm := l.perm
	l.mu.Unlock()
	if perm != Granted {
		return ErrPermissionDenied
	}
	l.logger.Info("notification", zap.String("title", c.Title), zap.String("body", c.Body))
	return nil
}
