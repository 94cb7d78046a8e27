// Package notify delivers user-visible notifications through pluggable
// dispatchers and gates them on the permission each dispatcher holds.
package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Permission is the notification permission held by a dispatcher.
type Permission string

const (
	Granted Permission = "granted"
	Denied  Permission = "denied"
)

// Notification texts shown to participants.
const (
	Title       = "Nova Mensagem!"
	GenericBody = "Você tem novas mensagens."
)

var (
	// ErrPermissionDenied is returned by Schedule when permission is not granted.
	ErrPermissionDenied = errors.New("notification permission denied")
	// ErrThrottled is returned by Schedule when a rate limit drops the notification.
	ErrThrottled = errors.New("notification throttled")
)

// Content is what a notification shows.
type Content struct {
	Title string
	Body  string
}

// MessageContent is the notification for a single message.
func MessageContent(username, text string) Content {
	return Content{Title: Title, Body: fmt.Sprintf("Mensagem de %s: %s", username, text)}
}

// GenericContent is the summary notification raised by background polling.
func GenericContent() Content {
	return Content{Title: Title, Body: GenericBody}
}

// Dispatcher shows notifications immediately.
type Dispatcher interface {
	PermissionStatus(ctx context.Context) (Permission, error)
	RequestPermission(ctx context.Context) (Permission, error)
	Schedule(ctx context.Context, c Content) error
}

// Dropped reports whether err means the notification was intentionally not shown.
func Dropped(err error) bool {
	return errors.Is(err, ErrPermissionDenied) || errors.Is(err, ErrThrottled)
}

// EnsurePermission checks the permission and requests it once if it is not
// granted. Failures are logged; the returned permission is always usable.
func EnsurePermission(ctx context.Context, d Dispatcher, logger *zap.Logger) Permission {
	if logger == nil {
		logger = zap.NewNop()
	}
	p, err := d.PermissionStatus(ctx)
	if err != nil {
		logger.Warn("notification permission status", zap.Error(err))
	}
	if p == Granted {
		return p
	}
	p, err = d.RequestPermission(ctx)
	if err != nil {
		logger.Warn("notification permission request", zap.Error(err))
		return Denied
	}
	if p != Granted {
		logger.Info("notifications disabled: permission not granted")
	}
	return p
}
