package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/matheus3301/huddle/internal/bus"
	"go.uber.org/zap"
)

// Multi fans notifications out to several dispatchers and publishes a
// bus.NotifyDelivered event when at least one of them showed it.
type Multi struct {
	dispatchers []Dispatcher
	bus         *bus.Bus
	logger      *zap.Logger
}

// NewMulti combines dispatchers. b and logger may be nil.
func NewMulti(b *bus.Bus, logger *zap.Logger, ds ...Dispatcher) *Multi {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Multi{dispatchers: ds, bus: b, logger: logger}
}

// PermissionStatus is Granted when any dispatcher is granted.
func (m *Multi) PermissionStatus(ctx context.Context) (Permission, error) {
	var errs []error
	for _, d := range m.dispatchers {
		p, err := d.PermissionStatus(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if p == Granted {
			return Granted, nil
		}
	}
	return Denied, errors.Join(errs...)
}

// RequestPermission asks every dispatcher that is not yet granted.
func (m *Multi) RequestPermission(ctx context.Context) (Permission, error) {
	result := Denied
	var errs []error
	for _, d := range m.dispatchers {
		p, err := d.PermissionStatus(ctx)
		if err == nil && p != Granted {
			p, err = d.RequestPermission(ctx)
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if p == Granted {
			result = Granted
		}
	}
	if result == Granted {
		return result, nil
	}
	return result, errors.Join(errs...)
}

// Schedule sends c to every dispatcher. It fails only when none showed it;
// failures of single sinks are logged either way.
func (m *Multi) Schedule(ctx context.Context, c Content) error {
	delivered := false
	var errs []error
	for _, d := range m.dispatchers {
		if err := d.Schedule(ctx, c); err != nil {
			m.logFailure(d, err)
			errs = append(errs, err)
			continue
		}
		delivered = true
	}
	if delivered {
		m.bus.Publish(bus.NewEvent(bus.NotifyDelivered, c))
		return nil
	}
	if len(errs) == 0 {
		return ErrPermissionDenied
	}
	return errors.Join(errs...)
}

func (m *Multi) logFailure(d Dispatcher, err error) {
	sink := zap.String("sink", fmt.Sprintf("%T", d))
	if errors.Is(err, ErrPermissionDenied) {
		m.logger.Debug("notification sink not permitted", sink)
		return
	}
	m.logger.Warn("notification sink failed", sink, zap.Error(err))
}
