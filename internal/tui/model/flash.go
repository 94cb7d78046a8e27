package model

import (
	"sync"
	"time"

	"github.com/coder/quartz"
)

// Flash holds one transient status-bar message.
type Flash struct {
	mu      sync.RWMutex
	clock   quartz.Clock
	message string
	expires time.Time
}

// NewFlash returns an empty flash. A nil clock uses the real one.
func NewFlash(clock quartz.Clock) *Flash {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Flash{clock: clock}
}

// Set stores msg until d has elapsed, replacing any previous message.
func (f *Flash) Set(msg string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.message = msg
	f.expires = f.clock.Now().Add(d)
}

// Get returns the current message, or empty once it expired.
func (f *Flash) Get() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.clock.Now().Before(f.expires) {
		return ""
	}
	return f.message
}
