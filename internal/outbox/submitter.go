// Package outbox turns the session's draft into a record appended to the
// remote message store.
package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/matheus3301/huddle/internal/remote"
	"github.com/matheus3301/huddle/internal/session"
)

// Submitter sends the current draft as a message. Submissions are
// serialized, so one draft is appended at most once.
type Submitter struct {
	mu       sync.Mutex
	state    *session.State
	appender Appender
	clock    quartz.Clock
	loc      *time.Location
}

// NewSubmitter creates a submitter. A nil clock uses the real clock and a nil
// location uses time.Local.
func NewSubmitter(state *session.State, a Appender, clock quartz.Clock, loc *time.Location) *Submitter {
	if clock == nil {
		clock = quartz.NewReal()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Submitter{state: state, appender: a, clock: clock, loc: loc}
}

// Submit appends the draft stamped with the current time. An empty draft is
// ignored. Once the appender accepts the record the draft is cleared, unless
// it was edited in the meantime.
func (s *Submitter) Submit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	text := s.state.Draft()
	if text == "" {
		return nil
	}
	ts := s.clock.Now().UnixMilli()
	rec := remote.Record{
		Text:      text,
		Username:  s.state.Username(),
		Time:      remote.FormatTime(ts, s.loc),
		Timestamp: ts,
	}
	if err := s.appender.Append(ctx, rec); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	s.state.ClearDraftIf(text)
	return nil
}

// Close waits for appends still in flight.
func (s *Submitter) Close() {
	s.appender.Close()
}
