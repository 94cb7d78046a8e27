package session

import (
	"strings"
	"sync"

	"github.com/matheus3301/huddle/internal/remote"
)

// Change identifies which field of a State changed.
type Change int

const (
	UsernameChanged Change = iota + 1
	MessagesChanged
	DraftChanged
)

// State is the in-memory state of one running client. It is never persisted.
//
// Each field has a single writer: the username and draft are written by the
// presentation layer (through chat.Client), messages only by the sync engine.
// Any goroutine may read; readers get copies.
type State struct {
	mu       sync.RWMutex
	username string
	messages []remote.Message
	draft    string

	lmu       sync.Mutex
	listeners map[int]func(Change)
	nextID    int
}

// NewState returns an empty state with the username gate open.
func NewState() *State {
	return &State{
		messages:  []remote.Message{},
		listeners: make(map[int]func(Change)),
	}
}

// SetUsername closes the username gate. Blank names are rejected and the
// username cannot be changed once set; both cases return false.
func (s *State) SetUsername(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	s.mu.Lock()
	if s.username != "" {
		s.mu.Unlock()
		return false
	}
	s.username = name
	s.mu.Unlock()
	s.emit(UsernameChanged)
	return true
}

// Username returns the session username, empty while the gate is open.
func (s *State) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// UsernameSet reports whether the username gate is closed.
func (s *State) UsernameSet() bool {
	return s.Username() != ""
}

// ReplaceMessages swaps the whole message list.
func (s *State) ReplaceMessages(msgs []remote.Message) {
	cp := make([]remote.Message, len(msgs))
	copy(cp, msgs)
	s.mu.Lock()
	s.messages = cp
	s.mu.Unlock()
	s.emit(MessagesChanged)
}

// Messages returns a copy of the current ordered message list.
func (s *State) Messages() []remote.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make([]remote.Message, len(s.messages))
	copy(cp, s.messages)
	return cp
}

// SetDraft replaces the input buffer.
func (s *State) SetDraft(text string) {
	s.mu.Lock()
	if s.draft == text {
		s.mu.Unlock()
		return
	}
	s.draft = text
	s.mu.Unlock()
	s.emit(DraftChanged)
}

// ClearDraftIf empties the input buffer only while it still holds text, so
// edits made after text was read survive. It reports whether it cleared.
func (s *State) ClearDraftIf(text string) bool {
	s.mu.Lock()
	if s.draft != text || text == "" {
		s.mu.Unlock()
		return false
	}
	s.draft = ""
	s.mu.Unlock()
	s.emit(DraftChanged)
	return true
}

// Draft returns the input buffer.
func (s *State) Draft() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft
}

// OnChange registers fn to run after every change and returns a function
// that removes it. fn runs on the writer's goroutine.
func (s *State) OnChange(fn func(Change)) func() {
	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.lmu.Unlock()
	return func() {
		s.lmu.Lock()
		delete(s.listeners, id)
		s.lmu.Unlock()
	}
}

func (s *State) emit(c Change) {
	s.lmu.Lock()
	fns := make([]func(Change), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.lmu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}
