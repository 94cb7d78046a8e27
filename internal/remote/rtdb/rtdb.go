// Package rtdb talks to a Firebase Realtime Database over its REST and
// streaming API.
package rtdb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/matheus3301/huddle/internal/remote"
	sse "github.com/tmaxmax/go-sse"
	"go.uber.org/zap"
)

// ErrStreamClosed is reported when the server cancels the stream.
var ErrStreamClosed = errors.New("rtdb stream closed by server")

// Config addresses one database.
type Config struct {
	// URL is the database root, e.g. https://example.firebaseio.com.
	URL string
	// Auth is an optional database secret or ID token.
	Auth string
	// ReconnectDelay is the pause before re-opening a dropped stream.
	ReconnectDelay time.Duration
	HTTPClient     *http.Client
}

// Store is a remote.Store backed by a Realtime Database collection.
type Store struct {
	base       *url.URL
	auth       string
	collection string
	delay      time.Duration
	http       *http.Client
	logger     *zap.Logger
}

var _ remote.Store = (*Store)(nil)

// New creates a store for the messages collection.
func New(cfg Config, logger *zap.Logger) (*Store, error) {
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse rtdb url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("rtdb url %q must be absolute", cfg.URL)
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 3 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		base:       base,
		auth:       cfg.Auth,
		collection: remote.Collection,
		delay:      cfg.ReconnectDelay,
		http:       cfg.HTTPClient,
		logger:     logger,
	}, nil
}

func (s *Store) endpoint() string {
	u := *s.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + s.collection + ".json"
	if s.auth != "" {
		q := u.Query()
		q.Set("auth", s.auth)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// Append pushes r and returns the generated child key.
func (s *Store) Append(ctx context.Context, r remote.Record) (string, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		Name string `json:"name"`
	}
	if err := s.do(req, &out); err != nil {
		return "", fmt.Errorf("append: %w", err)
	}
	if out.Name == "" {
		return "", errors.New("append: server returned no key")
	}
	return out.Name, nil
}

// Fetch reads the collection once.
func (s *Store) Fetch(ctx context.Context) (*remote.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint(), nil)
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := s.do(req, &raw); err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	return decodeCollection(raw)
}

func (s *Store) do(req *http.Request, out any) error {
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return json.Unmarshal(data, out)
}

// StatusError is a non-200 answer from the database.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("rtdb: status %d: %s", e.Code, e.Body)
}

// Subscribe opens the event stream and waits for the first full snapshot.
// Once live, a dropped stream is re-opened after the reconnect delay; a
// server cancel or revoked auth ends the subscription.
func (s *Store) Subscribe(ctx context.Context, onSnapshot func(*remote.Snapshot)) (remote.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	st := &stream{store: s, onSnapshot: onSnapshot, ready: make(chan struct{})}

	errc := make(chan error, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		errc <- st.connect(ctx)
	}()

	select {
	case <-st.ready:
	case err := <-errc:
		cancel()
		wg.Wait()
		if err == nil {
			err = ErrStreamClosed
		}
		return nil, fmt.Errorf("subscribe %s: %w", s.collection, err)
	case <-ctx.Done():
		cancel()
		wg.Wait()
		return nil, ctx.Err()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		err := <-errc
		for ctx.Err() == nil && !errors.Is(err, ErrStreamClosed) {
			s.logger.Warn("rtdb stream dropped; reconnecting", zap.Error(err), zap.Duration("delay", s.delay))
			select {
			case <-time.After(s.delay):
			case <-ctx.Done():
				return
			}
			err = st.connect(ctx)
		}
		if errors.Is(err, ErrStreamClosed) {
			s.logger.Error("rtdb stream ended", zap.Error(err))
		}
	}()

	return remote.NewSubscription(func() {
		cancel()
		wg.Wait()
	}), nil
}

type stream struct {
	store      *Store
	onSnapshot func(*remote.Snapshot)

	// cache is owned by the goroutine running connect.
	cache     *remote.Snapshot
	ready     chan struct{}
	readyOnce sync.Once
	closed    error
}

type streamPayload struct {
	Path string          `json:"path"`
	Data json.RawMessage `json:"data"`
}

func (st *stream) connect(ctx context.Context) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, st.store.endpoint(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	client := &sse.Client{
		HTTPClient: st.store.http,
		Backoff:    sse.Backoff{MaxRetries: -1},
	}
	conn := client.NewConnection(req)
	st.closed = nil

	unsub := conn.SubscribeToAll(func(e sse.Event) {
		if err := st.handle(e); err != nil {
			st.closed = err
			stop()
		}
	})
	defer unsub()

	err = conn.Connect()
	if st.closed != nil {
		return st.closed
	}
	if err == nil {
		err = io.EOF
	}
	return err
}

func (st *stream) handle(e sse.Event) error {
	switch e.Type {
	case "put", "patch":
	case "keep-alive":
		return nil
	case "cancel":
		return fmt.Errorf("%w: cancel: %s", ErrStreamClosed, e.Data)
	case "auth_revoked":
		return fmt.Errorf("%w: auth revoked", ErrStreamClosed)
	default:
		st.store.logger.Debug("ignoring rtdb event", zap.String("event", e.Type))
		return nil
	}

	var p streamPayload
	if err := json.Unmarshal([]byte(e.Data), &p); err != nil {
		st.store.logger.Warn("undecodable rtdb event", zap.String("event", e.Type), zap.Error(err))
		return nil
	}
	if err := st.apply(e.Type, p); err != nil {
		st.store.logger.Warn("apply rtdb event", zap.String("event", e.Type), zap.String("path", p.Path), zap.Error(err))
		return nil
	}
	st.readyOnce.Do(func() { close(st.ready) })
	st.onSnapshot(st.cache.Clone())
	return nil
}

func (st *stream) apply(kind string, p streamPayload) error {
	if st.cache == nil {
		st.cache = remote.NewSnapshot()
	}
	key, field, nested := strings.Cut(strings.Trim(p.Path, "/"), "/")

	switch {
	case key == "" && kind == "put":
		snap, err := decodeCollection(p.Data)
		if err != nil {
			return err
		}
		st.cache = snap
		return nil
	case key == "":
		return eachChild(p.Data, func(k string, v json.RawMessage) error {
			return st.setChild(k, v)
		})
	case nested:
		if strings.Contains(field, "/") {
			return fmt.Errorf("unsupported path %q", p.Path)
		}
		return st.mergeChild(key, map[string]json.RawMessage{field: p.Data})
	case kind == "patch":
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(p.Data, &fields); err != nil {
			return err
		}
		return st.mergeChild(key, fields)
	default:
		return st.setChild(key, p.Data)
	}
}

func (st *stream) setChild(key string, raw json.RawMessage) error {
	if isNull(raw) {
		st.cache.Delete(key)
		return nil
	}
	var r remote.Record
	if err := json.Unmarshal(raw, &r); err != nil {
		return err
	}
	st.cache.Put(key, r)
	return nil
}

// mergeChild overlays fields onto the cached record at key.
func (st *stream) mergeChild(key string, fields map[string]json.RawMessage) error {
	merged := map[string]json.RawMessage{}
	if r, ok := st.cache.Get(key); ok {
		cur, err := json.Marshal(r)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(cur, &merged); err != nil {
			return err
		}
	}
	for k, v := range fields {
		if isNull(v) {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	raw, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	return st.setChild(key, raw)
}
