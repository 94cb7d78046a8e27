package rtdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matheus3301/huddle/internal/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDB mimics the REST and streaming endpoints of one collection.
type fakeDB struct {
	mu      sync.Mutex
	keys    []string
	records map[string]json.RawMessage
	streams map[chan string]struct{}
	reject  bool
	auth    string
}

func newFakeDB() *fakeDB {
	return &fakeDB{records: map[string]json.RawMessage{}, streams: map[chan string]struct{}{}}
}

func (f *fakeDB) collectionJSON() string {
	if len(f.keys) == 0 {
		return "null"
	}
	parts := make([]string, 0, len(f.keys))
	for _, k := range f.keys {
		parts = append(parts, fmt.Sprintf("%q:%s", k, f.records[k]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func (f *fakeDB) send(event, data string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.streams {
		ch <- fmt.Sprintf("event: %s\ndata: %s\n\n", event, data)
	}
}

func (f *fakeDB) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/messages.json" {
		http.NotFound(w, r)
		return
	}
	f.mu.Lock()
	reject := f.reject || r.URL.Query().Get("auth") != f.auth
	f.mu.Unlock()
	if reject {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Permission denied"}`))
		return
	}

	switch {
	case r.Method == http.MethodPost:
		var rec json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		key := fmt.Sprintf("-N%04d", len(f.keys)+1)
		f.keys = append(f.keys, key)
		f.records[key] = rec
		f.mu.Unlock()
		f.send("put", fmt.Sprintf(`{"path":"/%s","data":%s}`, key, rec))
		_, _ = fmt.Fprintf(w, `{"name":%q}`, key)

	case r.Header.Get("Accept") == "text/event-stream":
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)

		ch := make(chan string, 16)
		f.mu.Lock()
		initial := f.collectionJSON()
		f.streams[ch] = struct{}{}
		f.mu.Unlock()
		defer func() {
			f.mu.Lock()
			delete(f.streams, ch)
			f.mu.Unlock()
		}()

		_, _ = fmt.Fprintf(w, "event: put\ndata: {\"path\":\"/\",\"data\":%s}\n\n", initial)
		flusher.Flush()
		for {
			select {
			case msg := <-ch:
				_, _ = w.Write([]byte(msg))
				flusher.Flush()
			case <-r.Context().Done():
				return
			}
		}

	default:
		f.mu.Lock()
		body := f.collectionJSON()
		f.mu.Unlock()
		_, _ = w.Write([]byte(body))
	}
}

func (f *fakeDB) streamCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.streams)
}

func newStore(t *testing.T, db *fakeDB) *Store {
	t.Helper()
	srv := httptest.NewServer(db)
	t.Cleanup(srv.Close)
	s, err := New(Config{URL: srv.URL + "/", Auth: db.auth, ReconnectDelay: 50 * time.Millisecond}, nil)
	require.NoError(t, err)
	return s
}

func waitSnapshot(t *testing.T, ch <-chan *remote.Snapshot) *remote.Snapshot {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for snapshot")
		return nil
	}
}

func TestDecodeCollectionKeepsDocumentOrder(t *testing.T) {
	snap, err := decodeCollection([]byte(`{"z":{"text":"1"},"a":{"text":"2"},"m":null,"b":{"text":"3"}}`))
	require.NoError(t, err)
	var ids []string
	for _, m := range snap.Messages() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"z", "a", "b"}, ids)

	empty, err := decodeCollection([]byte("null"))
	require.NoError(t, err)
	assert.Zero(t, empty.Len())

	_, err = decodeCollection([]byte(`[1,2]`))
	assert.Error(t, err)
}

func TestAppendAndFetch(t *testing.T) {
	db := newFakeDB()
	db.auth = "secret"
	s := newStore(t, db)
	ctx := context.Background()

	empty, err := s.Fetch(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.Len())

	id, err := s.Append(ctx, remote.Record{Text: "hi", Username: "alice", Time: "16:00", Timestamp: 1710000000000})
	require.NoError(t, err)
	assert.Equal(t, "-N0001", id)

	snap, err := s.Fetch(ctx)
	require.NoError(t, err)
	rec, ok := snap.Get(id)
	require.True(t, ok)
	assert.Equal(t, remote.Record{Text: "hi", Username: "alice", Time: "16:00", Timestamp: 1710000000000}, rec)
}

func TestAppendRejected(t *testing.T) {
	db := newFakeDB()
	s := newStore(t, db)
	db.mu.Lock()
	db.reject = true
	db.mu.Unlock()

	_, err := s.Append(context.Background(), remote.Record{Text: "hi"})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Code)
}

func TestSubscribeStreamsSnapshots(t *testing.T) {
	db := newFakeDB()
	s := newStore(t, db)
	ctx := context.Background()
	_, err := s.Append(ctx, remote.Record{Text: "first", Username: "bob"})
	require.NoError(t, err)

	snaps := make(chan *remote.Snapshot, 16)
	sub, err := s.Subscribe(ctx, func(snap *remote.Snapshot) { snaps <- snap })
	require.NoError(t, err)

	initial := waitSnapshot(t, snaps)
	assert.Equal(t, 1, initial.Len())

	id, err := s.Append(ctx, remote.Record{Text: "second", Username: "alice"})
	require.NoError(t, err)
	next := waitSnapshot(t, snaps)
	msgs := next.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, id, msgs[1].ID)
	assert.Equal(t, "second", msgs[1].Text)

	db.send("keep-alive", "null")
	db.send("patch", fmt.Sprintf(`{"path":"/%s","data":{"text":"edited"}}`, id))
	patched := waitSnapshot(t, snaps)
	rec, _ := patched.Get(id)
	assert.Equal(t, "edited", rec.Text)
	assert.Equal(t, "alice", rec.Username)

	db.send("put", fmt.Sprintf(`{"path":"/%s","data":null}`, id))
	assert.Equal(t, 1, waitSnapshot(t, snaps).Len())

	sub.Unsubscribe()
	sub.Unsubscribe()
	assert.Eventually(t, func() bool { return db.streamCount() == 0 }, 3*time.Second, 10*time.Millisecond)
}

func TestSubscribeRejected(t *testing.T) {
	db := newFakeDB()
	db.reject = true
	s := newStore(t, db)

	_, err := s.Subscribe(context.Background(), func(*remote.Snapshot) {})
	assert.Error(t, err)
}

func TestServerCancelEndsSubscription(t *testing.T) {
	db := newFakeDB()
	s := newStore(t, db)

	snaps := make(chan *remote.Snapshot, 4)
	sub, err := s.Subscribe(context.Background(), func(snap *remote.Snapshot) { snaps <- snap })
	require.NoError(t, err)
	defer sub.Unsubscribe()
	waitSnapshot(t, snaps)

	db.send("cancel", `"rules changed"`)
	assert.Eventually(t, func() bool { return db.streamCount() == 0 }, 3*time.Second, 10*time.Millisecond)

	// No reconnect after a cancel.
	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, db.streamCount())
}

func TestNewRejectsRelativeURL(t *testing.T) {
	_, err := New(Config{URL: "example.firebaseio.com"}, nil)
	assert.Error(t, err)
}
