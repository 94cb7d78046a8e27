package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/matheus3301/huddle/internal/config"
	"github.com/matheus3301/huddle/internal/notify"
	"github.com/matheus3301/huddle/internal/remote/remotetest"
	"github.com/matheus3301/huddle/internal/session"
	"github.com/matheus3301/huddle/internal/status"
	intsync "github.com/matheus3301/huddle/internal/sync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestClientRoundTrip(t *testing.T) {
	store := remotetest.New()
	rec := notify.NewRecorder(notify.Granted)
	clock := quartz.NewMock(t)
	clock.Set(time.UnixMilli(1710000000000))

	c := New(Config{
		Store:      store,
		Dispatcher: rec,
		Strategy:   intsync.NotifyWatermark,
		SubmitMode: config.SubmitAwait,
		Clock:      clock,
		Location:   time.UTC,
	})
	defer c.Close()

	var drafts int
	defer c.OnChange(func(ch session.Change) {
		if ch == session.DraftChanged {
			drafts++
		}
	})()

	require.NoError(t, c.Start(context.Background()))
	assert.False(t, c.UsernameSet())
	assert.False(t, c.SetUsername("   "))
	assert.True(t, c.SetUsername(" alice "))
	assert.False(t, c.SetUsername("bob"))
	assert.Equal(t, "alice", c.Username())

	c.SetDraftText("hi")
	assert.Equal(t, "hi", c.Draft())
	require.NoError(t, c.Submit(context.Background()))
	assert.Equal(t, "", c.Draft())
	assert.Equal(t, 2, drafts)

	assert.Eventually(t, func() bool { return len(c.Messages()) == 1 }, 2*time.Second, 5*time.Millisecond)
	msg := c.Messages()[0]
	assert.Equal(t, "alice", msg.Username)
	assert.Equal(t, "hi", msg.Text)
	assert.Equal(t, "16:00", msg.Time)
	assert.Equal(t, status.Live, c.SyncState())

	assert.Eventually(t, func() bool { return len(rec.Sent()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "Mensagem de alice: hi", rec.Sent()[0].Body)
}

func TestClientSurvivesSubscribeFailure(t *testing.T) {
	store := remotetest.New()
	store.SubscribeErr = errors.New("offline")

	c := New(Config{Store: store, SubmitMode: config.SubmitFireAndForget})
	err := c.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, status.Degraded, c.SyncState())

	require.True(t, c.SetUsername("alice"))
	c.SetDraftText("still works")
	require.NoError(t, c.Submit(context.Background()))
	c.Close()
	c.Close()

	require.Len(t, store.Appended, 1)
	assert.Equal(t, "still works", store.Appended[0].Text)
}
