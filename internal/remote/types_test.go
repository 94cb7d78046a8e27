package remote

import (
	"testing"
	"time"
)

func TestSnapshotMessagesKeepsEnumerationOrder(t *testing.T) {
	s := NewSnapshot()
	s.Put("k3", Record{Text: "first", Timestamp: 300})
	s.Put("k1", Record{Text: "second", Timestamp: 100})
	s.Put("k2", Record{Text: "third", Timestamp: 200})

	msgs := s.Messages()
	want := []string{"k3", "k1", "k2"}
	if len(msgs) != len(want) {
		t.Fatalf("got %d messages, want %d", len(msgs), len(want))
	}
	for i, id := range want {
		if msgs[i].ID != id {
			t.Errorf("messages[%d].ID = %q, want %q", i, msgs[i].ID, id)
		}
	}
}

func TestSnapshotPutExistingKeepsPosition(t *testing.T) {
	s := SnapshotOf(
		Message{ID: "a", Record: Record{Text: "one"}},
		Message{ID: "b", Record: Record{Text: "two"}},
	)
	s.Put("a", Record{Text: "uno"})

	msgs := s.Messages()
	if msgs[0].ID != "a" || msgs[0].Text != "uno" {
		t.Errorf("messages[0] = %+v, want a/uno", msgs[0])
	}
}

func TestNilSnapshotIsEmpty(t *testing.T) {
	var s *Snapshot
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
	if msgs := s.Messages(); msgs == nil || len(msgs) != 0 {
		t.Errorf("Messages() = %v, want empty non-nil slice", msgs)
	}
	if _, ok := s.Get("x"); ok {
		t.Error("Get on nil snapshot reported ok")
	}
	if s.Clone().Len() != 0 {
		t.Error("Clone of nil snapshot not empty")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := SnapshotOf(Message{ID: "a"})
	c := s.Clone()
	c.Put("b", Record{})
	if s.Len() != 1 {
		t.Errorf("original Len() = %d, want 1", s.Len())
	}
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		name string
		ts   int64
		loc  *time.Location
		want string
	}{
		{"utc", 1710000000000, time.UTC, "16:00"},
		{"offset zone", 1710000000000, time.FixedZone("BRT", -3*3600), "13:00"},
		{"zero padded", time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC).UnixMilli(), time.UTC, "03:04"},
		{"midnight", time.Date(2024, 1, 2, 0, 0, 59, 0, time.UTC).UnixMilli(), time.UTC, "00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTime(tt.ts, tt.loc); got != tt.want {
				t.Errorf("FormatTime(%d) = %q, want %q", tt.ts, got, tt.want)
			}
		})
	}
}

func TestSubscriptionUnsubscribeRunsOnce(t *testing.T) {
	calls := 0
	sub := NewSubscription(func() { calls++ })
	sub.Unsubscribe()
	sub.Unsubscribe()
	if calls != 1 {
		t.Errorf("teardown ran %d times, want 1", calls)
	}

	NewSubscription(nil).Unsubscribe()
}
