package sync

import (
	"testing"

	"github.com/matheus3301/huddle/internal/remote"
)

func snap(ids ...string) *remote.Snapshot {
	s := remote.NewSnapshot()
	for _, id := range ids {
		s.Put(id, remote.Record{Text: "text-" + id, Username: "user-" + id})
	}
	return s
}

func TestReconcileOrderMatchesEnumeration(t *testing.T) {
	r := NewReconciler(NotifyWatermark, false)
	res := r.Reconcile(snap("k9", "k2", "k5"))

	want := []string{"k9", "k2", "k5"}
	if len(res.Messages) != len(want) {
		t.Fatalf("got %d messages, want %d", len(res.Messages), len(want))
	}
	for i, id := range want {
		if res.Messages[i].ID != id {
			t.Errorf("messages[%d].ID = %q, want %q", i, res.Messages[i].ID, id)
		}
	}
}

func TestReconcileWatermark(t *testing.T) {
	tests := []struct {
		name          string
		notifyInitial bool
		snapshots     []*remote.Snapshot
		wantNotify    []string // "" = no notification
		wantFresh     []int
	}{
		{
			name:       "initial backlog seeds silently",
			snapshots:  []*remote.Snapshot{snap("a", "b"), snap("a", "b", "c")},
			wantNotify: []string{"", "c"},
			wantFresh:  []int{2, 1},
		},
		{
			name:          "initial backlog notifies when asked",
			notifyInitial: true,
			snapshots:     []*remote.Snapshot{snap("a", "b")},
			wantNotify:    []string{"b"},
			wantFresh:     []int{2},
		},
		{
			name:       "duplicate snapshot notifies once",
			snapshots:  []*remote.Snapshot{nil, snap("a"), snap("a")},
			wantNotify: []string{"", "a", ""},
			wantFresh:  []int{0, 1, 0},
		},
		{
			name:       "several arrivals in one snapshot",
			snapshots:  []*remote.Snapshot{snap("a"), snap("a", "b", "c", "d")},
			wantNotify: []string{"", "d"},
			wantFresh:  []int{1, 3},
		},
		{
			name:       "watermark missing from snapshot",
			snapshots:  []*remote.Snapshot{snap("a"), snap("x", "y")},
			wantNotify: []string{"", "y"},
			wantFresh:  []int{1, 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReconciler(NotifyWatermark, tt.notifyInitial)
			for i, s := range tt.snapshots {
				res := r.Reconcile(s)
				got := ""
				if res.Notify != nil {
					got = res.Notify.ID
				}
				if got != tt.wantNotify[i] {
					t.Errorf("snapshot %d: notify = %q, want %q", i, got, tt.wantNotify[i])
				}
				if len(res.Fresh) != tt.wantFresh[i] {
					t.Errorf("snapshot %d: fresh = %d, want %d", i, len(res.Fresh), tt.wantFresh[i])
				}
			}
		})
	}
}

func TestReconcileLastNotifiesEverySnapshot(t *testing.T) {
	r := NewReconciler(NotifyLast, false)

	for i := 0; i < 2; i++ {
		res := r.Reconcile(snap("a", "b"))
		if res.Notify == nil || res.Notify.ID != "b" {
			t.Fatalf("snapshot %d: notify = %v, want b", i, res.Notify)
		}
		if res.Notify.Username != "user-b" || res.Notify.Text != "text-b" {
			t.Errorf("notify record = %+v", res.Notify.Record)
		}
	}

	if res := r.Reconcile(nil); res.Notify != nil {
		t.Errorf("empty snapshot notified about %q", res.Notify.ID)
	}
}

func TestUnknownStrategyFallsBackToWatermark(t *testing.T) {
	r := NewReconciler("bogus", false)
	if res := r.Reconcile(snap("a")); res.Notify != nil {
		t.Error("unknown strategy notified on initial snapshot")
	}
}
