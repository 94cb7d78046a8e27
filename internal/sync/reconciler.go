package sync

import "github.com/matheus3301/huddle/internal/remote"

// Strategy decides which snapshots raise a live notification.
type Strategy string

const (
	// NotifyLast notifies about the last message of every non-empty snapshot,
	// including the backlog delivered on first subscription.
	NotifyLast Strategy = "last"
	// NotifyWatermark notifies only when the last message id differs from the
	// one seen in the previous snapshot.
	NotifyWatermark Strategy = "watermark"
)

// Reconciler turns snapshots into ordered message lists and decides whether
// the newest one is worth a notification. It is not safe for concurrent use;
// the engine calls it from its dispatch goroutine only.
type Reconciler struct {
	strategy      Strategy
	notifyInitial bool

	seeded    bool
	watermark string
}

// Result is the outcome of reconciling one snapshot.
type Result struct {
	// Messages is the full ordered list that replaces the session's list.
	Messages []remote.Message
	// Fresh holds the trailing messages not seen in the previous snapshot.
	Fresh []remote.Message
	// Notify is the message to notify about, nil when nothing should be shown.
	Notify *remote.Message
}

// NewReconciler creates a reconciler. An unknown strategy falls back to
// NotifyWatermark. notifyInitial only affects NotifyWatermark.
func NewReconciler(strategy Strategy, notifyInitial bool) *Reconciler {
	if strategy != NotifyLast {
		strategy = NotifyWatermark
	}
	return &Reconciler{strategy: strategy, notifyInitial: notifyInitial}
}

// Reconcile maps snap into a message list in store enumeration order.
func (r *Reconciler) Reconcile(snap *remote.Snapshot) Result {
	msgs := snap.Messages()
	res := Result{Messages: msgs}

	initial := !r.seeded
	r.seeded = true
	if len(msgs) == 0 {
		return res
	}
	last := msgs[len(msgs)-1]

	if r.strategy == NotifyLast {
		res.Fresh = msgs[len(msgs)-1:]
		res.Notify = &last
		return res
	}

	if last.ID == r.watermark {
		return res
	}
	res.Fresh = trailingAfter(msgs, r.watermark)
	r.watermark = last.ID
	if initial && !r.notifyInitial {
		return res
	}
	res.Notify = &last
	return res
}

// Watermark returns the id of the last message seen.
func (r *Reconciler) Watermark() string {
	return r.watermark
}

// trailingAfter returns the messages following id. When id is not present the
// whole list is considered new.
func trailingAfter(msgs []remote.Message, id string) []remote.Message {
	if id == "" {
		return msgs
	}
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].ID == id {
			return msgs[i+1:]
		}
	}
	return msgs
}
