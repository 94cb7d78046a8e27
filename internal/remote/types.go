package remote

import (
	"time"

	"github.com/elliotchance/orderedmap/v3"
)

// Record is the stored body of a message. The id is the collection key and is
// never part of the record itself.
type Record struct {
	Text      string `json:"text"`
	Username  string `json:"username"`
	Time      string `json:"time"`
	Timestamp int64  `json:"timestamp"`
}

// Message pairs a store-assigned id with its record.
type Message struct {
	ID string `json:"id"`
	Record
}

// Snapshot is a full point-in-time copy of the messages collection, keyed by
// id in the order the store enumerates them. A nil *Snapshot is an empty
// collection.
type Snapshot struct {
	entries *orderedmap.OrderedMap[string, Record]
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{entries: orderedmap.NewOrderedMap[string, Record]()}
}

// SnapshotOf builds a snapshot from messages, keeping their order.
func SnapshotOf(msgs ...Message) *Snapshot {
	s := NewSnapshot()
	for _, m := range msgs {
		s.Put(m.ID, m.Record)
	}
	return s
}

// Put sets the record for id. A new id goes to the end; an existing id keeps
// its position.
func (s *Snapshot) Put(id string, r Record) {
	s.entries.Set(id, r)
}

// Delete removes id from the snapshot.
func (s *Snapshot) Delete(id string) {
	s.entries.Delete(id)
}

// Get returns the record stored under id.
func (s *Snapshot) Get(id string) (Record, bool) {
	if s == nil {
		return Record{}, false
	}
	return s.entries.Get(id)
}

// Len returns the number of records.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return s.entries.Len()
}

// Messages maps the snapshot into an ordered message list.
func (s *Snapshot) Messages() []Message {
	if s.Len() == 0 {
		return []Message{}
	}
	out := make([]Message, 0, s.entries.Len())
	for el := s.entries.Front(); el != nil; el = el.Next() {
		out = append(out, Message{ID: el.Key, Record: el.Value})
	}
	return out
}

// Clone returns an independent copy.
func (s *Snapshot) Clone() *Snapshot {
	c := NewSnapshot()
	if s == nil {
		return c
	}
	for el := s.entries.Front(); el != nil; el = el.Next() {
		c.entries.Set(el.Key, el.Value)
	}
	return c
}

// FormatTime renders a millisecond timestamp as zero-padded 24-hour HH:MM in loc.
func FormatTime(timestamp int64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(timestamp).In(loc).Format("15:04")
}
