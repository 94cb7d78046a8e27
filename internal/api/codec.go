package api

import (
	"errors"
	"fmt"

	"github.com/matheus3301/huddle/internal/remote"
	"google.golang.org/protobuf/types/known/structpb"
)

// RecordToStruct encodes a record with the same field names as its JSON form.
func RecordToStruct(r remote.Record) *structpb.Struct {
	return &structpb.Struct{Fields: recordFields(r)}
}

func recordFields(r remote.Record) map[string]*structpb.Value {
	return map[string]*structpb.Value{
		"text":      structpb.NewStringValue(r.Text),
		"username":  structpb.NewStringValue(r.Username),
		"time":      structpb.NewStringValue(r.Time),
		"timestamp": structpb.NewNumberValue(float64(r.Timestamp)),
	}
}

// StructToRecord decodes a record. Missing fields are left empty.
func StructToRecord(s *structpb.Struct) (remote.Record, error) {
	if s == nil {
		return remote.Record{}, errors.New("nil record")
	}
	f := s.GetFields()
	r := remote.Record{
		Text:      f["text"].GetStringValue(),
		Username:  f["username"].GetStringValue(),
		Time:      f["time"].GetStringValue(),
		Timestamp: int64(f["timestamp"].GetNumberValue()),
	}
	for _, k := range []string{"text", "username", "time"} {
		if v, ok := f[k]; ok {
			if _, isStr := v.GetKind().(*structpb.Value_StringValue); !isStr {
				return remote.Record{}, fmt.Errorf("field %s: want string", k)
			}
		}
	}
	return r, nil
}

// SnapshotToStruct encodes snap as {"messages": [{id, text, ...}, ...]}
// keeping enumeration order.
func SnapshotToStruct(snap *remote.Snapshot) *structpb.Struct {
	msgs := snap.Messages()
	list := make([]*structpb.Value, 0, len(msgs))
	for _, m := range msgs {
		fields := recordFields(m.Record)
		fields["id"] = structpb.NewStringValue(m.ID)
		list = append(list, structpb.NewStructValue(&structpb.Struct{Fields: fields}))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"messages": structpb.NewListValue(&structpb.ListValue{Values: list}),
	}}
}

// StructToSnapshot decodes the form produced by SnapshotToStruct.
func StructToSnapshot(s *structpb.Struct) (*remote.Snapshot, error) {
	snap := remote.NewSnapshot()
	for i, v := range s.GetFields()["messages"].GetListValue().GetValues() {
		item := v.GetStructValue()
		id := item.GetFields()["id"].GetStringValue()
		if id == "" {
			return nil, fmt.Errorf("message %d: missing id", i)
		}
		r, err := StructToRecord(item)
		if err != nil {
			return nil, fmt.Errorf("message %s: %w", id, err)
		}
		snap.Put(id, r)
	}
	return snap, nil
}
