package api

import (
	"testing"

	"github.com/matheus3301/huddle/internal/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestSnapshotStructKeepsOrderAndFields(t *testing.T) {
	snap := remote.NewSnapshot()
	snap.Put("k2", remote.Record{Text: "b", Username: "bob", Time: "09:05", Timestamp: 1710000000000})
	snap.Put("k1", remote.Record{Text: "a", Username: "alice", Time: "09:04", Timestamp: 1709999940000})

	back, err := StructToSnapshot(SnapshotToStruct(snap))
	require.NoError(t, err)
	assert.Equal(t, snap.Messages(), back.Messages())
}

func TestStructToRecordRejectsWrongTypes(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{"text": 42.0})
	require.NoError(t, err)
	_, err = StructToRecord(s)
	assert.Error(t, err)

	_, err = StructToRecord(nil)
	assert.Error(t, err)
}

func TestStructToSnapshotRequiresID(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{
		"messages": []any{map[string]any{"text": "x"}},
	})
	require.NoError(t, err)
	_, err = StructToSnapshot(s)
	assert.Error(t, err)
}

func TestEmptySnapshotStruct(t *testing.T) {
	snap, err := StructToSnapshot(&structpb.Struct{})
	require.NoError(t, err)
	assert.Zero(t, snap.Len())
}
