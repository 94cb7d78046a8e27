package rtdb

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/matheus3301/huddle/internal/remote"
)

// decodeCollection decodes a collection object keeping its key order. A JSON
// null is an empty collection.
func decodeCollection(raw []byte) (*remote.Snapshot, error) {
	snap := remote.NewSnapshot()
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return snap, nil
	}
	err := eachChild(raw, func(key string, val json.RawMessage) error {
		if isNull(val) {
			return nil
		}
		var r remote.Record
		if err := json.Unmarshal(val, &r); err != nil {
			return fmt.Errorf("record %s: %w", key, err)
		}
		snap.Put(key, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// eachChild walks the members of a JSON object in document order.
func eachChild(raw []byte, fn func(key string, val json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected key, got %v", tok)
		}
		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return err
		}
		if err := fn(key, val); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
