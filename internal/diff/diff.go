// Package diff compares a candidate import payload against the previously
// imported snapshot to decide whether a downstream write is required.
package diff

import (
	"encoding/json"
	"reflect"
)

// Change records one field whose value differs between snapshots.
type Change struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Compute returns a forward diff of newRec against oldRec: only keys
// present in newRec are considered, and keys present only in oldRec are
// ignored. A nil or empty oldRec reports every key of newRec as changed
// with a nil old value. Equality is deep structural comparison. An empty
// result means no write is required.
func Compute(newRec, oldRec map[string]any) map[string]Change {
	changes := make(map[string]Change)

	if len(oldRec) == 0 {
		for key, value := range newRec {
			changes[key] = Change{Old: nil, New: value}
		}
		return changes
	}

	for key, value := range newRec {
		old, ok := oldRec[key]
		if !ok {
			changes[key] = Change{Old: nil, New: value}
			continue
		}
		if !reflect.DeepEqual(old, value) {
			changes[key] = Change{Old: old, New: value}
		}
	}

	return changes
}

// Normalize round-trips a payload through JSON encoding so that a freshly
// built payload and one reloaded from the persisted snapshot compare as
// structurally equal (numbers become float64, slices become []any). A
// payload that fails to round-trip is returned unchanged.
func Normalize(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return payload
	}

	var normalized map[string]any
	if err := json.Unmarshal(data, &normalized); err != nil {
		return payload
	}

	return normalized
}
