package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/sitetag/internal/ir"
)

// marshalStates converts a tag→state map to canonical JSON TEXT.
func marshalStates(states map[string]string) (string, error) {
	if states == nil {
		states = map[string]string{}
	}
	data, err := ir.MarshalCanonical(states)
	if err != nil {
		return "", fmt.Errorf("marshal states: %w", err)
	}
	return string(data), nil
}

// marshalStrings converts a string list to canonical JSON TEXT.
// Order is preserved; callers pass already-sorted lists.
func marshalStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := ir.MarshalCanonical(values)
	if err != nil {
		return "", fmt.Errorf("marshal list: %w", err)
	}
	return string(data), nil
}

func marshalPlacements(keys []ir.PlacementKey) (string, error) {
	values := make([]string, len(keys))
	for i, k := range keys {
		values[i] = string(k)
	}
	return marshalStrings(values)
}

func unmarshalStates(data string) (map[string]string, error) {
	states := map[string]string{}
	if data == "" {
		return states, nil
	}
	if err := json.Unmarshal([]byte(data), &states); err != nil {
		return nil, fmt.Errorf("unmarshal states: %w", err)
	}
	return states, nil
}

func unmarshalStrings(data string) ([]string, error) {
	values := []string{}
	if data == "" {
		return values, nil
	}
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, fmt.Errorf("unmarshal list: %w", err)
	}
	return values, nil
}

func unmarshalPlacements(data string) ([]ir.PlacementKey, error) {
	values, err := unmarshalStrings(data)
	if err != nil {
		return nil, err
	}
	keys := make([]ir.PlacementKey, len(values))
	for i, v := range values {
		keys[i] = ir.PlacementKey(v)
	}
	return keys, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
