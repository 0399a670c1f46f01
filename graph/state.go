package graph

import (
	"encoding/json"
	"fmt"
)

// deepCopy returns an independent copy of state via a JSON round trip.
//
// Each node runs on such a copy, so a node that outlives its deadline or
// mutates slices in place can never reach the engine's state. Only
// exported, JSON-marshalable fields survive the copy; state types must
// be plain data.
func deepCopy[S any](state S) (S, error) {
	var copied S

	data, err := json.Marshal(state)
	if err != nil {
		return copied, fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := json.Unmarshal(data, &copied); err != nil {
		return copied, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return copied, nil
}
