package apifilter

import (
	"encoding/json"
	"fmt"
)

// Project reduces each item to the requested JSON keys plus "id". With no
// fields the items are returned as maps unchanged.
func Project[T any](items []T, fields []string) ([]map[string]any, error) {
	keep := map[string]bool{"id": true}
	for _, f := range fields {
		keep[f] = true
	}

	out := make([]map[string]any, 0, len(items))
	for i := range items {
		raw, err := json.Marshal(items[i])
		if err != nil {
			return nil, fmt.Errorf("failed to encode item: %w", err)
		}
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("failed to decode item: %w", err)
		}
		if len(fields) > 0 {
			for k := range m {
				if !keep[k] {
					delete(m, k)
				}
			}
		}
		out = append(out, m)
	}
	return out, nil
}
