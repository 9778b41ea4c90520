package cart

import (
	"encoding/json"
	"fmt"
	"strings"
)

const formatVersion = 1

type persisted struct {
	Items   []Item `json:"items"`
	Version int    `json:"version"`
}

// Marshal encodes the item table in its persisted format.
func Marshal(items []Item) ([]byte, error) {
	if items == nil {
		items = []Item{}
	}
	data, err := json.Marshal(persisted{Items: items, Version: formatVersion})
	if err != nil {
		return nil, fmt.Errorf("marshal cart: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a persisted item table. The result is normalized: items without a product id
// are dropped, duplicates are merged and quantities are clamped to their ceilings.
func Unmarshal(data []byte) ([]Item, error) {
	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	items := make([]Item, 0, len(p.Items))
	index := make(map[string]int, len(p.Items))
	for _, it := range p.Items {
		it.ProductID = strings.TrimSpace(it.ProductID)
		if it.ProductID == "" {
			continue
		}
		it = it.normalized()
		if i, ok := index[it.ProductID]; ok {
			items[i].Quantity = clamp(items[i].Quantity+it.Quantity, items[i].MaxQuantity)
			continue
		}
		index[it.ProductID] = len(items)
		items = append(items, it)
	}
	return items, nil
}
