package cart

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Adjust directions accepted by Cart.Adjust.
const (
	ActionIncrease = "increase"
	ActionDecrease = "decrease"
)

// schemaVersion is the current on-cookie cart document version.
// Version 0 (no envelope) was a bare JSON array of product ids.
const schemaVersion = 1

// Cart is the session-held mapping from product id (decimal string) to
// purchase quantity. Quantities are always positive: a decrement that would
// reach zero removes the entry instead.
type Cart struct {
	items map[string]int
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{items: make(map[string]int)}
}

// Add increments the quantity for productID by one, creating the entry at 1.
func (c *Cart) Add(productID uint) {
	c.items[key(productID)] += 1
}

// Adjust applies an increase or decrease action to the entry for productID.
// Decreasing a quantity of 1 removes the entry entirely; a quantity is never
// stored as 0. Unknown actions are rejected.
func (c *Cart) Adjust(productID uint, action string) error {
	k := key(productID)
	switch action {
	case ActionIncrease:
		c.items[k] += 1
	case ActionDecrease:
		if c.items[k] <= 1 {
			delete(c.items, k)
		} else {
			c.items[k] -= 1
		}
	default:
		return fmt.Errorf("unknown cart action %q", action)
	}
	return nil
}

// Clear removes every entry.
func (c *Cart) Clear() {
	c.items = make(map[string]int)
}

// IsEmpty reports whether the cart holds no entries.
func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// Count returns the total number of units across all entries.
func (c *Cart) Count() int {
	n := 0
	for _, q := range c.items {
		n += q
	}
	return n
}

// Quantity returns the quantity held for productID, zero if absent.
func (c *Cart) Quantity(productID uint) int {
	return c.items[key(productID)]
}

// ProductIDs returns the distinct product ids present in the cart.
func (c *Cart) ProductIDs() []uint {
	ids := make([]uint, 0, len(c.items))
	for k := range c.items {
		id, err := strconv.ParseUint(k, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids
}

// envelope is the versioned document persisted in the session cookie.
type envelope struct {
	Version int            `json:"v"`
	Items   map[string]int `json:"items"`
}

// Encode serializes the cart for session storage.
func (c *Cart) Encode() (string, error) {
	b, err := json.Marshal(envelope{Version: schemaVersion, Items: c.items})
	if err != nil {
		return "", fmt.Errorf("failed to encode cart: %w", err)
	}
	return string(b), nil
}

// Decode restores a cart from its session representation. An empty payload
// yields an empty cart. A legacy payload (a bare JSON array of product ids,
// one element per unit) is upgraded by counting occurrences; entries with
// quantity <= 0 in a versioned payload are dropped on read.
func Decode(raw string) (*Cart, error) {
	c := New()
	if raw == "" {
		return c, nil
	}

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err == nil && env.Items != nil {
		for k, q := range env.Items {
			if q > 0 {
				c.items[k] = q
			}
		}
		return c, nil
	}

	// Legacy shape: the cart was once stored as a sequence of product ids,
	// one element per unit, as either numbers or decimal strings.
	var legacy []any
	if err := json.Unmarshal([]byte(raw), &legacy); err == nil {
		for _, v := range legacy {
			switch id := v.(type) {
			case string:
				c.items[id] += 1
			case float64:
				c.items[strconv.FormatInt(int64(id), 10)] += 1
			}
		}
		return c, nil
	}

	return nil, fmt.Errorf("unrecognized cart payload %q", raw)
}

func key(productID uint) string {
	return strconv.FormatUint(uint64(productID), 10)
}
