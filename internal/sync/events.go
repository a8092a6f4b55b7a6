package sync

import (
	"time"

	"family-meal-planner/internal/shopping"
)

const ShoppingUpdate = "shopping.update"

// ListEvent carries a freshly rebuilt shopping list to connected clients.
type ListEvent struct {
	Type      string              `json:"type"`
	Items     []shopping.ShopItem `json:"items"`
	Remaining int                 `json:"remaining"`
	At        time.Time           `json:"at"`
}

// NewListEvent wraps items in a shopping.update event.
func NewListEvent(items []shopping.ShopItem) ListEvent {
	remaining := 0
	for _, it := range items {
		if !it.Checked {
			remaining++
		}
	}
	return ListEvent{
		Type:      ShoppingUpdate,
		Items:     items,
		Remaining: remaining,
		At:        time.Now().UTC(),
	}
}

// Forward subscribes the hub to live list updates. The returned func stops it.
func Forward(live *shopping.LiveList, hub *Hub) func() {
	return live.Subscribe(func(items []shopping.ShopItem) {
		hub.BroadcastJSON(NewListEvent(items))
	})
}
