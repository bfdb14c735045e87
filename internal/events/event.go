// Package events carries live wishlist activity to WebSocket subscribers.
//
// Events are published by the core after a change has been committed.
// They identify what changed but never who reserved an item.
package events

import (
	"encoding/json"
	"time"
)

// Type names a kind of wishlist activity
type Type string

const (
	ItemCreated     Type = "item.created"
	ItemUpdated     Type = "item.updated"
	ItemDeleted     Type = "item.deleted"
	ItemReserved    Type = "item.reserved"
	ItemUnreserved  Type = "item.unreserved"
	WishlistUpdated Type = "wishlist.updated"
	WishlistDeleted Type = "wishlist.deleted"
)

// Event is one change to a wishlist
type Event struct {
	Type       Type      `json:"type"`
	WishlistID uint64    `json:"wishlist_id"`
	ItemID     uint64    `json:"item_id,omitempty"`
	At         time.Time `json:"at"`
}

// Encode serializes the event for the wire
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses an event produced by Encode
func Decode(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}
