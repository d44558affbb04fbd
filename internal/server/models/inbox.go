package models

import "time"

// InboxEntry is a quick capture note. Entries are added and deleted, never
// updated.
type InboxEntry struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

func (e InboxEntry) Clone() InboxEntry { return e }
