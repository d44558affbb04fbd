package models

import "time"

// Review is the daily retrospective, unique per (OwnerID, Date).
type Review struct {
	OwnerID   string    `json:"ownerId"`
	Date      string    `json:"date"`
	Highlight string    `json:"highlight"`
	Lessons   string    `json:"lessons"`
	Blockers  string    `json:"blockers"`
	Mood      string    `json:"mood"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r Review) Clone() Review { return r }

// Merge copies the content fields of next over r. Identity and CreatedAt
// stay as they were.
func (r *Review) Merge(next Review) {
	r.Highlight = next.Highlight
	r.Lessons = next.Lessons
	r.Blockers = next.Blockers
	r.Mood = next.Mood
}
