package models

import "time"

type IdeaStatus string

const (
	IdeaIncubating IdeaStatus = "incubating"
	IdeaActive     IdeaStatus = "active"
	IdeaArchived   IdeaStatus = "archived"
)

func (s IdeaStatus) Valid() bool {
	switch s {
	case IdeaIncubating, IdeaActive, IdeaArchived:
		return true
	}
	return false
}

type Idea struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"ownerId"`
	Title      string     `json:"title"`
	Detail     string     `json:"detail"`
	Tags       []string   `json:"tags"`
	Status     IdeaStatus `json:"status"`
	Impact     *int       `json:"impact"`
	Confidence *int       `json:"confidence"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (i Idea) Clone() Idea {
	c := i
	c.Tags = cloneSlice(i.Tags)
	c.Impact = clonePtr(i.Impact)
	c.Confidence = clonePtr(i.Confidence)
	return c
}

type IdeaPatch struct {
	Title      Field[string]
	Detail     Field[string]
	Tags       Field[[]string]
	Status     Field[IdeaStatus]
	Impact     Field[int]
	Confidence Field[int]
}

func (p IdeaPatch) Apply(i *Idea) {
	applyValue(&i.Title, p.Title)
	applyValue(&i.Detail, p.Detail)
	applySlice(&i.Tags, p.Tags)
	applyValue(&i.Status, p.Status)
	applyPtr(&i.Impact, p.Impact)
	applyPtr(&i.Confidence, p.Confidence)
}
