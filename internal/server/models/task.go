package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in-progress"
	TaskDone       TaskStatus = "done"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskDone:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Rank orders priorities high > medium > low; anything else ranks 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// ChecklistItem is one step of a task. Older files may hold bare strings,
// which decode as unchecked items.
type ChecklistItem struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

func (c *ChecklistItem) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		c.Done = false
		return json.Unmarshal(b, &c.Text)
	}
	type plain ChecklistItem
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*c = ChecklistItem(p)
	return nil
}

type Task struct {
	ID               string          `json:"id"`
	OwnerID          string          `json:"ownerId"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	DueDate          *string         `json:"dueDate"`
	Status           TaskStatus      `json:"status"`
	Priority         Priority        `json:"priority"`
	Category         string          `json:"category"`
	Tags             []string        `json:"tags"`
	EstimatedMinutes *int            `json:"estimatedMinutes"`
	Checklist        []ChecklistItem `json:"checklist"`
	Note             string          `json:"note,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// Due returns the due date, or "" when the task has none.
func (t Task) Due() string {
	if t.DueDate == nil {
		return ""
	}
	return *t.DueDate
}

func (t Task) Clone() Task {
	c := t
	c.DueDate = clonePtr(t.DueDate)
	c.EstimatedMinutes = clonePtr(t.EstimatedMinutes)
	c.Tags = cloneSlice(t.Tags)
	c.Checklist = cloneSlice(t.Checklist)
	return c
}

// TaskPatch is a partial update. ID, OwnerID and CreatedAt are not patchable.
type TaskPatch struct {
	Title            Field[string]
	Description      Field[string]
	DueDate          Field[string]
	Status           Field[TaskStatus]
	Priority         Field[Priority]
	Category         Field[string]
	Tags             Field[[]string]
	EstimatedMinutes Field[int]
	Checklist        Field[[]ChecklistItem]
	Note             Field[string]
}

// Apply merges p over t. UpdatedAt is the caller's job.
func (p TaskPatch) Apply(t *Task) {
	applyValue(&t.Title, p.Title)
	applyValue(&t.Description, p.Description)
	applyPtr(&t.DueDate, p.DueDate)
	applyValue(&t.Status, p.Status)
	applyValue(&t.Priority, p.Priority)
	applyValue(&t.Category, p.Category)
	applySlice(&t.Tags, p.Tags)
	applyPtr(&t.EstimatedMinutes, p.EstimatedMinutes)
	applySlice(&t.Checklist, p.Checklist)
	applyValue(&t.Note, p.Note)
}

// NormalizeTags trims tags, drops empty ones and duplicates, and keeps the
// first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// SplitTags parses a comma separated tag list.
func SplitTags(s string) []string {
	return NormalizeTags(strings.Split(s, ","))
}
