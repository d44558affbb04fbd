package models

// Store is the whole persisted state. It is serialized as one JSON document.
type Store struct {
	Users   []User        `json:"users"`
	Tasks   []Task        `json:"tasks"`
	Ideas   []Idea        `json:"ideas"`
	Profits []ProfitEntry `json:"profits"`
	Inbox   []InboxEntry  `json:"inbox"`
	Reviews []Review      `json:"reviews"`
}

// NewStore returns an empty store with every collection allocated.
func NewStore() *Store {
	s := &Store{}
	s.Normalize()
	return s
}

// Normalize replaces nil collections with empty ones so the file always
// carries all six keys.
func (s *Store) Normalize() {
	if s.Users == nil {
		s.Users = []User{}
	}
	if s.Tasks == nil {
		s.Tasks = []Task{}
	}
	if s.Ideas == nil {
		s.Ideas = []Idea{}
	}
	if s.Profits == nil {
		s.Profits = []ProfitEntry{}
	}
	if s.Inbox == nil {
		s.Inbox = []InboxEntry{}
	}
	if s.Reviews == nil {
		s.Reviews = []Review{}
	}
}

// Clone returns a deep copy.
func (s *Store) Clone() *Store {
	return &Store{
		Users:   cloneAll(s.Users, User.Clone),
		Tasks:   cloneAll(s.Tasks, Task.Clone),
		Ideas:   cloneAll(s.Ideas, Idea.Clone),
		Profits: cloneAll(s.Profits, ProfitEntry.Clone),
		Inbox:   cloneAll(s.Inbox, InboxEntry.Clone),
		Reviews: cloneAll(s.Reviews, Review.Clone),
	}
}

// OwnedBy returns a deep copy holding only ownerID's records. Users are
// left out.
func (s *Store) OwnedBy(ownerID string) *Store {
	out := NewStore()
	for _, t := range s.Tasks {
		if t.OwnerID == ownerID {
			out.Tasks = append(out.Tasks, t.Clone())
		}
	}
	for _, i := range s.Ideas {
		if i.OwnerID == ownerID {
			out.Ideas = append(out.Ideas, i.Clone())
		}
	}
	for _, p := range s.Profits {
		if p.OwnerID == ownerID {
			out.Profits = append(out.Profits, p.Clone())
		}
	}
	for _, e := range s.Inbox {
		if e.OwnerID == ownerID {
			out.Inbox = append(out.Inbox, e.Clone())
		}
	}
	for _, r := range s.Reviews {
		if r.OwnerID == ownerID {
			out.Reviews = append(out.Reviews, r.Clone())
		}
	}
	return out
}

// CloneAll deep-copies a collection with the element's Clone method.
func CloneAll[T any](xs []T, clone func(T) T) []T {
	return cloneAll(xs, clone)
}

func cloneAll[T any](xs []T, clone func(T) T) []T {
	out := make([]T, len(xs))
	for i, x := range xs {
		out[i] = clone(x)
	}
	return out
}
