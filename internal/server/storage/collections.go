package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/dailyops/internal/common"
	"github.com/dmitrijs2005/dailyops/internal/server/models"
	"github.com/google/uuid"
)

// collection describes how the generic helpers reach one record type.
type collection[T any] struct {
	name  string
	items func(s *models.Store) *[]T
	id    func(r *T) *string
	clone func(r T) T
	// updated is nil for append-only records.
	created func(r *T) *time.Time
	updated func(r *T) *time.Time
}

var (
	usersColl = collection[models.User]{
		name:    "users",
		items:   func(s *models.Store) *[]models.User { return &s.Users },
		id:      func(r *models.User) *string { return &r.ID },
		clone:   models.User.Clone,
		created: func(r *models.User) *time.Time { return &r.CreatedAt },
	}
	tasksColl = collection[models.Task]{
		name:    "tasks",
		items:   func(s *models.Store) *[]models.Task { return &s.Tasks },
		id:      func(r *models.Task) *string { return &r.ID },
		clone:   models.Task.Clone,
		created: func(r *models.Task) *time.Time { return &r.CreatedAt },
		updated: func(r *models.Task) *time.Time { return &r.UpdatedAt },
	}
	ideasColl = collection[models.Idea]{
		name:    "ideas",
		items:   func(s *models.Store) *[]models.Idea { return &s.Ideas },
		id:      func(r *models.Idea) *string { return &r.ID },
		clone:   models.Idea.Clone,
		created: func(r *models.Idea) *time.Time { return &r.CreatedAt },
		updated: func(r *models.Idea) *time.Time { return &r.UpdatedAt },
	}
	profitsColl = collection[models.ProfitEntry]{
		name:    "profits",
		items:   func(s *models.Store) *[]models.ProfitEntry { return &s.Profits },
		id:      func(r *models.ProfitEntry) *string { return &r.ID },
		clone:   models.ProfitEntry.Clone,
		created: func(r *models.ProfitEntry) *time.Time { return &r.CreatedAt },
		updated: func(r *models.ProfitEntry) *time.Time { return &r.UpdatedAt },
	}
	inboxColl = collection[models.InboxEntry]{
		name:    "inbox",
		items:   func(s *models.Store) *[]models.InboxEntry { return &s.Inbox },
		id:      func(r *models.InboxEntry) *string { return &r.ID },
		clone:   models.InboxEntry.Clone,
		created: func(r *models.InboxEntry) *time.Time { return &r.CreatedAt },
	}
)

func indexByID[T any](c collection[T], xs []T, id string) int {
	for i := range xs {
		if *c.id(&xs[i]) == id {
			return i
		}
	}
	return -1
}

func list[T any](e *Engine, c collection[T]) []T {
	e.mu.Lock()
	defer e.mu.Unlock()
	return models.CloneAll(*c.items(e.store), c.clone)
}

func get[T any](e *Engine, c collection[T], id string) (T, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	xs := *c.items(e.store)
	if i := indexByID(c, xs, id); i >= 0 {
		return c.clone(xs[i]), nil
	}
	var zero T
	return zero, fmt.Errorf("%s %q: %w", c.name, id, common.ErrNotFound)
}

// add assigns an id when empty, fills missing timestamps and appends. The
// stored record is returned even when persisting fails, since it stays
// visible in memory.
func add[T any](ctx context.Context, e *Engine, c collection[T], rec T, check func(s *models.Store, rec *T) error) (T, error) {
	var stored T
	err := e.mutate(ctx, "add "+c.name, func(s *models.Store) error {
		r := c.clone(rec)
		id := c.id(&r)
		if *id == "" {
			*id = uuid.NewString()
		}
		if indexByID(c, *c.items(s), *id) >= 0 {
			return fmt.Errorf("%s %q: %w", c.name, *id, common.ErrAlreadyExists)
		}
		if check != nil {
			if err := check(s, &r); err != nil {
				return err
			}
		}
		if created := c.created(&r); created.IsZero() {
			*created = e.stamp(time.Time{})
		}
		if c.updated != nil {
			if updated := c.updated(&r); updated.IsZero() {
				*updated = *c.created(&r)
			}
		}
		*c.items(s) = append(*c.items(s), r)
		stored = c.clone(r)
		return nil
	})
	return stored, err
}

// update shallow-merges patch over the record and refreshes updatedAt.
func update[T any, P interface{ Apply(*T) }](ctx context.Context, e *Engine, c collection[T], id string, patch P) (T, error) {
	var merged T
	err := e.mutate(ctx, "update "+c.name, func(s *models.Store) error {
		xs := *c.items(s)
		i := indexByID(c, xs, id)
		if i < 0 {
			return fmt.Errorf("%s %q: %w", c.name, id, common.ErrNotFound)
		}
		r := c.clone(xs[i])
		patch.Apply(&r)
		*c.updated(&r) = e.stamp(*c.updated(&r))
		xs[i] = r
		merged = c.clone(r)
		return nil
	})
	return merged, err
}

func remove[T any](ctx context.Context, e *Engine, c collection[T], id string) error {
	return e.mutate(ctx, "remove "+c.name, func(s *models.Store) error {
		xs := c.items(s)
		i := indexByID(c, *xs, id)
		if i < 0 {
			return fmt.Errorf("%s %q: %w", c.name, id, common.ErrNotFound)
		}
		*xs = append((*xs)[:i], (*xs)[i+1:]...)
		return nil
	})
}

// Users

func (e *Engine) ListUsers() []models.User { return list(e, usersColl) }

func (e *Engine) GetUserByID(id string) (models.User, error) { return get(e, usersColl, id) }

// GetUserByUsername matches usernames case-insensitively.
func (e *Engine) GetUserByUsername(username string) (models.User, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, u := range e.store.Users {
		if strings.EqualFold(u.Username, username) {
			return u.Clone(), nil
		}
	}
	return models.User{}, fmt.Errorf("user %q: %w", username, common.ErrNotFound)
}

func (e *Engine) UserCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.store.Users)
}

// AddUser rejects a username that is already taken (case-insensitively)
// with common.ErrAlreadyExists.
func (e *Engine) AddUser(ctx context.Context, u models.User) (models.User, error) {
	return add(ctx, e, usersColl, u, func(s *models.Store, u *models.User) error {
		for _, existing := range s.Users {
			if strings.EqualFold(existing.Username, u.Username) {
				return fmt.Errorf("username %q: %w", u.Username, common.ErrAlreadyExists)
			}
		}
		return nil
	})
}

// Tasks

func (e *Engine) ListTasks() []models.Task { return list(e, tasksColl) }

func (e *Engine) GetTask(id string) (models.Task, error) { return get(e, tasksColl, id) }

func (e *Engine) AddTask(ctx context.Context, t models.Task) (models.Task, error) {
	return add(ctx, e, tasksColl, t, nil)
}

func (e *Engine) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error) {
	return update(ctx, e, tasksColl, id, patch)
}

func (e *Engine) RemoveTask(ctx context.Context, id string) error {
	return remove(ctx, e, tasksColl, id)
}

// Ideas

func (e *Engine) ListIdeas() []models.Idea { return list(e, ideasColl) }

func (e *Engine) GetIdea(id string) (models.Idea, error) { return get(e, ideasColl, id) }

func (e *Engine) AddIdea(ctx context.Context, i models.Idea) (models.Idea, error) {
	return add(ctx, e, ideasColl, i, nil)
}

func (e *Engine) UpdateIdea(ctx context.Context, id string, patch models.IdeaPatch) (models.Idea, error) {
	return update(ctx, e, ideasColl, id, patch)
}

func (e *Engine) RemoveIdea(ctx context.Context, id string) error {
	return remove(ctx, e, ideasColl, id)
}

// Profits

func (e *Engine) ListProfits() []models.ProfitEntry { return list(e, profitsColl) }

func (e *Engine) GetProfit(id string) (models.ProfitEntry, error) { return get(e, profitsColl, id) }

func (e *Engine) AddProfit(ctx context.Context, p models.ProfitEntry) (models.ProfitEntry, error) {
	return add(ctx, e, profitsColl, p, nil)
}

func (e *Engine) UpdateProfit(ctx context.Context, id string, patch models.ProfitPatch) (models.ProfitEntry, error) {
	return update(ctx, e, profitsColl, id, patch)
}

func (e *Engine) RemoveProfit(ctx context.Context, id string) error {
	return remove(ctx, e, profitsColl, id)
}

// Inbox entries are append/delete only.

func (e *Engine) ListInbox() []models.InboxEntry { return list(e, inboxColl) }

func (e *Engine) GetInboxEntry(id string) (models.InboxEntry, error) { return get(e, inboxColl, id) }

func (e *Engine) AddInboxEntry(ctx context.Context, entry models.InboxEntry) (models.InboxEntry, error) {
	return add(ctx, e, inboxColl, entry, nil)
}

func (e *Engine) RemoveInboxEntry(ctx context.Context, id string) error {
	return remove(ctx, e, inboxColl, id)
}

// Reviews

func (e *Engine) ListReviews() []models.Review {
	e.mu.Lock()
	defer e.mu.Unlock()
	return models.CloneAll(e.store.Reviews, models.Review.Clone)
}

// UpsertReview merges r into the review with the same (OwnerID, Date) and
// refreshes its updatedAt, or inserts r when there is none. The stored
// review is returned.
func (e *Engine) UpsertReview(ctx context.Context, r models.Review) (models.Review, error) {
	if r.OwnerID == "" || r.Date == "" {
		return models.Review{}, fmt.Errorf("%w: review needs an owner and a date", common.ErrValidation)
	}

	var stored models.Review
	err := e.mutate(ctx, "upsert reviews", func(s *models.Store) error {
		for i := range s.Reviews {
			existing := &s.Reviews[i]
			if existing.OwnerID == r.OwnerID && existing.Date == r.Date {
				existing.Merge(r)
				existing.UpdatedAt = e.stamp(existing.UpdatedAt)
				stored = existing.Clone()
				return nil
			}
		}

		if r.CreatedAt.IsZero() {
			r.CreatedAt = e.stamp(time.Time{})
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = r.CreatedAt
		}
		s.Reviews = append(s.Reviews, r)
		stored = r.Clone()
		return nil
	})
	return stored, err
}
