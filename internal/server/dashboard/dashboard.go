// Package dashboard computes the dashboard view from a snapshot already
// filtered to one owner. Every function is pure: inputs are never modified
// and the same input always gives the same output.
package dashboard

import (
	"cmp"
	"slices"
	"time"

	"github.com/dmitrijs2005/dailyops/internal/server/models"
	"github.com/dmitrijs2005/dailyops/internal/timex"
	"github.com/shopspring/decimal"
)

// FocusSize is the length of the focus list.
const FocusSize = 3

// Buckets partitions the open tasks by due date.
type Buckets struct {
	Today    []models.Task `json:"todayTasks"`
	Tomorrow []models.Task `json:"tomorrowTasks"`
	Upcoming []models.Task `json:"upcoming"`
	Overdue  []models.Task `json:"overdue"`
}

// ProfitMetrics are profit sums over inclusive windows ending today.
type ProfitMetrics struct {
	TodayTotal     decimal.Decimal
	SevenDayTotal  decimal.Decimal
	ThirtyDayTotal decimal.Decimal
}

type TaskSummary struct {
	Buckets
	Total          int `json:"total"`
	CompletedToday int `json:"completedToday"`
}

type ProfitSummary struct {
	Entries        int           `json:"entries"`
	TodayTotal     models.Amount `json:"todayTotal"`
	SevenDayTotal  models.Amount `json:"sevenDayTotal"`
	ThirtyDayTotal models.Amount `json:"thirtyDayTotal"`
}

type IdeaSummary struct {
	Total int `json:"total"`
	// Incubating counts every idea that is not archived.
	Incubating int `json:"incubating"`
}

type InboxSummary struct {
	Total int `json:"total"`
}

// Summary is the dashboard payload.
type Summary struct {
	Today   string        `json:"today"`
	Tasks   TaskSummary   `json:"tasks"`
	Profits ProfitSummary `json:"profits"`
	Ideas   IdeaSummary   `json:"ideas"`
	Inbox   InboxSummary  `json:"inbox"`
	Focus   []models.Task `json:"focus"`
}

// Today returns now's calendar date in loc (UTC when loc is nil).
func Today(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return timex.FormatDate(now.In(loc))
}

// CategorizeTasks sorts open tasks into buckets relative to today. Tasks
// without a due date are upcoming; done tasks are left out.
func CategorizeTasks(tasks []models.Task, today string) Buckets {
	b := Buckets{
		Today:    []models.Task{},
		Tomorrow: []models.Task{},
		Upcoming: []models.Task{},
		Overdue:  []models.Task{},
	}
	tomorrow, _ := timex.AddDays(today, 1)

	for _, t := range tasks {
		if t.Status == models.TaskDone {
			continue
		}
		due := t.Due()
		switch {
		case due == "":
			b.Upcoming = append(b.Upcoming, t.Clone())
		case due == today:
			b.Today = append(b.Today, t.Clone())
		case due == tomorrow:
			b.Tomorrow = append(b.Tomorrow, t.Clone())
		case due < today:
			b.Overdue = append(b.Overdue, t.Clone())
		default:
			b.Upcoming = append(b.Upcoming, t.Clone())
		}
	}
	return b
}

// CalculateProfitMetrics sums amounts dated today, within the last 7 days
// and within the last 30 days (today included). Undated entries are
// skipped; non-numeric amounts count as zero.
func CalculateProfitMetrics(profits []models.ProfitEntry, today string) ProfitMetrics {
	m := ProfitMetrics{
		TodayTotal:     decimal.Zero,
		SevenDayTotal:  decimal.Zero,
		ThirtyDayTotal: decimal.Zero,
	}
	weekStart, ok := timex.AddDays(today, -6)
	if !ok {
		return m
	}
	monthStart, _ := timex.AddDays(today, -29)

	for _, p := range profits {
		if p.Date == "" || p.Date > today {
			continue
		}
		amount, _ := p.Amount.Decimal()

		if p.Date == today {
			m.TodayTotal = m.TodayTotal.Add(amount)
		}
		if p.Date >= weekStart {
			m.SevenDayTotal = m.SevenDayTotal.Add(amount)
		}
		if p.Date >= monthStart {
			m.ThirtyDayTotal = m.ThirtyDayTotal.Add(amount)
		}
	}
	return m
}

// TopPriorityTasks returns up to FocusSize open tasks, highest priority
// first. Equal priorities are ordered by due date when both tasks have one,
// otherwise by creation time; the id settles anything left.
func TopPriorityTasks(tasks []models.Task) []models.Task {
	open := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status != models.TaskDone {
			open = append(open, t.Clone())
		}
	}

	slices.SortStableFunc(open, compareFocus)

	if len(open) > FocusSize {
		open = open[:FocusSize]
	}
	return open
}

// compareFocus is not transitive once dated and undated tasks of the same
// priority mix: A(due 1, created 3) < C(due 2, created 1) < B(undated,
// created 2) < A. The stable sort still yields one fixed order for a given
// input order.
func compareFocus(a, b models.Task) int {
	if c := cmp.Compare(b.Priority.Rank(), a.Priority.Rank()); c != 0 {
		return c
	}
	if da, db := a.Due(), b.Due(); da != "" && db != "" {
		if c := cmp.Compare(da, db); c != 0 {
			return c
		}
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Build assembles the dashboard for one owner's snapshot.
func Build(s *models.Store, today string) Summary {
	completed := 0
	for _, t := range s.Tasks {
		if t.Status == models.TaskDone && t.Due() == today {
			completed++
		}
	}

	incubating := 0
	for _, i := range s.Ideas {
		if i.Status != models.IdeaArchived {
			incubating++
		}
	}

	metrics := CalculateProfitMetrics(s.Profits, today)

	return Summary{
		Today: today,
		Tasks: TaskSummary{
			Buckets:        CategorizeTasks(s.Tasks, today),
			Total:          len(s.Tasks),
			CompletedToday: completed,
		},
		Profits: ProfitSummary{
			Entries:        len(s.Profits),
			TodayTotal:     models.NewAmount(metrics.TodayTotal),
			SevenDayTotal:  models.NewAmount(metrics.SevenDayTotal),
			ThirtyDayTotal: models.NewAmount(metrics.ThirtyDayTotal),
		},
		Ideas: IdeaSummary{
			Total:      len(s.Ideas),
			Incubating: incubating,
		},
		Inbox: InboxSummary{Total: len(s.Inbox)},
		Focus: TopPriorityTasks(s.Tasks),
	}
}
