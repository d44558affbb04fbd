package httpapi

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/dailyops/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type taskResponse struct {
	Task models.Task `json:"task"`
}

func (a *testAPI) createTask(token string, body map[string]any) models.Task {
	a.t.Helper()
	w := a.do(request{method: http.MethodPost, path: "/api/tasks", token: token, body: body})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	var resp taskResponse
	decode(a.t, w, &resp)
	return resp.Task
}

func (a *testAPI) listTasks(token, query string) []models.Task {
	a.t.Helper()
	w := a.do(request{method: http.MethodGet, path: "/api/tasks" + query, token: token})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Tasks []models.Task `json:"tasks"`
	}
	decode(a.t, w, &resp)
	return resp.Tasks
}

func taskTitles(tasks []models.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Title)
	}
	return out
}

func TestTasks_CreateAppliesDefaults(t *testing.T) {
	api := newTestAPI(t)
	token := api.setup("alice")

	task := api.createTask(token, map[string]any{
		"title":            "  Write report ",
		"dueDate":          "2024-03-12T22:00:00Z",
		"tags":             "work, writing, work",
		"estimatedMinutes": "30",
	})

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "Write report", task.Title)
	assert.Equal(t, models.TaskPending, task.Status)
	assert.Equal(t, models.PriorityMedium, task.Priority)
	assert.Equal(t, "general", task.Category)
	assert.Equal(t, "2024-03-12", task.Due())
	assert.Equal(t, []string{"work", "writing"}, task.Tags)
	require.NotNil(t, task.EstimatedMinutes)
	assert.Equal(t, 30, *task.EstimatedMinutes)
	assert.Empty(t, task.Checklist)
	assert.Equal(t, testNow, task.CreatedAt.UTC())

	stored, err := api.engine.GetTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", mustUser(t, api, stored.OwnerID).Username)
}

func mustUser(t *testing.T, api *testAPI, id string) models.User {
	t.Helper()
	u, err := api.engine.GetUserByID(id)
	require.NoError(t, err)
	return u
}

func TestTasks_CreateLenientFields(t *testing.T) {
	api := newTestAPI(t)
	token := api.setup("alice")

	task := api.createTask(token, map[string]any{
		"title":            "Loose",
		"dueDate":          "someday",
		"estimatedMinutes": -5,
		"tags":             []any{"a", 7, nil},
		"checklist":        []any{"buy milk", map[string]any{"text": "call", "done": true}},
	})

	assert.Nil(t, task.DueDate)
	assert.Nil(t, task.EstimatedMinutes)
	assert.Equal(t, []string{"a", "7"}, task.Tags)
	assert.Equal(t, []models.ChecklistItem{{Text: "buy milk"}, {Text: "call", Done: true}}, task.Checklist)
}

func TestTasks_CreateValidation(t *testing.T) {
	api := newTestAPI(t)
	token := api.setup("alice")

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing title", map[string]any{}},
		{"blank title", map[string]any{"title": "   "}},
		{"unknown priority", map[string]any{"title": "x", "priority": "urgent"}},
		{"unknown status", map[string]any{"title": "x", "status": "blocked"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(request{method: http.MethodPost, path: "/api/tasks", token: token, body: tt.body})
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, errorText(t, w))
		})
	}
	assert.Empty(t, api.engine.ListTasks())
}

func TestTasks_Update(t *testing.T) {
	api := newTestAPI(t)
	token := api.setup("alice")
	task := api.createTask(token, map[string]any{
		"title":       "Draft",
		"description": "first pass",
		"dueDate":     "2024-03-11",
	})

	w := api.do(request{method: http.MethodPatch, path: "/api/tasks/" + task.ID, token: token, body: map[string]any{
		"title":    " Final ",
		"status":   "done",
		"dueDate":  nil,
		"priority": "high",
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp taskResponse
	decode(t, w, &resp)
	got := resp.Task
	assert.Equal(t, "Final", got.Title)
	assert.Equal(t, models.TaskDone, got.Status)
	assert.Equal(t, models.PriorityHigh, got.Priority)
	assert.Nil(t, got.DueDate)
	assert.Equal(t, "first pass", got.Description)
	assert.Equal(t, task.CreatedAt, got.CreatedAt)
	assert.True(t, got.UpdatedAt.After(task.UpdatedAt))

	for name, body := range map[string]map[string]any{
		"bad date":    {"dueDate": "31/31/2024"},
		"empty title": {"title": ""},
		"bad status":  {"status": "later"},
	} {
		t.Run(name, func(t *testing.T) {
			w := api.do(request{method: http.MethodPatch, path: "/api/tasks/" + task.ID, token: token, body: body})
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	w = api.do(request{method: http.MethodPatch, path: "/api/tasks/missing", token: token, body: map[string]any{"title": "x"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTasks_Delete(t *testing.T) {
	api := newTestAPI(t)
	token := api.setup("alice")
	task := api.createTask(token, map[string]any{"title": "Gone soon"})

	w := api.do(request{method: http.MethodDelete, path: "/api/tasks/" + task.ID, token: token})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = api.do(request{method: http.MethodDelete, path: "/api/tasks/" + task.ID, token: token})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, api.listTasks(token, ""))
}

func TestTasks_ListFiltersAndOrder(t *testing.T) {
	api := newTestAPI(t)
	token := api.setup("alice")

	api.createTask(token, map[string]any{"title": "later", "dueDate": "2024-03-15"})
	api.createTask(token, map[string]any{"title": "overdue", "dueDate": "2024-03-09", "status": "in-progress"})
	api.createTask(token, map[string]any{"title": "soon", "dueDate": "2024-03-11"})
	api.createTask(token, map[string]any{"title": "done", "dueDate": "2024-03-11", "status": "done"})

	assert.Equal(t, []string{"overdue", "soon", "done", "later"}, taskTitles(api.listTasks(token, "")))
	assert.Equal(t, []string{"soon", "done"}, taskTitles(api.listTasks(token, "?date=2024-03-11")))
	assert.Equal(t, []string{"done"}, taskTitles(api.listTasks(token, "?status=done")))
	assert.Equal(t, []string{"soon", "done"}, taskTitles(api.listTasks(token, "?from=2024-03-10&to=2024-03-14")))

	api.createTask(token, map[string]any{"title": "undated"})
	assert.Contains(t, taskTitles(api.listTasks(token, "?from=2024-03-10&to=2024-03-14")), "undated")
}

func TestRecords_OwnerIsolation(t *testing.T) {
	api := newTestAPI(t)
	alice := api.setup("alice")
	bob := api.setup("bob")

	task := api.createTask(alice, map[string]any{"title": "Alice only"})

	w := api.do(request{method: http.MethodPost, path: "/api/inbox", token: alice, body: map[string]any{"content": "secret"}})
	require.Equal(t, http.StatusCreated, w.Code)
	var inbox struct {
		Entry models.InboxEntry `json:"entry"`
	}
	decode(t, w, &inbox)

	assert.Empty(t, api.listTasks(bob, ""))

	w = api.do(request{method: http.MethodPatch, path: "/api/tasks/" + task.ID, token: bob, body: map[string]any{"title": "Bob was here"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = api.do(request{method: http.MethodDelete, path: "/api/tasks/" + task.ID, token: bob})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = api.do(request{method: http.MethodDelete, path: "/api/inbox/" + inbox.Entry.ID, token: bob})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(request{method: http.MethodGet, path: "/api/dashboard", token: bob})
	require.Equal(t, http.StatusOK, w.Code)
	var summary struct {
		Tasks struct {
			Total int `json:"total"`
		} `json:"tasks"`
		Inbox struct {
			Total int `json:"total"`
		} `json:"inbox"`
	}
	decode(t, w, &summary)
	assert.Zero(t, summary.Tasks.Total)
	assert.Zero(t, summary.Inbox.Total)

	assert.Equal(t, []string{"Alice only"}, taskTitles(api.listTasks(alice, "")))
	assert.Len(t, api.engine.ListInbox(), 1)
}

func TestIdeas_CRUD(t *testing.T) {
	api := newTestAPI(t)
	token := api.setup("alice")

	create := func(body map[string]any) models.Idea {
		w := api.do(request{method: http.MethodPost, path: "/api/ideas", token: token, body: body})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var resp struct {
			Idea models.Idea `json:"idea"`
		}
		decode(t, w, &resp)
		return resp.Idea
	}

	first := create(map[string]any{"title": "Newsletter", "impact": "4", "confidence": 0, "tags": []string{"growth"}})
	assert.Equal(t, models.IdeaIncubating, first.Status)
	require.NotNil(t, first.Impact)
	assert.Equal(t, 4, *first.Impact)
	assert.Nil(t, first.Confidence)

	second := create(map[string]any{"title": "Podcast", "status": "active"})

	w := api.do(request{method: http.MethodPost, path: "/api/ideas", token: token, body: map[string]any{"title": "x", "status": "someday"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(request{method: http.MethodPatch, path: "/api/ideas/" + first.ID, token: token, body: map[string]any{
		"impact": nil, "confidence": 3, "detail": " weekly ",
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated struct {
		Idea models.Idea `json:"idea"`
	}
	decode(t, w, &updated)
	assert.Nil(t, updated.Idea.Impact)
	require.NotNil(t, updated.Idea.Confidence)
	assert.Equal(t, 3, *updated.Idea.Confidence)
	assert.Equal(t, "weekly", updated.Idea.Detail)
	assert.Equal(t, []string{"growth"}, updated.Idea.Tags)

	w = api.do(request{method: http.MethodGet, path: "/api/ideas", token: token})
	var list struct {
		Ideas []models.Idea `json:"ideas"`
	}
	decode(t, w, &list)
	require.Len(t, list.Ideas, 2)
	assert.Equal(t, first.ID, list.Ideas[0].ID, "most recently updated first")
	assert.Equal(t, second.ID, list.Ideas[1].ID)

	w = api.do(request{method: http.MethodDelete, path: "/api/ideas/" + second.ID, token: token})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Len(t, api.engine.ListIdeas(), 1)
}

type profitJSON struct {
	ID       string  `json:"id"`
	Date     string  `json:"date"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Chain    string  `json:"chain"`
	Notes    string  `json:"notes"`
}

func TestProfits_CRUD(t *testing.T) {
	api := newTestAPI(t)
	token := api.setup("alice")

	create := func(body map[string]any) profitJSON {
		w := api.do(request{method: http.MethodPost, path: "/api/profits", token: token, body: body})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var resp struct {
			Profit profitJSON `json:"profit"`
		}
		decode(t, w, &resp)
		return resp.Profit
	}

	today := create(map[string]any{"amount": "12.50", "chain": "eth"})
	stored, err := api.engine.GetProfit(today.ID)
	require.NoError(t, err)
	assert.Equal(t, "12.50", stored.Amount.String())
	assert.Equal(t, "2024-03-10", today.Date)
	assert.Equal(t, 12.5, today.Amount)
	assert.Equal(t, "USDT", today.Currency)

	create(map[string]any{"amount": -3, "date": "2024-03-01", "chain": "sol", "currency": "USDC"})
	create(map[string]any{"amount": 7, "date": "2024-03-05T08:00:00Z", "chain": "eth"})

	for name, body := range map[string]map[string]any{
		"not a number":  {"amount": "lots"},
		"missing":       {"date": "2024-03-01"},
		"null":          {"amount": nil},
		"huge exponent": {"amount": "1e3000000"},
		"too long":      {"amount": "1" + strings.Repeat("0", 80)},
	} {
		t.Run(name, func(t *testing.T) {
			w := api.do(request{method: http.MethodPost, path: "/api/profits", token: token, body: body})
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	list := func(query string) []string {
		w := api.do(request{method: http.MethodGet, path: "/api/profits" + query, token: token})
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Profits []profitJSON `json:"profits"`
		}
		decode(t, w, &resp)
		dates := []string{}
		for _, p := range resp.Profits {
			dates = append(dates, p.Date)
		}
		return dates
	}
	assert.Equal(t, []string{"2024-03-10", "2024-03-05", "2024-03-01"}, list(""))
	assert.Equal(t, []string{"2024-03-10", "2024-03-05"}, list("?chain=eth"))
	assert.Equal(t, []string{"2024-03-05", "2024-03-01"}, list("?start=2024-03-01&end=2024-03-09"))

	w := api.do(request{method: http.MethodPatch, path: "/api/profits/" + today.ID, token: token, body: map[string]any{"amount": "abc"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(request{method: http.MethodPatch, path: "/api/profits/" + today.ID, token: token, body: map[string]any{
		"amount": "20", "date": nil, "notes": " fees paid ",
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated struct {
		Profit profitJSON `json:"profit"`
	}
	decode(t, w, &updated)
	assert.Equal(t, 20.0, updated.Profit.Amount)
	assert.Equal(t, "2024-03-10", updated.Profit.Date)
	assert.Equal(t, "fees paid", updated.Profit.Notes)

	w = api.do(request{method: http.MethodDelete, path: "/api/profits/" + today.ID, token: token})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Len(t, list(""), 2)
}

func TestInbox_CRUD(t *testing.T) {
	api := newTestAPI(t)
	token := api.setup("alice")

	w := api.do(request{method: http.MethodPost, path: "/api/inbox", token: token, body: map[string]any{"content": "  "}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var ids []string
	for _, body := range []map[string]any{
		{"content": "first"},
		{"content": "second", "type": "link"},
	} {
		w := api.do(request{method: http.MethodPost, path: "/api/inbox", token: token, body: body})
		require.Equal(t, http.StatusCreated, w.Code)
		var resp struct {
			Entry models.InboxEntry `json:"entry"`
		}
		decode(t, w, &resp)
		ids = append(ids, resp.Entry.ID)
		api.clock.Advance(time.Minute)
	}

	w = api.do(request{method: http.MethodGet, path: "/api/inbox", token: token})
	var list struct {
		Inbox []models.InboxEntry `json:"inbox"`
	}
	decode(t, w, &list)
	require.Len(t, list.Inbox, 2)
	assert.Equal(t, "second", list.Inbox[0].Content)
	assert.Equal(t, "link", list.Inbox[0].Type)
	assert.Equal(t, "note", list.Inbox[1].Type)

	w = api.do(request{method: http.MethodDelete, path: "/api/inbox/" + ids[0], token: token})
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = api.do(request{method: http.MethodDelete, path: "/api/inbox/" + ids[0], token: token})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInbox_SameInstantListsNewestFirst(t *testing.T) {
	api := newTestAPI(t)
	token := api.setup("alice")

	for _, content := range []string{"a", "b", "c"} {
		w := api.do(request{method: http.MethodPost, path: "/api/inbox", token: token, body: map[string]any{"content": content}})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := api.do(request{method: http.MethodGet, path: "/api/inbox", token: token})
	var list struct {
		Inbox []models.InboxEntry `json:"inbox"`
	}
	decode(t, w, &list)
	require.Len(t, list.Inbox, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{list.Inbox[0].Content, list.Inbox[1].Content, list.Inbox[2].Content})
}

func TestReviews_UpsertByDate(t *testing.T) {
	api := newTestAPI(t)
	token := api.setup("alice")

	upsert := func(body map[string]any) models.Review {
		w := api.do(request{method: http.MethodPost, path: "/api/reviews", token: token, body: body})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp struct {
			Review models.Review `json:"review"`
		}
		decode(t, w, &resp)
		return resp.Review
	}

	first := upsert(map[string]any{"date": "2024-03-09", "highlight": "shipped", "mood": "good"})
	second := upsert(map[string]any{"date": "2024-03-09T18:00:00Z", "highlight": " fixed bugs "})
	assert.Equal(t, "fixed bugs", second.Highlight)
	assert.Empty(t, second.Mood)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))

	todays := upsert(map[string]any{"date": "not a date", "lessons": "sleep more"})
	assert.Equal(t, "2024-03-10", todays.Date)

	w := api.do(request{method: http.MethodGet, path: "/api/reviews", token: token})
	var list struct {
		Reviews []models.Review `json:"reviews"`
	}
	decode(t, w, &list)
	require.Len(t, list.Reviews, 2)
	assert.Equal(t, "2024-03-10", list.Reviews[0].Date)
	assert.Equal(t, "2024-03-09", list.Reviews[1].Date)

	w = api.do(request{method: http.MethodGet, path: "/api/reviews?date=2024-03-09", token: token})
	decode(t, w, &list)
	require.Len(t, list.Reviews, 1)
	assert.Equal(t, "fixed bugs", list.Reviews[0].Highlight)
}

func TestDashboard(t *testing.T) {
	api := newTestAPI(t)
	token := api.setup("alice")

	api.createTask(token, map[string]any{"title": "today", "dueDate": "2024-03-10", "priority": "high"})
	api.createTask(token, map[string]any{"title": "tomorrow", "dueDate": "2024-03-11"})
	api.createTask(token, map[string]any{"title": "overdue", "dueDate": "2024-03-08", "priority": "low"})
	api.createTask(token, map[string]any{"title": "finished", "dueDate": "2024-03-10", "status": "done"})

	for _, p := range []map[string]any{
		{"amount": "10", "date": "2024-03-10"},
		{"amount": "15", "date": "2024-03-05"},
		{"amount": "16", "date": "2024-02-01"},
	} {
		w := api.do(request{method: http.MethodPost, path: "/api/profits", token: token, body: p})
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w := api.do(request{method: http.MethodPost, path: "/api/ideas", token: token, body: map[string]any{"title": "idea"}})
	require.Equal(t, http.StatusCreated, w.Code)

	w = api.do(request{method: http.MethodGet, path: "/api/dashboard", token: token})
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Today string `json:"today"`
		Tasks struct {
			Today          []models.Task `json:"todayTasks"`
			Tomorrow       []models.Task `json:"tomorrowTasks"`
			Upcoming       []models.Task `json:"upcoming"`
			Overdue        []models.Task `json:"overdue"`
			Total          int           `json:"total"`
			CompletedToday int           `json:"completedToday"`
		} `json:"tasks"`
		Profits struct {
			Entries        int     `json:"entries"`
			TodayTotal     float64 `json:"todayTotal"`
			SevenDayTotal  float64 `json:"sevenDayTotal"`
			ThirtyDayTotal float64 `json:"thirtyDayTotal"`
		} `json:"profits"`
		Ideas struct {
			Total      int `json:"total"`
			Incubating int `json:"incubating"`
		} `json:"ideas"`
		Focus []models.Task `json:"focus"`
	}
	decode(t, w, &got)

	assert.Equal(t, "2024-03-10", got.Today)
	assert.Equal(t, []string{"today"}, taskTitles(got.Tasks.Today))
	assert.Equal(t, []string{"tomorrow"}, taskTitles(got.Tasks.Tomorrow))
	assert.Equal(t, []string{"overdue"}, taskTitles(got.Tasks.Overdue))
	assert.Empty(t, got.Tasks.Upcoming)
	assert.Equal(t, 4, got.Tasks.Total)
	assert.Equal(t, 1, got.Tasks.CompletedToday)

	assert.Equal(t, 3, got.Profits.Entries)
	assert.Equal(t, 10.0, got.Profits.TodayTotal)
	assert.Equal(t, 25.0, got.Profits.SevenDayTotal)
	assert.Equal(t, 25.0, got.Profits.ThirtyDayTotal)

	assert.Equal(t, 1, got.Ideas.Total)
	assert.Equal(t, 1, got.Ideas.Incubating)
	assert.Equal(t, []string{"today", "tomorrow", "overdue"}, taskTitles(got.Focus))
}
