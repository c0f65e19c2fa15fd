package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/store/memory"
)

type testEnv struct {
	srv   *Server
	store *memory.Store
	food  core.Category
	pay   core.Category
}

func newTestEnv(t *testing.T, mutate func(*Options)) *testEnv {
	t.Helper()
	st := memory.New([]core.Category{
		{Name: "Food", Type: core.Expense, Icon: core.IconFood, Color: "#EF4444"},
		{Name: "Salary", Type: core.Income},
	})
	spend := cache.NewSpendCache(64, time.Minute)
	opts := Options{
		AccessEnabled:      true,
		RateLimitPerMinute: 1000,
		Logger:             applog.New(applog.Config{Level: slog.LevelError, Format: "text", Output: io.Discard}),
		Today:              func() core.Date { return core.NewDate(2024, 6, 15) },
	}
	if mutate != nil {
		mutate(&opts)
	}
	srv := NewServer(":0", Services{
		Transactions: services.NewTransactionService(st, nil, spend),
		Categories:   services.NewCategoryService(st),
		Budgets:      services.NewBudgetService(st, spend),
		Reports:      services.NewReportService(st),
		Ready:        st.Ping,
	}, opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	env := &testEnv{srv: srv, store: st}
	cats, err := st.ListCategories(context.Background())
	require.NoError(t, err)
	for _, c := range cats {
		switch c.Name {
		case "Food":
			env.food = c
		case "Salary":
			env.pay = c
		}
	}
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = env.do(t, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyReportsStoreFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.srv.svc.Ready = func(context.Context) error { return errors.New("db down") }

	rec := env.do(t, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAccessGate(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.AccessEnabled = false })

	rec := env.do(t, http.MethodGet, "/api/categories", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "access disabled", decode[errorResponse](t, rec).Error)

	// Probes stay open.
	rec = env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/summary", "{}")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCategories(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/categories?type=income", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[listResponse[core.Category]](t, rec)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Salary", list.Items[0].Name)

	rec = env.do(t, http.MethodGet, "/api/categories?type=gift", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/categories", `{"name":" Pets ","type":"expense","icon":"paw","color":"#aabbcc"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[core.Category](t, rec)
	assert.Equal(t, "Pets", created.Name)
	assert.True(t, created.IsCustom)

	rec = env.do(t, http.MethodPost, "/api/categories", `{"name":"","type":"expense"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "name", decode[errorResponse](t, rec).Field)

	rec = env.do(t, http.MethodDelete, "/api/categories/"+strconv.FormatInt(created.ID, 10), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/categories/9999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransactionLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)

	body := `{"type":"expense","amount":"12.50","category_id":` + strconv.FormatInt(env.food.ID, 10) +
		`,"date":"2024-06-12","description":"lunch"}`
	rec := env.do(t, http.MethodPost, "/api/transactions", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tx := decode[core.Transaction](t, rec)
	assert.Equal(t, int64(1250), tx.Amount.Cents)
	path := "/api/transactions/" + strconv.FormatInt(tx.ID, 10)

	rec = env.do(t, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[core.TransactionWithCategory](t, rec)
	require.NotNil(t, got.Category)
	assert.Equal(t, "Food", got.Category.Name)

	rec = env.do(t, http.MethodPatch, path, `{"amount":20}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(2000), decode[core.Transaction](t, rec).Amount.Cents)

	rec = env.do(t, http.MethodPatch, path, `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/transactions?from=2024-06-01&to=2024-06-30", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[listResponse[core.TransactionWithCategory]](t, rec).Count)

	rec = env.do(t, http.MethodGet, "/api/transactions?from=2024-07-01&to=2024-07-31", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[listResponse[core.TransactionWithCategory]](t, rec).Count)

	rec = env.do(t, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateTransactionErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	food := strconv.FormatInt(env.food.ID, 10)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed json", `{"type":`, http.StatusBadRequest},
		{"unknown field", `{"type":"expense","bogus":1}`, http.StatusBadRequest},
		{"bad amount", `{"type":"expense","amount":"abc","category_id":` + food + `,"date":"2024-06-12"}`, http.StatusUnprocessableEntity},
		{"zero amount", `{"type":"expense","amount":0,"category_id":` + food + `,"date":"2024-06-12"}`, http.StatusUnprocessableEntity},
		{"bad date", `{"type":"expense","amount":5,"category_id":` + food + `,"date":"12/06/2024"}`, http.StatusUnprocessableEntity},
		{"bad type", `{"type":"gift","amount":5,"category_id":` + food + `,"date":"2024-06-12"}`, http.StatusUnprocessableEntity},
		{"missing category", `{"type":"expense","amount":5,"category_id":9999,"date":"2024-06-12"}`, http.StatusNotFound},
		{"type differs from category", `{"type":"income","amount":5,"category_id":` + food + `,"date":"2024-06-12"}`, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/transactions", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestListTransactionsRange(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/transactions?from=2024-06-01", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/transactions?from=2024-06-30&to=2024-06-01", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/transactions/abc", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSummary(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	for _, tx := range []core.Transaction{
		{Type: core.Income, Amount: core.Cents(100000), CategoryID: env.pay.ID, Date: core.NewDate(2024, 6, 1)},
		{Type: core.Expense, Amount: core.Cents(5000), CategoryID: env.food.ID, Date: core.NewDate(2024, 6, 9)},
		{Type: core.Expense, Amount: core.Cents(700), CategoryID: env.food.ID, Date: core.NewDate(2024, 6, 8)},
	} {
		_, err := env.store.InsertTransaction(ctx, tx)
		require.NoError(t, err)
	}

	rec := env.do(t, http.MethodGet, "/api/summary?date=2024-06-12&granularity=week", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	week := decode[core.PeriodSummary](t, rec)
	assert.Equal(t, "2024-06-09", week.Period.Start.String())
	assert.Equal(t, "2024-06-15", week.Period.End.String())
	assert.Equal(t, int64(5000), week.Totals.Expenses.Cents)
	assert.Equal(t, 1, week.TransactionCount)

	// Defaults: today's month.
	rec = env.do(t, http.MethodGet, "/api/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	month := decode[core.PeriodSummary](t, rec)
	assert.Equal(t, core.GranularityMonth, month.Granularity)
	assert.Equal(t, int64(100000), month.Totals.Income.Cents)
	assert.Equal(t, int64(5700), month.Totals.Expenses.Cents)
	assert.Equal(t, int64(94300), month.Totals.Net.Cents)

	rec = env.do(t, http.MethodGet, "/api/summary?granularity=year", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestBudgets(t *testing.T) {
	env := newTestEnv(t, nil)
	food := strconv.FormatInt(env.food.ID, 10)

	rec := env.do(t, http.MethodPut, "/api/budgets", `{"category_id":`+food+`,"limit_amount":100,"month":"2024-06"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	b := decode[core.Budget](t, rec)
	assert.Equal(t, "2024-06-01", b.Month.String())

	// Same (category, month) replaces the limit.
	rec = env.do(t, http.MethodPut, "/api/budgets", `{"category_id":`+food+`,"limit_amount":"100.00","month":"2024-06-20"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, b.ID, decode[core.Budget](t, rec).ID)

	rec = env.do(t, http.MethodPut, "/api/budgets", `{"category_id":`+food+`,"limit_amount":0,"month":"2024-06"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec = env.do(t, http.MethodPut, "/api/budgets", `{"category_id":9999,"limit_amount":10,"month":"2024-06"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodPut, "/api/budgets", `{"category_id":`+food+`,"limit_amount":10}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/budgets/alerts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[listResponse[core.BudgetWithSpending]](t, rec).Count)

	body := `{"type":"expense","amount":85,"category_id":` + food + `,"date":"2024-06-10"}`
	rec = env.do(t, http.MethodPost, "/api/transactions", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/budgets?month=2024-06", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[listResponse[core.BudgetWithSpending]](t, rec)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, core.StatusWarning, list.Items[0].Status)
	assert.Equal(t, "85", list.Items[0].Percentage.String())
	assert.Equal(t, "Food", list.Items[0].CategoryName)

	rec = env.do(t, http.MethodGet, "/api/budgets/alerts?month=2024-06", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[listResponse[core.BudgetWithSpending]](t, rec).Count)

	rec = env.do(t, http.MethodGet, "/api/budgets?month=June", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/budgets/"+strconv.FormatInt(b.ID, 10), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/budgets/"+strconv.FormatInt(b.ID, 10), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimitAppliesToMutations(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.RateLimitPerMinute = 1 })

	rec := env.do(t, http.MethodPost, "/api/categories", `{"name":"A","type":"expense"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/categories", `{"name":"B","type":"expense"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Reads are not limited.
	for i := 0; i < 3; i++ {
		rec = env.do(t, http.MethodGet, "/api/categories", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
