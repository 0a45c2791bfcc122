package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetbot/internal/service"
	"budgetbot/internal/storage/sqlite"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	tracker := service.New(store, nil)
	srv := httptest.NewServer(NewServer(tracker, testBotToken, "", nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func initDataFor(id int64, username string) string {
	return signInitData(testBotToken, map[string]string{
		"auth_date": "1700000000",
		"user":      fmt.Sprintf(`{"id":%d,"username":"%s"}`, id, username),
	})
}

func post(t *testing.T, srv *httptest.Server, path string, payload map[string]any) (int, map[string]any) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestInitEndpoint(t *testing.T) {
	srv := newTestServer(t)

	status, body := post(t, srv, "/api/init", map[string]any{
		"initData": initDataFor(1, "alice"),
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["telegram_id"])
	assert.Equal(t, float64(0), body["balance"])
	assert.Equal(t, true, body["is_owner"])
	assert.Equal(t, "personal", body["mode"])
	assert.Equal(t, false, body["has_shared"])
}

func TestInitRejectsBadSignature(t *testing.T) {
	srv := newTestServer(t)

	status, body := post(t, srv, "/api/init", map[string]any{
		"initData": "auth_date=1&hash=deadbeef&user=%7B%22id%22%3A1%7D",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Unauthorized", body["detail"])
}

func TestInitRejectsGet(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/init")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestAddTransactionEndpoint(t *testing.T) {
	srv := newTestServer(t)
	initData := initDataFor(1, "alice")

	status, body := post(t, srv, "/api/transaction", map[string]any{
		"initData":    initData,
		"t_type":      "income",
		"amount":      100.0,
		"description": "salary",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, float64(100), body["balance"])

	status, body = post(t, srv, "/api/transaction", map[string]any{
		"initData":    initData,
		"t_type":      "expense",
		"amount":      30.0,
		"description": "groceries",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(70), body["balance"])
}

func TestAddTransactionValidationErrors(t *testing.T) {
	srv := newTestServer(t)
	initData := initDataFor(1, "alice")

	status, body := post(t, srv, "/api/transaction", map[string]any{
		"initData": initData,
		"t_type":   "transfer",
		"amount":   10.0,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid type", body["detail"])

	status, body = post(t, srv, "/api/transaction", map[string]any{
		"initData": initData,
		"t_type":   "expense",
		"amount":   -1.0,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Amount must be positive", body["detail"])
}

func TestJoinEndpoint(t *testing.T) {
	srv := newTestServer(t)
	alice := initDataFor(1, "alice")
	bob := initDataFor(2, "bob")

	status, _ := post(t, srv, "/api/transaction", map[string]any{
		"initData": alice, "t_type": "income", "amount": 100.0, "description": "salary",
	})
	require.Equal(t, http.StatusOK, status)

	status, body := post(t, srv, "/api/invite", map[string]any{"initData": alice})
	require.Equal(t, http.StatusOK, status)
	code, ok := body["code"].(string)
	require.True(t, ok)
	require.Len(t, code, 8)

	status, body = post(t, srv, "/api/join", map[string]any{"initData": bob, "code": code})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(100), body["balance"], "bob lands on the shared ledger")

	// The code is spent.
	carol := initDataFor(3, "carol")
	status, body = post(t, srv, "/api/join", map[string]any{"initData": carol, "code": code})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid or used code", body["detail"])
}

func TestKickEndpoint(t *testing.T) {
	srv := newTestServer(t)
	alice := initDataFor(1, "alice")
	bob := initDataFor(2, "bob")

	_, body := post(t, srv, "/api/invite", map[string]any{"initData": alice})
	code := body["code"].(string)
	status, _ := post(t, srv, "/api/join", map[string]any{"initData": bob, "code": code})
	require.Equal(t, http.StatusOK, status)

	// Bob cannot kick the owner.
	status, body = post(t, srv, "/api/kick", map[string]any{"initData": bob, "target_id": 1})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Not allowed", body["detail"])

	// The owner kicks bob by name.
	status, body = post(t, srv, "/api/kick", map[string]any{"initData": alice, "target_name": "@BOB"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])

	// Bob is back on an empty personal budget.
	status, body = post(t, srv, "/api/init", map[string]any{"initData": bob})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), body["balance"])
	assert.Equal(t, false, body["has_shared"])
}

func TestSwitchEndpoint(t *testing.T) {
	srv := newTestServer(t)
	alice := initDataFor(1, "alice")

	status, body := post(t, srv, "/api/budget/switch", map[string]any{
		"initData": alice, "mode": "shared",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Not allowed", body["detail"])

	status, body = post(t, srv, "/api/budget/switch", map[string]any{
		"initData": alice, "mode": "personal",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])
}

func TestSummaryEndpoint(t *testing.T) {
	srv := newTestServer(t)
	alice := initDataFor(1, "alice")

	status, _ := post(t, srv, "/api/transaction", map[string]any{
		"initData": alice, "t_type": "expense", "amount": 25.0, "description": "x",
	})
	require.Equal(t, http.StatusOK, status)

	status, body := post(t, srv, "/api/summary", map[string]any{
		"initData": alice, "t_type": "expense", "period": "week",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(25), body["total"])
	assert.Equal(t, float64(1), body["count"])

	status, body = post(t, srv, "/api/summary", map[string]any{
		"initData": alice, "t_type": "expense", "period": "decade",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid period", body["detail"])
}

func TestRangeSummaryEndpoint(t *testing.T) {
	srv := newTestServer(t)
	alice := initDataFor(1, "alice")

	status, _ := post(t, srv, "/api/transaction", map[string]any{
		"initData": alice, "t_type": "income", "amount": 40.0, "description": "x",
	})
	require.Equal(t, http.StatusOK, status)

	status, body := post(t, srv, "/api/summary/range", map[string]any{
		"initData": alice, "t_type": "income", "start": "2020-01-01", "end": "2099-01-01",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(40), body["total"])

	status, body = post(t, srv, "/api/summary/range", map[string]any{
		"initData": alice, "t_type": "income", "start": "not-a-date",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid start date", body["detail"])
}

func TestPlanEndpoints(t *testing.T) {
	srv := newTestServer(t)
	alice := initDataFor(1, "alice")

	status, body := post(t, srv, "/api/plan", map[string]any{
		"initData": alice, "title": "Vacation", "description": "two weeks", "target_amount": 1000.0,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])

	status, body = post(t, srv, "/api/plans", map[string]any{"initData": alice})
	require.Equal(t, http.StatusOK, status)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	plan := items[0].(map[string]any)
	planID := plan["id"].(float64)
	assert.Equal(t, "Vacation", plan["title"])

	status, body = post(t, srv, "/api/plan/deposit", map[string]any{
		"initData": alice, "plan_id": planID, "amount": 150.0,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])

	status, body = post(t, srv, "/api/plan/get", map[string]any{
		"initData": alice, "plan_id": planID,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(150), body["current_amount"])

	status, body = post(t, srv, "/api/plan/get", map[string]any{
		"initData": alice, "plan_id": 999,
	})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Not found", body["detail"])

	status, body = post(t, srv, "/api/plan", map[string]any{
		"initData": alice, "title": "", "target_amount": 10.0,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Title required", body["detail"])
}

func TestTransactionsAndCategories(t *testing.T) {
	srv := newTestServer(t)
	alice := initDataFor(1, "alice")

	for _, tx := range []map[string]any{
		{"t_type": "expense", "amount": 30.0, "description": "a", "category": "food"},
		{"t_type": "expense", "amount": 60.0, "description": "b", "category": "transport"},
		{"t_type": "expense", "amount": 5.0, "description": "c"},
	} {
		tx["initData"] = alice
		status, _ := post(t, srv, "/api/transaction", tx)
		require.Equal(t, http.StatusOK, status)
	}

	status, body := post(t, srv, "/api/transactions", map[string]any{
		"initData": alice, "t_type": "expense",
	})
	require.Equal(t, http.StatusOK, status)
	items := body["items"].([]any)
	require.Len(t, items, 3)
	newest := items[0].(map[string]any)
	assert.Equal(t, "c", newest["description"])
	assert.Equal(t, "@alice", newest["added_by"])

	status, body = post(t, srv, "/api/categories", map[string]any{
		"initData": alice, "t_type": "expense",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{"food", "transport"}, body["items"])

	status, body = post(t, srv, "/api/categories/summary", map[string]any{
		"initData": alice, "t_type": "expense",
	})
	require.Equal(t, http.StatusOK, status)
	totals := body["items"].([]any)
	require.Len(t, totals, 3)
	top := totals[0].(map[string]any)
	assert.Equal(t, "transport", top["category"])
	assert.Equal(t, float64(60), top["total"])
	last := totals[2].(map[string]any)
	assert.Equal(t, "Uncategorized", last["category"])
}

func TestUpdateTransactionEndpoint(t *testing.T) {
	srv := newTestServer(t)
	alice := initDataFor(1, "alice")

	status, _ := post(t, srv, "/api/transaction", map[string]any{
		"initData": alice, "t_type": "expense", "amount": 25.0, "description": "taxi",
	})
	require.Equal(t, http.StatusOK, status)

	status, body := post(t, srv, "/api/transactions", map[string]any{
		"initData": alice, "t_type": "expense",
	})
	require.Equal(t, http.StatusOK, status)
	txID := body["items"].([]any)[0].(map[string]any)["id"].(float64)

	status, body = post(t, srv, "/api/transaction/update", map[string]any{
		"initData": alice, "transaction_id": txID, "amount": 27.5, "description": "taxi home", "category": "transport",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(-27.5), body["balance"])

	status, body = post(t, srv, "/api/transaction/update", map[string]any{
		"initData": alice, "transaction_id": 999, "amount": 1.0,
	})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Not found", body["detail"])
}

func TestUsersEndpoint(t *testing.T) {
	srv := newTestServer(t)
	alice := initDataFor(1, "alice")
	bob := initDataFor(2, "bob")

	status, body := post(t, srv, "/api/users", map[string]any{"initData": alice})
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["users"])

	_, body = post(t, srv, "/api/invite", map[string]any{"initData": alice})
	code := body["code"].(string)
	status, _ = post(t, srv, "/api/join", map[string]any{"initData": bob, "code": code})
	require.Equal(t, http.StatusOK, status)

	status, body = post(t, srv, "/api/users", map[string]any{"initData": alice})
	require.Equal(t, http.StatusOK, status)
	users := body["users"].([]any)
	require.Len(t, users, 2)
	assert.Equal(t, "@alice", users[0].(map[string]any)["display_name"])
	assert.Equal(t, "@bob", users[1].(map[string]any)["display_name"])
}
