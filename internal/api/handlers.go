package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"budgetbot/internal/models"
	"budgetbot/internal/service"
)

// Payloads mirror the WebApp contract: every request is a POST carrying the
// raw initData string plus operation fields.

type initPayload struct {
	InitData string `json:"initData"`
}

func (p *initPayload) initData() string { return p.InitData }

type authedPayload interface{ initData() string }

type transactionPayload struct {
	initPayload
	Type        string  `json:"t_type"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
}

type transactionUpdatePayload struct {
	initPayload
	TransactionID int64   `json:"transaction_id"`
	Amount        float64 `json:"amount"`
	Description   string  `json:"description"`
	Category      string  `json:"category"`
}

type summaryPayload struct {
	initPayload
	Type   string `json:"t_type"`
	Period string `json:"period"`
}

type rangePayload struct {
	initPayload
	Type  string `json:"t_type"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type joinPayload struct {
	initPayload
	Code string `json:"code"`
}

type kickPayload struct {
	initPayload
	TargetID   int64  `json:"target_id"`
	TargetName string `json:"target_name"`
}

type switchPayload struct {
	initPayload
	Mode string `json:"mode"`
}

type planPayload struct {
	initPayload
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	TargetAmount float64 `json:"target_amount"`
}

type planUpdatePayload struct {
	initPayload
	PlanID       int64   `json:"plan_id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	TargetAmount float64 `json:"target_amount"`
}

type planIDPayload struct {
	initPayload
	PlanID int64 `json:"plan_id"`
}

type planDepositPayload struct {
	initPayload
	PlanID int64   `json:"plan_id"`
	Amount float64 `json:"amount"`
}

// authenticate decodes the request, verifies the initData signature and
// resolves the caller's identity. On failure it writes the response itself
// and returns false.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request, payload authedPayload) (*WebAppUser, bool) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "POST required")
		return nil, false
	}
	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON")
		return nil, false
	}
	user, err := verifyInitData(s.botToken, payload.initData())
	if err != nil {
		s.writeError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	if _, err := s.tracker.Resolve(r.Context(), user.ID, user.DisplayName()); err != nil {
		s.storageError(w, err)
		return nil, false
	}
	return user, true
}

func (s *Server) storageError(w http.ResponseWriter, err error) {
	s.logger.Error("storage failure", "error", err)
	s.writeError(w, http.StatusInternalServerError, "Internal error")
}

// serviceError maps validation sentinels to 400s; anything else is a
// storage fault.
func (s *Server) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidType):
		s.writeError(w, http.StatusBadRequest, "Invalid type")
	case errors.Is(err, service.ErrInvalidAmount):
		s.writeError(w, http.StatusBadRequest, "Amount must be positive")
	case errors.Is(err, service.ErrInvalidPeriod):
		s.writeError(w, http.StatusBadRequest, "Invalid period")
	case errors.Is(err, service.ErrTitleRequired):
		s.writeError(w, http.StatusBadRequest, "Title required")
	default:
		s.storageError(w, err)
	}
}

func periodToDays(period string) int {
	switch period {
	case "week":
		return 7
	case "month":
		return 30
	case "year":
		return 365
	}
	return 0
}

// timeLayouts accepted for window bounds, most specific first.
var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseTimeParam(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, errors.New("invalid date")
}

func formatTime(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

func transactionJSON(t models.Transaction) map[string]any {
	return map[string]any{
		"id":          t.ID,
		"amount":      t.Amount,
		"description": t.Description,
		"added_by":    t.AddedBy,
		"category":    t.Category,
		"created_at":  formatTime(t.CreatedAt),
	}
}

func planJSON(p models.Plan) map[string]any {
	return map[string]any{
		"id":             p.ID,
		"title":          p.Title,
		"description":    p.Description,
		"target_amount":  p.TargetAmount,
		"current_amount": p.CurrentAmount,
		"created_by":     p.CreatedBy,
		"created_at":     formatTime(p.CreatedAt),
	}
}

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	var payload initPayload
	user, ok := s.authenticate(w, r, &payload)
	if !ok {
		return
	}
	ctx := r.Context()
	balance, err := s.tracker.Balance(ctx, user.ID)
	if err != nil {
		s.storageError(w, err)
		return
	}
	state, err := s.tracker.State(ctx, user.ID)
	if err != nil {
		s.storageError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"telegram_id": user.ID,
		"balance":     balance,
		"is_owner":    state.IsOwner,
		"mode":        state.Mode,
		"has_shared":  state.HasShared,
	})
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var payload transactionPayload
	user, ok := s.authenticate(w, r, &payload)
	if !ok {
		return
	}
	ctx := r.Context()
	_, err := s.tracker.AddTransaction(ctx, user.ID,
		models.TransactionType(payload.Type), payload.Amount, payload.Description, payload.Category)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	balance, err := s.tracker.Balance(ctx, user.ID)
	if err != nil {
		s.storageError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "balance": balance})
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var payload transactionUpdatePayload
	user, ok := s.authenticate(w, r, &payload)
	if !ok {
		return
	}
	ctx := r.Context()
	updated, err := s.tracker.EditTransaction(ctx, user.ID, payload.TransactionID,
		payload.Amount, payload.Description, payload.Category)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	if !updated {
		s.writeError(w, http.StatusNotFound, "Not found")
		return
	}
	balance, err := s.tracker.Balance(ctx, user.ID)
	if err != nil {
		s.storageError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "balance": balance})
}

func (s *Server) handleRecentTransactions(w http.ResponseWriter, r *http.Request) {
	var payload summaryPayload
	user, ok := s.authenticate(w, r, &payload)
	if !ok {
		return
	}
	txs, err := s.tracker.RecentTransactions(r.Context(), user.ID, models.TransactionType(payload.Type), 10)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	items := make([]map[string]any, 0, len(txs))
	for _, t := range txs {
		items = append(items, transactionJSON(t))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	var payload rangePayload
	user, ok := s.authenticate(w, r, &payload)
	if !ok {
		return
	}
	start, err := parseTimeParam(payload.Start)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid start date")
		return
	}
	end, err := parseTimeParam(payload.End)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid end date")
		return
	}
	txs, err := s.tracker.ListTransactions(r.Context(), user.ID,
		models.TransactionType(payload.Type), start, end, 50)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	items := make([]map[string]any, 0, len(txs))
	for _, t := range txs {
		items = append(items, transactionJSON(t))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var payload summaryPayload
	user, ok := s.authenticate(w, r, &payload)
	if !ok {
		return
	}
	days := periodToDays(payload.Period)
	if days == 0 {
		s.writeError(w, http.StatusBadRequest, "Invalid period")
		return
	}
	total, count, err := s.tracker.PeriodSummary(r.Context(), user.ID,
		models.TransactionType(payload.Type), days)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"total": total, "count": count})
}

func (s *Server) handleRangeSummary(w http.ResponseWriter, r *http.Request) {
	var payload rangePayload
	user, ok := s.authenticate(w, r, &payload)
	if !ok {
		return
	}
	start, err := parseTimeParam(payload.Start)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid start date")
		return
	}
	end, err := parseTimeParam(payload.End)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid end date")
		return
	}
	total, count, err := s.tracker.RangeSummary(r.Context(), user.ID,
		models.TransactionType(payload.Type), start, end)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"total": total, "count": count})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	var payload summaryPayload
	user, ok := s.authenticate(w, r, &payload)
	if !ok {
		return
	}
	categories, err := s.tracker.ListCategories(r.Context(), user.ID, models.TransactionType(payload.Type))
	if err != nil {
		s.serviceError(w, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"items": categories})
}

func (s *Server) handleCategorySummary(w http.ResponseWriter, r *http.Request) {
	var payload rangePayload
	user, ok := s.authenticate(w, r, &payload)
	if !ok {
		return
	}
	start, err := parseTimeParam(payload.Start)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid start date")
		return
	}
	end, err := parseTimeParam(payload.End)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid end date")
		return
	}
	totals, err := s.tracker.CategorySummary(r.Context(), user.ID,
		models.TransactionType(payload.Type), start, end)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	items := make([]map[string]any, 0, len(totals))
	for _, ct := range totals {
		items = append(items, map[string]any{"category": ct.Category, "total": ct.Total})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request) {
	var payload initPayload
	user, ok := s.authenticate(w, r, &payload)
	if !ok {
		return
	}
	code, err := s.tracker.CreateInvite(r.Context(), user.ID)
	if err != nil {
		s.storageError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"code": code})
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var payload joinPayload
	user, ok := s.authenticate(w, r, &payload)
	if !ok {
		return
	}
	ctx := r.Context()
	joined, err := s.tracker.RedeemInvite(ctx, user.ID, payload.Code)
	if err != nil {
		s.storageError(w, err)
		return
	}
	if !joined {
		s.writeError(w, http.StatusBadRequest, "Invalid or used code")
		return
	}
	balance, err := s.tracker.Balance(ctx, user.ID)
	if err != nil {
		s.storageError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "balance": balance})
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	var payload initPayload
	user, ok := s.authenticate(w, r, &payload)
	if !ok {
		return
	}
	ctx := r.Context()
	if err := s.tracker.Leave(ctx, user.ID); err != nil {
		s.storageError(w, err)
		return
	}
	balance, err := s.tracker.Balance(ctx, user.ID)
	if err != nil {
		s.storageError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "balance": balance})
}

func (s *Server) handleKick(w http.ResponseWriter, r *http.Request) {
	var payload kickPayload
	user, ok := s.authenticate(w, r, &payload)
	if !ok {
		return
	}
	var (
		removed bool
		err     error
	)
	if payload.TargetID != 0 {
		removed, err = s.tracker.RemoveMember(r.Context(), user.ID, payload.TargetID)
	} else {
		removed, err = s.tracker.RemoveMemberByName(r.Context(), user.ID, payload.TargetName)
	}
	if err != nil {
		s.storageError(w, err)
		return
	}
	if !removed {
		s.writeError(w, http.StatusBadRequest, "Not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	var payload initPayload
	user, ok := s.authenticate(w, r, &payload)
	if !ok {
		return
	}
	ctx := r.Context()
	state, err := s.tracker.State(ctx, user.ID)
	if err != nil {
		s.storageError(w, err)
		return
	}
	items := []map[string]any{}
	if state.HasShared {
		members, err := s.tracker.Members(ctx, user.ID, true)
		if err != nil {
			s.storageError(w, err)
			return
		}
		for _, m := range members {
			items = append(items, map[string]any{
				"telegram_id":  m.TelegramID,
				"display_name": m.DisplayName,
			})
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"telegram_id": user.ID,
		"users":       items,
		"mode":        state.Mode,
		"has_shared":  state.HasShared,
	})
}

func (s *Server) handleSwitch(w http.ResponseWriter, r *http.Request) {
	var payload switchPayload
	user, ok := s.authenticate(w, r, &payload)
	if !ok {
		return
	}
	ctx := r.Context()
	switched, err := s.tracker.Switch(ctx, user.ID, models.BudgetMode(payload.Mode))
	if err != nil {
		s.storageError(w, err)
		return
	}
	if !switched {
		s.writeError(w, http.StatusBadRequest, "Not allowed")
		return
	}
	balance, err := s.tracker.Balance(ctx, user.ID)
	if err != nil {
		s.storageError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "balance": balance})
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	var payload initPayload
	user, ok := s.authenticate(w, r, &payload)
	if !ok {
		return
	}
	plans, err := s.tracker.ListPlans(r.Context(), user.ID)
	if err != nil {
		s.storageError(w, err)
		return
	}
	items := make([]map[string]any, 0, len(plans))
	for _, p := range plans {
		items = append(items, planJSON(p))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var payload planPayload
	user, ok := s.authenticate(w, r, &payload)
	if !ok {
		return
	}
	_, err := s.tracker.CreatePlan(r.Context(), user.ID, payload.Title, payload.Description, payload.TargetAmount)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	var payload planIDPayload
	user, ok := s.authenticate(w, r, &payload)
	if !ok {
		return
	}
	plan, err := s.tracker.GetPlan(r.Context(), user.ID, payload.PlanID)
	if err != nil {
		s.storageError(w, err)
		return
	}
	if plan == nil {
		s.writeError(w, http.StatusNotFound, "Not found")
		return
	}
	s.writeJSON(w, http.StatusOK, planJSON(*plan))
}

func (s *Server) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	var payload planUpdatePayload
	user, ok := s.authenticate(w, r, &payload)
	if !ok {
		return
	}
	updated, err := s.tracker.UpdatePlan(r.Context(), user.ID, payload.PlanID,
		payload.Title, payload.Description, payload.TargetAmount)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	if !updated {
		s.writeError(w, http.StatusNotFound, "Not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleDepositPlan(w http.ResponseWriter, r *http.Request) {
	var payload planDepositPayload
	user, ok := s.authenticate(w, r, &payload)
	if !ok {
		return
	}
	deposited, err := s.tracker.DepositPlan(r.Context(), user.ID, payload.PlanID, payload.Amount)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	if !deposited {
		s.writeError(w, http.StatusNotFound, "Not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
