package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JoeShih716/go-finance-tracker/internal/app/core/domain"
	"github.com/JoeShih716/go-finance-tracker/internal/app/core/usecase"
)

// Handler 帳務的 HTTP/JSON 介面
type Handler struct {
	tracker  usecase.Tracker
	currency string
	logger   *slog.Logger
}

// NewHandler 建立 Handler，currency 空白時使用 USD
func NewHandler(tracker usecase.Tracker, currency string, logger *slog.Logger) *Handler {
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	return &Handler{
		tracker:  tracker,
		currency: currency,
		logger:   logger,
	}
}

// Routes 建立 chi router
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.State)
		r.Get("/balance", h.Balance)
		r.Get("/user", h.User)
		r.Post("/login", h.LogIn)

		r.Route("/credits", func(r chi.Router) {
			r.Get("/", h.ListCredits)
			r.Post("/", h.AddCredit)
		})
		r.Route("/debits", func(r chi.Router) {
			r.Get("/", h.ListDebits)
			r.Post("/", h.AddDebit)
		})
	})
	return r
}

// entryView 清單中的一筆，附上畫面用的格式化字串
type entryView struct {
	ID          string      `json:"id"`
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
	Date        string      `json:"date"`
	Display     string      `json:"display"`
}

func (h *Handler) view(tx domain.Transaction) entryView {
	return entryView{
		ID:          tx.ID.String(),
		Description: tx.Description,
		Amount:      json.Number(tx.Amount.String()),
		Date:        tx.OccurredAt.Format(time.RFC3339Nano),
		Display:     domain.FormatLine(tx, h.currency),
	}
}

func (h *Handler) views(list []domain.Transaction) []entryView {
	out := make([]entryView, 0, len(list))
	for _, tx := range list {
		out = append(out, h.view(tx))
	}
	return out
}

// State GET /api/state 完整快照
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	s := h.tracker.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"accountBalance": s.BalanceString(),
		"display":        domain.FormatAmount(s.Balance, h.currency),
		"creditList":     h.views(s.Credits),
		"debitList":      h.views(s.Debits),
		"currentUser":    s.User,
		"version":        s.Version,
	})
}

// Balance GET /api/balance 兩位小數餘額
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"accountBalance": h.tracker.AccountBalance(),
	})
}

// User GET /api/user 目前使用者
func (h *Handler) User(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.CurrentUser())
}

// ListCredits GET /api/credits 收入清單 (依加入順序)
func (h *Handler) ListCredits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"creditList": h.views(h.tracker.CreditList()),
	})
}

// ListDebits GET /api/debits 支出清單 (依加入順序)
func (h *Handler) ListDebits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"debitList": h.views(h.tracker.DebitList()),
	})
}

// AddCredit POST /api/credits 新增收入
func (h *Handler) AddCredit(w http.ResponseWriter, r *http.Request) {
	h.add(w, r, h.tracker.AddCredit)
}

// AddDebit POST /api/debits 新增支出
func (h *Handler) AddDebit(w http.ResponseWriter, r *http.Request) {
	h.add(w, r, h.tracker.AddDebit)
}

// add 回應使用這次提交的快照，不會混入之後其他寫入
func (h *Handler) add(w http.ResponseWriter, r *http.Request, add func(domain.Transaction) (domain.Transaction, domain.State, error)) {
	var entry domain.Transaction
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeJSONError(w, http.StatusBadRequest, "invalid_parameter", ve.Error())
			return
		}
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}

	saved, state, err := add(entry)
	if err != nil {
		h.writeMutationError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"entry":          h.view(saved),
		"accountBalance": state.BalanceString(),
		"version":        state.Version,
	})
}

// logInRequest 模擬登入
type logInRequest struct {
	UserName string `json:"userName"`
}

// LogIn POST /api/login 模擬登入，只替換名稱
func (h *Handler) LogIn(w http.ResponseWriter, r *http.Request) {
	var req logInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	state, err := h.tracker.SetCurrentUser(domain.UserUpdate{UserName: req.UserName})
	if err != nil {
		h.writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state.User)
}

func (h *Handler) writeMutationError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", ve.Error())
		return
	}
	h.logger.Error("mutation failed", "error", err)
	writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to update ledger")
}

// ErrorResponse 錯誤回應格式
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func writeJSONError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, ErrorResponse{Error: code, ErrorDescription: description})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
