package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"verigate/internal/payment"
	"verigate/internal/platform/middleware"
	"verigate/internal/token"
	"verigate/pkg/platform/httputil"
)

const maxHistoryLimit = 200

// HistoryService lists the gateway's own transaction records.
type HistoryService interface {
	History(ctx context.Context, limit int) ([]payment.Transaction, error)
}

// HistoryHandler exposes the locally recorded transaction log to operators.
// This is the gateway's record of initialize/verify traffic, not Paystack's
// ledger.
type HistoryHandler struct {
	service HistoryService
	logger  *slog.Logger
}

// NewHistory constructs the transaction-log handler.
func NewHistory(service HistoryService, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{service: service, logger: logger}
}

// Register mounts the transaction log. The surrounding router must already
// enforce RequireSession.
func (h *HistoryHandler) Register(r chi.Router) {
	r.Route("/api/payments/transactions", func(r chi.Router) {
		r.Use(middleware.RequireRole(h.logger, token.RoleAdmin, token.RoleSuperAdmin))
		r.Get("/", h.HandleList)
	})
}

type transactionView struct {
	Reference       string    `json:"reference"`
	Email           string    `json:"email"`
	Amount          int64     `json:"amount"`
	FormattedAmount string    `json:"formattedAmount"`
	Currency        string    `json:"currency"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// HandleList handles GET /api/payments/transactions?limit=N.
func (h *HistoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Envelope{
				Success: false,
				Error:   "limit must be a positive integer",
			})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	transactions, err := h.service.History(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "list payment transactions failed", "error", err)
		httputil.WriteError(w, err)
		return
	}

	views := make([]transactionView, 0, len(transactions))
	for _, tx := range transactions {
		views = append(views, transactionView{
			Reference:       tx.Reference,
			Email:           tx.Email,
			Amount:          tx.Amount,
			FormattedAmount: payment.FormatAmount(tx.Amount, tx.Currency),
			Currency:        tx.Currency,
			Status:          string(tx.Status),
			CreatedAt:       tx.CreatedAt,
			UpdatedAt:       tx.UpdatedAt,
		})
	}
	httputil.WriteData(w, http.StatusOK, map[string]any{"transactions": views})
}
