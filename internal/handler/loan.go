package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/anandpillai/loantrack/internal/domain"
	"github.com/anandpillai/loantrack/internal/service"
	customError "github.com/anandpillai/loantrack/pkg/errors"
	"github.com/anandpillai/loantrack/pkg/response"
)

type LoanHandler struct {
	ledger    *service.LedgerService
	dashboard *service.DashboardService
	validator *validator.Validate
}

func NewLoanHandler(ledger *service.LedgerService, dashboard *service.DashboardService) *LoanHandler {
	return &LoanHandler{
		ledger:    ledger,
		dashboard: dashboard,
		validator: validator.New(),
	}
}

// CreateLoan handles POST /loans
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	loan, err := h.ledger.CreateLoan(r.Context(), &request)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Created(w, loan)
}

// ListLoans handles GET /users/{userId}/loans
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	loans, err := h.dashboard.ListLoans(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, loans)
}

// GetDashboard handles GET /users/{userId}/dashboard
func (h *LoanHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	stats, err := h.dashboard.ComputeStats(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, stats)
}

// RecordPayment handles POST /loans/{loanId}/payments
func (h *LoanHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuid.Parse(mux.Vars(r)["loanId"])
	if err != nil {
		response.BadRequest(w, "Invalid loan id", err)
		return
	}

	var request domain.RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	var nextDueDate *time.Time
	if request.NextDueDate != "" {
		parsed, err := time.Parse("2006-01-02", request.NextDueDate)
		if err != nil {
			response.BadRequest(w, "Invalid next_due_date", err)
			return
		}
		nextDueDate = &parsed
	}

	payment, err := h.ledger.RecordPayment(r.Context(), loanID, request.Amount, nextDueDate)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Created(w, payment)
}

// ListPayments handles GET /loans/{loanId}/payments
func (h *LoanHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuid.Parse(mux.Vars(r)["loanId"])
	if err != nil {
		response.BadRequest(w, "Invalid loan id", err)
		return
	}

	payments, err := h.ledger.ListPayments(r.Context(), loanID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, payments)
}

// DeleteLoan handles DELETE /loans/{loanId}
func (h *LoanHandler) DeleteLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuid.Parse(mux.Vars(r)["loanId"])
	if err != nil {
		response.BadRequest(w, "Invalid loan id", err)
		return
	}

	if err := h.ledger.DeleteLoan(r.Context(), loanID); err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, map[string]string{"deleted": loanID.String()})
}

// RegisterDeviceToken handles PUT /users/{userId}/device-token
func (h *LoanHandler) RegisterDeviceToken(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	var request domain.RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	if err := h.ledger.RegisterDeviceToken(r.Context(), userID, request.Token); err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, map[string]string{"user_id": userID})
}

// writeServiceError maps the business error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, customError.ErrLoanNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, customError.ErrValidation):
		response.BadRequest(w, "Validation failed", err)
	case errors.Is(err, customError.ErrConcurrencyConflict):
		response.Conflict(w, "Concurrent update, retry the operation", err)
	default:
		response.InternalServerError(w, "Internal error", err)
	}
}
