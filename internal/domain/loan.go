package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	LoanStatusActive = "active"
	LoanStatusClosed = "closed"
)

const (
	DirectionIOwe     = "i_owe"
	DirectionOwedToMe = "owed_to_me"
)

// Loan represents a tracked debt obligation, either owed by or owed to the user.
type Loan struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	UserID      string          `json:"user_id" db:"user_id"`
	Title       string          `json:"title" db:"title"`
	Direction   string          `json:"direction" db:"direction"`
	Principal   decimal.Decimal `json:"principal_amount" db:"principal_amount"`
	EMIAmount   decimal.Decimal `json:"emi_amount" db:"emi_amount"`
	Outstanding decimal.Decimal `json:"outstanding_amount" db:"outstanding_amount"`
	StartDate   time.Time       `json:"start_date" db:"start_date"`
	DueDate     time.Time       `json:"due_date" db:"due_date"`
	NextDueDate *time.Time      `json:"next_due_date,omitempty" db:"next_due_date"`
	Frequency   string          `json:"frequency" db:"frequency"`
	Status      string          `json:"status" db:"status"`
	Notes       string          `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// IsClosed reports whether the loan has been fully repaid.
func (l *Loan) IsClosed() bool {
	return l.Status == LoanStatusClosed
}

// DTOs for requests and responses

type CreateLoanRequest struct {
	UserID      string          `json:"user_id" validate:"required"`
	Title       string          `json:"title" validate:"required"`
	Direction   string          `json:"direction" validate:"required,oneof=i_owe owed_to_me"`
	Principal   decimal.Decimal `json:"principal_amount" validate:"required"`
	EMIAmount   decimal.Decimal `json:"emi_amount"`
	StartDate   string          `json:"start_date" validate:"required"`
	DueDate     string          `json:"due_date" validate:"required"`
	NextDueDate string          `json:"next_due_date,omitempty"`
	Frequency   string          `json:"frequency" validate:"required,oneof=monthly weekly custom"`
	Notes       string          `json:"notes,omitempty"`
}

type RecordPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	NextDueDate string          `json:"next_due_date,omitempty"`
}

type RegisterTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// DashboardStats is the read-only summary derived over a user's loans.
type DashboardStats struct {
	TotalOutstandingOwed       decimal.Decimal `json:"total_outstanding_owed"`
	TotalOutstandingReceivable decimal.Decimal `json:"total_outstanding_receivable"`
	UpcomingDues               []*Loan         `json:"upcoming_dues"`
	RecentLoans                []*Loan         `json:"recent_loans"`
	AllLoans                   []*Loan         `json:"all_loans"`
}
