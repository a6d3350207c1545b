package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is an immutable receipt of money applied to a loan. It references its
// loan by id only; deleting the loan does not remove its payment history.
type Payment struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	LoanID      uuid.UUID       `json:"loan_id" db:"loan_id"`
	UserID      string          `json:"user_id" db:"user_id"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	PaidOn      time.Time       `json:"paid_on" db:"paid_on"`
	NextDueDate time.Time       `json:"next_due_date" db:"next_due_date"`
}
