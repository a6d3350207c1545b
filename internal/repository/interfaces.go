package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/anandpillai/loantrack/internal/domain"
)

// ApplyPaymentFunc receives the loan row locked for update and mutates it in
// place, returning the payment receipt to insert in the same transaction.
type ApplyPaymentFunc func(loan *domain.Loan) (*domain.Payment, error)

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// Create inserts a new loan
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByID retrieves a loan by id
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error)

	// ListByUser retrieves a user's loans, newest created first
	ListByUser(ctx context.Context, userID string) ([]*domain.Loan, error)

	// ListActive retrieves every active loan across users
	ListActive(ctx context.Context) ([]*domain.Loan, error)

	// ApplyPayment runs apply against the locked loan row and persists the
	// mutated loan together with the returned payment, all-or-nothing.
	ApplyPayment(ctx context.Context, loanID uuid.UUID, apply ApplyPaymentFunc) (*domain.Payment, error)

	// Delete removes the loan row only; payment history stays in place
	Delete(ctx context.Context, id uuid.UUID) error
}

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	// ListByLoan retrieves all payments for a loan, newest first
	ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.Payment, error)
}

// DeviceTokenRepository maps a user id to zero-or-one push token
type DeviceTokenRepository interface {
	// Register upserts the user's device token
	Register(ctx context.Context, userID, token string) error

	// GetByUserID returns the user's token, or "" when none is registered
	GetByUserID(ctx context.Context, userID string) (string, error)
}

// NotificationRepository defines the interface for the in-app notification feed
type NotificationRepository interface {
	// Create inserts a notification entry
	Create(ctx context.Context, n *domain.Notification) error

	// ListByUser retrieves a user's notifications, newest first
	ListByUser(ctx context.Context, userID string) ([]*domain.Notification, error)

	// MarkRead flags a single notification as read
	MarkRead(ctx context.Context, id uuid.UUID) error

	// MarkAllRead flags all of a user's unread notifications as read
	MarkAllRead(ctx context.Context, userID string) error
}
