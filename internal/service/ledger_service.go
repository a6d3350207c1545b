package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/anandpillai/loantrack/internal/domain"
	"github.com/anandpillai/loantrack/internal/repository"
	customError "github.com/anandpillai/loantrack/pkg/errors"
)

const dateLayout = "2006-01-02"

// LedgerService owns every loan mutation. RecordPayment is the only
// consistency-critical operation in the system and runs as a single
// transaction through the repository.
type LedgerService struct {
	LoanRepo    repository.LoanRepository
	PaymentRepo repository.PaymentRepository
	TokenRepo   repository.DeviceTokenRepository
	Cache       *StatsCache
}

func NewLedgerService(
	loanRepo repository.LoanRepository,
	paymentRepo repository.PaymentRepository,
	tokenRepo repository.DeviceTokenRepository,
	cache *StatsCache,
) *LedgerService {
	return &LedgerService{
		LoanRepo:    loanRepo,
		PaymentRepo: paymentRepo,
		TokenRepo:   tokenRepo,
		Cache:       cache,
	}
}

// CreateLoan validates the request and inserts a new active loan with the
// outstanding balance equal to the principal. The next due date defaults to
// the first due date when not supplied.
func (s *LedgerService) CreateLoan(ctx context.Context, request *domain.CreateLoanRequest) (*domain.Loan, error) {
	if request.Title == "" {
		return nil, customError.WrapValidation("title must not be empty")
	}
	if !request.Principal.IsPositive() {
		return nil, customError.WrapValidation("principal_amount must be greater than zero")
	}
	if request.EMIAmount.IsNegative() {
		return nil, customError.WrapValidation("emi_amount must not be negative")
	}

	startDate, err := time.Parse(dateLayout, request.StartDate)
	if err != nil {
		return nil, customError.WrapValidation(fmt.Sprintf("start_date %q is not a valid date", request.StartDate))
	}
	dueDate, err := time.Parse(dateLayout, request.DueDate)
	if err != nil {
		return nil, customError.WrapValidation(fmt.Sprintf("due_date %q is not a valid date", request.DueDate))
	}

	nextDue := dueDate
	if request.NextDueDate != "" {
		nextDue, err = time.Parse(dateLayout, request.NextDueDate)
		if err != nil {
			return nil, customError.WrapValidation(fmt.Sprintf("next_due_date %q is not a valid date", request.NextDueDate))
		}
	}

	now := time.Now()
	loan := &domain.Loan{
		ID:          uuid.New(),
		UserID:      request.UserID,
		Title:       request.Title,
		Direction:   request.Direction,
		Principal:   request.Principal,
		EMIAmount:   request.EMIAmount,
		Outstanding: request.Principal,
		StartDate:   startDate,
		DueDate:     dueDate,
		NextDueDate: &nextDue,
		Frequency:   request.Frequency,
		Status:      domain.LoanStatusActive,
		Notes:       request.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.LoanRepo.Create(ctx, loan); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.Cache.Invalidate(ctx, loan.UserID)

	return loan, nil
}

// RecordPayment applies a payment to a loan atomically: the outstanding
// balance is clamped at zero, the status flips to closed exactly when the
// balance reaches zero, and the next due date advances per the loan's
// frequency. The loan update and the payment insert commit together.
//
// nextDueDate overrides the computed advancement when the caller already
// resolved it; the date still advances on a closed loan because closing is a
// function of the balance alone.
func (s *LedgerService) RecordPayment(ctx context.Context, loanID uuid.UUID, amount decimal.Decimal, nextDueDate *time.Time) (*domain.Payment, error) {
	if !amount.IsPositive() {
		return nil, customError.WrapValidation("payment amount must be greater than zero")
	}

	payment, err := s.LoanRepo.ApplyPayment(ctx, loanID, func(loan *domain.Loan) (*domain.Payment, error) {
		newOutstanding := loan.Outstanding.Sub(amount)
		if newOutstanding.IsNegative() {
			// Overpayment clamps to zero rather than going negative or
			// turning into credit.
			newOutstanding = decimal.Zero
		}

		newStatus := domain.LoanStatusActive
		if newOutstanding.LessThanOrEqual(decimal.Zero) {
			newStatus = domain.LoanStatusClosed
		}

		resolvedNextDue := s.resolveNextDueDate(loan, nextDueDate)

		loan.Outstanding = newOutstanding
		loan.Status = newStatus
		loan.NextDueDate = &resolvedNextDue

		return &domain.Payment{
			ID:          uuid.New(),
			LoanID:      loan.ID,
			UserID:      loan.UserID,
			Amount:      amount,
			PaidOn:      time.Now(),
			NextDueDate: resolvedNextDue,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.Cache.Invalidate(ctx, payment.UserID)

	return payment, nil
}

func (s *LedgerService) resolveNextDueDate(loan *domain.Loan, explicit *time.Time) time.Time {
	if explicit != nil {
		return *explicit
	}

	base := loan.DueDate
	if loan.NextDueDate != nil && !loan.NextDueDate.IsZero() {
		base = *loan.NextDueDate
	}
	if base.IsZero() {
		// A loan without any usable date gets today as the reference
		// rather than propagating a zero date forward.
		base = time.Now()
	}

	return domain.NextDueDate(loan.Frequency, base)
}

// DeleteLoan removes the loan record only. Its payment history is left in
// place on purpose.
func (s *LedgerService) DeleteLoan(ctx context.Context, loanID uuid.UUID) error {
	loan, err := s.LoanRepo.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapLoanNotFound(loanID.String())
		}
		return customError.WrapDatabaseError(err)
	}

	if err := s.LoanRepo.Delete(ctx, loanID); err != nil {
		return err
	}

	s.Cache.Invalidate(ctx, loan.UserID)

	return nil
}

// ListPayments returns the payment history for a loan, newest first.
func (s *LedgerService) ListPayments(ctx context.Context, loanID uuid.UUID) ([]*domain.Payment, error) {
	payments, err := s.PaymentRepo.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return payments, nil
}

// RegisterDeviceToken upserts the push token the reminder scanner resolves.
func (s *LedgerService) RegisterDeviceToken(ctx context.Context, userID, token string) error {
	if token == "" {
		return customError.WrapValidation("token must not be empty")
	}

	if err := s.TokenRepo.Register(ctx, userID, token); err != nil {
		return customError.WrapDatabaseError(err)
	}
	return nil
}
