package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/anandpillai/loantrack/internal/domain"
	customError "github.com/anandpillai/loantrack/pkg/errors"
)

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

const loanColumns = `id, user_id, title, direction, principal_amount, emi_amount, outstanding_amount,
		start_date, due_date, next_due_date, frequency, status, notes, created_at, updated_at`

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (id, user_id, title, direction, principal_amount, emi_amount, outstanding_amount,
			start_date, due_date, next_due_date, frequency, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.ExecContext(ctx, query,
		loan.ID,
		loan.UserID,
		loan.Title,
		loan.Direction,
		loan.Principal,
		loan.EMIAmount,
		loan.Outstanding,
		loan.StartDate,
		loan.DueDate,
		loan.NextDueDate,
		loan.Frequency,
		loan.Status,
		loan.Notes,
		loan.CreatedAt,
		loan.UpdatedAt,
	)

	return err
}

func (r *loanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	var loan domain.Loan
	if err := r.db.GetContext(ctx, &loan, query, id); err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE user_id = $1 ORDER BY created_at DESC`

	loans := []*domain.Loan{}
	if err := r.db.SelectContext(ctx, &loans, query, userID); err != nil {
		return nil, err
	}

	return loans, nil
}

func (r *loanRepository) ListActive(ctx context.Context) ([]*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE status = $1`

	loans := []*domain.Loan{}
	if err := r.db.SelectContext(ctx, &loans, query, domain.LoanStatusActive); err != nil {
		return nil, err
	}

	return loans, nil
}

// ApplyPayment is the one consistency-critical write path: the loan read, the
// loan update, and the payment insert commit together or not at all. The row
// lock serializes concurrent payments on the same loan, so the second caller
// always applies against the first caller's committed balance.
func (r *loanRepository) ApplyPayment(ctx context.Context, loanID uuid.UUID, apply ApplyPaymentFunc) (*domain.Payment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	defer tx.Rollback()

	var loan domain.Loan
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &loan, query, loanID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapLoanNotFound(loanID.String())
		}
		return nil, wrapTxError(loanID, err)
	}

	payment, err := apply(&loan)
	if err != nil {
		return nil, err
	}

	updateQuery := `
		UPDATE loans
		SET outstanding_amount = $2, status = $3, next_due_date = $4, updated_at = $5
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, updateQuery,
		loan.ID,
		loan.Outstanding,
		loan.Status,
		loan.NextDueDate,
		time.Now(),
	); err != nil {
		return nil, wrapTxError(loanID, err)
	}

	insertQuery := `
		INSERT INTO payments (id, loan_id, user_id, amount, paid_on, next_due_date)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := tx.ExecContext(ctx, insertQuery,
		payment.ID,
		payment.LoanID,
		payment.UserID,
		payment.Amount,
		payment.PaidOn,
		payment.NextDueDate,
	); err != nil {
		return nil, wrapTxError(loanID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapTxError(loanID, err)
	}

	return payment, nil
}

func (r *loanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM loans WHERE id = $1`, id)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}

	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return customError.WrapLoanNotFound(id.String())
	}

	return nil
}

// wrapTxError distinguishes lost races from plain database failures so the
// caller knows a retry is worthwhile.
func wrapTxError(loanID uuid.UUID, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// serialization_failure, deadlock_detected
		if pqErr.Code == "40001" || pqErr.Code == "40P01" {
			return customError.WrapConcurrencyConflict(loanID.String(), err)
		}
	}
	return customError.WrapDatabaseError(err)
}
