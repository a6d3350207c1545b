package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/anandpillai/loantrack/internal/domain"
	"github.com/anandpillai/loantrack/internal/repository"
	customError "github.com/anandpillai/loantrack/pkg/errors"
)

// Pusher is the external push-messaging collaborator. Failures are not
// retried by the scanner.
type Pusher interface {
	Send(ctx context.Context, msg *domain.PushMessage) error
}

// ReminderService scans all active loans once per run and dispatches at most
// one reminder per loan whose calendar-day gap to the due date matches a
// configured offset. The scan is fire-and-forget: it surfaces nothing to its
// caller beyond logs.
//
// There is no dedup store, so running the scan twice on the same day resends
// the same reminders.
type ReminderService struct {
	LoanRepo         repository.LoanRepository
	TokenRepo        repository.DeviceTokenRepository
	NotificationRepo repository.NotificationRepository
	Pusher           Pusher

	Offsets         []int
	DispatchTimeout time.Duration
	Concurrency     int
	Currency        string

	// Now is a clock override for tests; nil means time.Now.
	Now func() time.Time
}

func NewReminderService(
	loanRepo repository.LoanRepository,
	tokenRepo repository.DeviceTokenRepository,
	notificationRepo repository.NotificationRepository,
	pusher Pusher,
	offsets []int,
	dispatchTimeout time.Duration,
	concurrency int,
	currency string,
) *ReminderService {
	return &ReminderService{
		LoanRepo:         loanRepo,
		TokenRepo:        tokenRepo,
		NotificationRepo: notificationRepo,
		Pusher:           pusher,
		Offsets:          offsets,
		DispatchTimeout:  dispatchTimeout,
		Concurrency:      concurrency,
		Currency:         currency,
	}
}

// Run executes one reminder scan. Loans fan out concurrently with no shared
// state; a dispatch failure for one loan never blocks the others. Only a
// failure to list the active loans aborts the run.
func (s *ReminderService) Run(ctx context.Context) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	slog.Info("reminder scan starting")

	loans, err := s.LoanRepo.ListActive(ctx)
	if err != nil {
		slog.Error("reminder scan aborted", "error", customError.WrapScanAbort(err))
		return
	}

	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	dispatched := 0
	for _, loan := range loans {
		diffDays, ok := s.matchOffset(now, loan)
		if !ok {
			continue
		}
		dispatched++

		g.Go(func() error {
			s.remind(gctx, loan, diffDays)
			// Dispatch failures are logged inside remind and must not
			// cancel the sibling dispatches.
			return nil
		})
	}

	_ = g.Wait()

	slog.Info("reminder scan complete", "loans_checked", len(loans), "loans_matched", dispatched)
}

// matchOffset reports whether the loan's due date is exactly one of the
// reminder offsets away from today.
func (s *ReminderService) matchOffset(now time.Time, loan *domain.Loan) (int, bool) {
	if loan.Status != domain.LoanStatusActive || loan.NextDueDate == nil {
		return 0, false
	}

	diffDays := domain.DaysUntil(now, *loan.NextDueDate)
	for _, offset := range s.Offsets {
		if diffDays == offset {
			return diffDays, true
		}
	}
	return 0, false
}

func (s *ReminderService) remind(ctx context.Context, loan *domain.Loan, diffDays int) {
	title, body := s.composeMessage(loan, diffDays)

	s.recordNotification(ctx, loan, title, body, diffDays)

	token, err := s.TokenRepo.GetByUserID(ctx, loan.UserID)
	if err != nil {
		slog.Error("device token lookup failed", "loan_id", loan.ID, "user_id", loan.UserID, "error", err)
		return
	}
	if token == "" {
		// User has no registered device; nothing to dispatch.
		return
	}

	dispatchCtx, cancel := context.WithTimeout(ctx, s.DispatchTimeout)
	defer cancel()

	msg := &domain.PushMessage{
		Title:  title,
		Body:   body,
		Token:  token,
		LoanID: loan.ID,
	}

	if err := s.Pusher.Send(dispatchCtx, msg); err != nil {
		slog.Error("reminder dispatch failed", "error", customError.WrapDispatchFailure(loan.ID.String(), err))
		return
	}

	slog.Info("reminder dispatched", "loan_id", loan.ID, "due_in_days", diffDays)
}

func (s *ReminderService) composeMessage(loan *domain.Loan, diffDays int) (title, body string) {
	amount := fmt.Sprintf("%s %s", s.Currency, loan.EMIAmount.String())

	if loan.Direction == domain.DirectionIOwe {
		if diffDays == 0 {
			title = "⚠️ Payment Due Today!"
		} else {
			title = fmt.Sprintf("Upcoming Payment in %d Days", diffDays)
		}
		body = fmt.Sprintf("You need to pay %s to %s.", amount, loan.Title)
		return title, body
	}

	if diffDays == 0 {
		title = "💰 Collection Due Today!"
	} else {
		title = fmt.Sprintf("Collection Expected in %d Days", diffDays)
	}
	body = fmt.Sprintf("You are owed %s from %s.", amount, loan.Title)
	return title, body
}

// recordNotification appends the reminder to the in-app feed. Best-effort:
// a write failure is logged with the same swallow policy as push dispatch.
func (s *ReminderService) recordNotification(ctx context.Context, loan *domain.Loan, title, body string, diffDays int) {
	if s.NotificationRepo == nil {
		return
	}

	kind := domain.NotificationKindInfo
	if diffDays == 0 {
		kind = domain.NotificationKindWarning
	}

	n := &domain.Notification{
		ID:        uuid.New(),
		UserID:    loan.UserID,
		Title:     title,
		Message:   body,
		Kind:      kind,
		CreatedAt: time.Now(),
	}

	if err := s.NotificationRepo.Create(ctx, n); err != nil {
		slog.Error("in-app notification write failed", "loan_id", loan.ID, "error", err)
	}
}
