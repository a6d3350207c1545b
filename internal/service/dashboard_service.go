package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/anandpillai/loantrack/internal/domain"
	"github.com/anandpillai/loantrack/internal/repository"
	customError "github.com/anandpillai/loantrack/pkg/errors"
)

// DashboardService derives read-only summaries over a user's loans. The cache
// is advisory: ledger mutations invalidate it and any miss re-reads storage.
type DashboardService struct {
	LoanRepo repository.LoanRepository
	Cache    *StatsCache

	UpcomingWindowDays int
	RecentLoansLimit   int

	// Now is a clock override for tests; nil means time.Now.
	Now func() time.Time
}

func NewDashboardService(loanRepo repository.LoanRepository, cache *StatsCache, upcomingWindowDays, recentLoansLimit int) *DashboardService {
	return &DashboardService{
		LoanRepo:           loanRepo,
		Cache:              cache,
		UpcomingWindowDays: upcomingWindowDays,
		RecentLoansLimit:   recentLoansLimit,
	}
}

// ListLoans returns all loans owned by the user, newest created first.
func (s *DashboardService) ListLoans(ctx context.Context, userID string) ([]*domain.Loan, error) {
	loans, err := s.LoanRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return loans, nil
}

// ComputeStats sums outstanding balances by direction over active loans and
// collects the active loans due within the upcoming window.
func (s *DashboardService) ComputeStats(ctx context.Context, userID string) (*domain.DashboardStats, error) {
	if cached, ok := s.Cache.Get(ctx, userID); ok {
		return cached, nil
	}

	loans, err := s.LoanRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	today := domain.StartOfDay(now)
	windowEnd := today.AddDate(0, 0, s.UpcomingWindowDays)

	stats := &domain.DashboardStats{
		TotalOutstandingOwed:       decimal.Zero,
		TotalOutstandingReceivable: decimal.Zero,
		UpcomingDues:               []*domain.Loan{},
		AllLoans:                   loans,
	}

	for _, loan := range loans {
		if loan.Status != domain.LoanStatusActive {
			continue
		}

		switch loan.Direction {
		case domain.DirectionIOwe:
			stats.TotalOutstandingOwed = stats.TotalOutstandingOwed.Add(loan.Outstanding)
		case domain.DirectionOwedToMe:
			stats.TotalOutstandingReceivable = stats.TotalOutstandingReceivable.Add(loan.Outstanding)
		}

		if loan.NextDueDate != nil {
			due := domain.CalendarDay(*loan.NextDueDate, now.Location())
			if !due.Before(today) && !due.After(windowEnd) {
				stats.UpcomingDues = append(stats.UpcomingDues, loan)
			}
		}
	}

	limit := s.RecentLoansLimit
	if limit <= 0 || limit > len(loans) {
		limit = len(loans)
	}
	stats.RecentLoans = loans[:limit]

	s.Cache.Set(ctx, userID, stats)

	return stats, nil
}
