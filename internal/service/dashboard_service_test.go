package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/anandpillai/loantrack/internal/domain"
	"github.com/anandpillai/loantrack/tests/mocks"
)

func statsLoan(direction, status string, outstanding int64, dueIn int, now time.Time) *domain.Loan {
	due := now.AddDate(0, 0, dueIn)
	return &domain.Loan{
		ID:          uuid.New(),
		UserID:      "user-1",
		Direction:   direction,
		Outstanding: decimal.NewFromInt(outstanding),
		NextDueDate: &due,
		Status:      status,
	}
}

func TestComputeStats(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

	loans := []*domain.Loan{
		statsLoan(domain.DirectionIOwe, domain.LoanStatusActive, 1000, 2, now),
		statsLoan(domain.DirectionIOwe, domain.LoanStatusActive, 500, 10, now),
		statsLoan(domain.DirectionOwedToMe, domain.LoanStatusActive, 2000, 7, now),
		// Closed loans count toward nothing.
		statsLoan(domain.DirectionIOwe, domain.LoanStatusClosed, 0, 1, now),
		statsLoan(domain.DirectionOwedToMe, domain.LoanStatusClosed, 300, 3, now),
	}

	mockLoanRepo := &mocks.MockLoanRepository{}
	mockLoanRepo.On("ListByUser", mock.Anything, "user-1").Return(loans, nil)

	service := &DashboardService{
		LoanRepo:           mockLoanRepo,
		UpcomingWindowDays: 7,
		RecentLoansLimit:   5,
		Now:                func() time.Time { return now },
	}

	stats, err := service.ComputeStats(context.Background(), "user-1")

	require.NoError(t, err)
	assert.True(t, stats.TotalOutstandingOwed.Equal(decimal.NewFromInt(1500)),
		"owed total, got %s", stats.TotalOutstandingOwed)
	assert.True(t, stats.TotalOutstandingReceivable.Equal(decimal.NewFromInt(2000)),
		"receivable total, got %s", stats.TotalOutstandingReceivable)

	// Due in 2 and due in 7 fall inside the window; due in 10 and the closed
	// loans do not.
	require.Len(t, stats.UpcomingDues, 2)
	assert.Equal(t, loans[0].ID, stats.UpcomingDues[0].ID)
	assert.Equal(t, loans[2].ID, stats.UpcomingDues[1].ID)

	assert.Len(t, stats.AllLoans, 5)
	assert.Len(t, stats.RecentLoans, 5)
}

func TestComputeStats_WindowBoundariesInclusive(t *testing.T) {
	now := time.Date(2024, time.March, 10, 23, 30, 0, 0, time.UTC)

	loans := []*domain.Loan{
		statsLoan(domain.DirectionIOwe, domain.LoanStatusActive, 100, 0, now),
		statsLoan(domain.DirectionIOwe, domain.LoanStatusActive, 100, 7, now),
		statsLoan(domain.DirectionIOwe, domain.LoanStatusActive, 100, 8, now),
	}

	mockLoanRepo := &mocks.MockLoanRepository{}
	mockLoanRepo.On("ListByUser", mock.Anything, "user-1").Return(loans, nil)

	service := &DashboardService{
		LoanRepo:           mockLoanRepo,
		UpcomingWindowDays: 7,
		RecentLoansLimit:   5,
		Now:                func() time.Time { return now },
	}

	stats, err := service.ComputeStats(context.Background(), "user-1")

	require.NoError(t, err)
	require.Len(t, stats.UpcomingDues, 2, "due today and due on day 7 are inclusive bounds")
}

func TestComputeStats_WindowWithWestOfUTCClock(t *testing.T) {
	// Due dates load from DATE columns as midnight UTC. A host clock west of
	// UTC must not push a due-today loan out of the window, nor pull a
	// day-8 loan into it.
	est := time.FixedZone("EST", -5*60*60)
	now := time.Date(2024, time.March, 10, 9, 0, 0, 0, est)

	utcDay := func(d int) *time.Time {
		due := time.Date(2024, time.March, 10+d, 0, 0, 0, 0, time.UTC)
		return &due
	}

	loans := []*domain.Loan{
		{ID: uuid.New(), UserID: "user-1", Direction: domain.DirectionIOwe,
			Outstanding: decimal.NewFromInt(100), Status: domain.LoanStatusActive, NextDueDate: utcDay(0)},
		{ID: uuid.New(), UserID: "user-1", Direction: domain.DirectionIOwe,
			Outstanding: decimal.NewFromInt(100), Status: domain.LoanStatusActive, NextDueDate: utcDay(7)},
		{ID: uuid.New(), UserID: "user-1", Direction: domain.DirectionIOwe,
			Outstanding: decimal.NewFromInt(100), Status: domain.LoanStatusActive, NextDueDate: utcDay(8)},
	}

	mockLoanRepo := &mocks.MockLoanRepository{}
	mockLoanRepo.On("ListByUser", mock.Anything, "user-1").Return(loans, nil)

	service := &DashboardService{
		LoanRepo:           mockLoanRepo,
		UpcomingWindowDays: 7,
		RecentLoansLimit:   5,
		Now:                func() time.Time { return now },
	}

	stats, err := service.ComputeStats(context.Background(), "user-1")

	require.NoError(t, err)
	require.Len(t, stats.UpcomingDues, 2)
	assert.Equal(t, loans[0].ID, stats.UpcomingDues[0].ID, "due today stays in the window")
	assert.Equal(t, loans[1].ID, stats.UpcomingDues[1].ID)
}

func TestComputeStats_EmptyPortfolio(t *testing.T) {
	mockLoanRepo := &mocks.MockLoanRepository{}
	mockLoanRepo.On("ListByUser", mock.Anything, "user-1").Return([]*domain.Loan{}, nil)

	service := &DashboardService{
		LoanRepo:           mockLoanRepo,
		UpcomingWindowDays: 7,
		RecentLoansLimit:   5,
	}

	stats, err := service.ComputeStats(context.Background(), "user-1")

	require.NoError(t, err)
	assert.True(t, stats.TotalOutstandingOwed.IsZero())
	assert.True(t, stats.TotalOutstandingReceivable.IsZero())
	assert.Empty(t, stats.UpcomingDues)
	assert.Empty(t, stats.RecentLoans)
}

func TestListLoans_PassesThrough(t *testing.T) {
	loans := []*domain.Loan{{ID: uuid.New(), UserID: "user-1"}}

	mockLoanRepo := &mocks.MockLoanRepository{}
	mockLoanRepo.On("ListByUser", mock.Anything, "user-1").Return(loans, nil)

	service := &DashboardService{LoanRepo: mockLoanRepo}

	got, err := service.ListLoans(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, loans, got)
	mockLoanRepo.AssertExpectations(t)
}
