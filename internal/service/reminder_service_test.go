package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/anandpillai/loantrack/internal/domain"
	"github.com/anandpillai/loantrack/tests/mocks"
)

var scanNow = time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)

func newScanner(loanRepo *mocks.MockLoanRepository, tokenRepo *mocks.MockDeviceTokenRepository, pusher *mocks.MockPusher) *ReminderService {
	return &ReminderService{
		LoanRepo:        loanRepo,
		TokenRepo:       tokenRepo,
		Pusher:          pusher,
		Offsets:         []int{0, 1, 3},
		DispatchTimeout: time.Second,
		Concurrency:     4,
		Currency:        "INR",
		Now:             func() time.Time { return scanNow },
	}
}

func loanDueIn(days int, direction string) *domain.Loan {
	due := scanNow.AddDate(0, 0, days)
	return &domain.Loan{
		ID:          uuid.New(),
		UserID:      "user-1",
		Title:       "Ravi",
		Direction:   direction,
		EMIAmount:   decimal.NewFromInt(2500),
		Outstanding: decimal.NewFromInt(7500),
		NextDueDate: &due,
		Frequency:   domain.FrequencyMonthly,
		Status:      domain.LoanStatusActive,
	}
}

func TestRun_DispatchesAtThreeDayOffset(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}
	tokenRepo := &mocks.MockDeviceTokenRepository{}
	pusher := &mocks.MockPusher{}

	matching := loanDueIn(3, domain.DirectionIOwe)
	tooFar := loanDueIn(5, domain.DirectionIOwe)

	loanRepo.On("ListActive", mock.Anything).Return([]*domain.Loan{matching, tooFar}, nil)
	tokenRepo.On("GetByUserID", mock.Anything, "user-1").Return("device-token", nil)
	pusher.On("Send", mock.Anything, mock.MatchedBy(func(msg *domain.PushMessage) bool {
		return msg.LoanID == matching.ID &&
			msg.Token == "device-token" &&
			msg.Title == "Upcoming Payment in 3 Days" &&
			msg.Body == "You need to pay INR 2500 to Ravi."
	})).Return(nil).Once()

	newScanner(loanRepo, tokenRepo, pusher).Run(context.Background())

	// Exactly one dispatch: the 5-day loan matched no offset.
	pusher.AssertNumberOfCalls(t, "Send", 1)
	loanRepo.AssertExpectations(t)
	pusher.AssertExpectations(t)
}

func TestRun_DueTodayCollectionFraming(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}
	tokenRepo := &mocks.MockDeviceTokenRepository{}
	pusher := &mocks.MockPusher{}

	loan := loanDueIn(0, domain.DirectionOwedToMe)

	loanRepo.On("ListActive", mock.Anything).Return([]*domain.Loan{loan}, nil)
	tokenRepo.On("GetByUserID", mock.Anything, "user-1").Return("device-token", nil)
	pusher.On("Send", mock.Anything, mock.MatchedBy(func(msg *domain.PushMessage) bool {
		return msg.Title == "💰 Collection Due Today!" &&
			msg.Body == "You are owed INR 2500 from Ravi."
	})).Return(nil).Once()

	newScanner(loanRepo, tokenRepo, pusher).Run(context.Background())

	pusher.AssertExpectations(t)
}

func TestRun_DueTomorrowPaymentFraming(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}
	tokenRepo := &mocks.MockDeviceTokenRepository{}
	pusher := &mocks.MockPusher{}

	loan := loanDueIn(1, domain.DirectionIOwe)

	loanRepo.On("ListActive", mock.Anything).Return([]*domain.Loan{loan}, nil)
	tokenRepo.On("GetByUserID", mock.Anything, "user-1").Return("device-token", nil)
	pusher.On("Send", mock.Anything, mock.MatchedBy(func(msg *domain.PushMessage) bool {
		return msg.Title == "Upcoming Payment in 1 Days"
	})).Return(nil).Once()

	newScanner(loanRepo, tokenRepo, pusher).Run(context.Background())

	pusher.AssertExpectations(t)
}

func TestRun_MatchesUTCDueDatesOnWestOfUTCClock(t *testing.T) {
	// Due dates load as midnight UTC; the scanner clock runs in the host zone.
	// A due-today loan must fire the due-today message, not shift a day.
	est := time.FixedZone("EST", -5*60*60)
	localNow := time.Date(2024, time.March, 10, 9, 0, 0, 0, est)

	dueToday := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	dueInThree := time.Date(2024, time.March, 13, 0, 0, 0, 0, time.UTC)

	today := loanDueIn(0, domain.DirectionIOwe)
	today.NextDueDate = &dueToday
	upcoming := loanDueIn(0, domain.DirectionIOwe)
	upcoming.NextDueDate = &dueInThree

	loanRepo := &mocks.MockLoanRepository{}
	tokenRepo := &mocks.MockDeviceTokenRepository{}
	pusher := &mocks.MockPusher{}

	loanRepo.On("ListActive", mock.Anything).Return([]*domain.Loan{today, upcoming}, nil)
	tokenRepo.On("GetByUserID", mock.Anything, "user-1").Return("device-token", nil)
	pusher.On("Send", mock.Anything, mock.MatchedBy(func(msg *domain.PushMessage) bool {
		return msg.LoanID == today.ID && msg.Title == "⚠️ Payment Due Today!"
	})).Return(nil).Once()
	pusher.On("Send", mock.Anything, mock.MatchedBy(func(msg *domain.PushMessage) bool {
		return msg.LoanID == upcoming.ID && msg.Title == "Upcoming Payment in 3 Days"
	})).Return(nil).Once()

	scanner := newScanner(loanRepo, tokenRepo, pusher)
	scanner.Now = func() time.Time { return localNow }
	scanner.Run(context.Background())

	pusher.AssertExpectations(t)
}

func TestRun_NoTokenSkipsSilently(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}
	tokenRepo := &mocks.MockDeviceTokenRepository{}
	pusher := &mocks.MockPusher{}

	loan := loanDueIn(0, domain.DirectionIOwe)

	loanRepo.On("ListActive", mock.Anything).Return([]*domain.Loan{loan}, nil)
	tokenRepo.On("GetByUserID", mock.Anything, "user-1").Return("", nil)

	newScanner(loanRepo, tokenRepo, pusher).Run(context.Background())

	pusher.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestRun_DispatchFailureDoesNotBlockOthers(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}
	tokenRepo := &mocks.MockDeviceTokenRepository{}
	pusher := &mocks.MockPusher{}

	failing := loanDueIn(0, domain.DirectionIOwe)
	healthy := loanDueIn(1, domain.DirectionIOwe)

	loanRepo.On("ListActive", mock.Anything).Return([]*domain.Loan{failing, healthy}, nil)
	tokenRepo.On("GetByUserID", mock.Anything, "user-1").Return("device-token", nil)
	pusher.On("Send", mock.Anything, mock.MatchedBy(func(msg *domain.PushMessage) bool {
		return msg.LoanID == failing.ID
	})).Return(errors.New("fcm unavailable"))
	pusher.On("Send", mock.Anything, mock.MatchedBy(func(msg *domain.PushMessage) bool {
		return msg.LoanID == healthy.ID
	})).Return(nil).Once()

	newScanner(loanRepo, tokenRepo, pusher).Run(context.Background())

	pusher.AssertNumberOfCalls(t, "Send", 2)
}

func TestRun_ListFailureAbortsRun(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}
	tokenRepo := &mocks.MockDeviceTokenRepository{}
	pusher := &mocks.MockPusher{}

	loanRepo.On("ListActive", mock.Anything).Return(nil, errors.New("connection refused"))

	newScanner(loanRepo, tokenRepo, pusher).Run(context.Background())

	tokenRepo.AssertNotCalled(t, "GetByUserID", mock.Anything, mock.Anything)
	pusher.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestRun_SkipsLoansWithoutDueDate(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}
	tokenRepo := &mocks.MockDeviceTokenRepository{}
	pusher := &mocks.MockPusher{}

	loan := loanDueIn(0, domain.DirectionIOwe)
	loan.NextDueDate = nil

	loanRepo.On("ListActive", mock.Anything).Return([]*domain.Loan{loan}, nil)

	newScanner(loanRepo, tokenRepo, pusher).Run(context.Background())

	pusher.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestRun_PersistsInAppNotification(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}
	tokenRepo := &mocks.MockDeviceTokenRepository{}
	notificationRepo := &mocks.MockNotificationRepository{}
	pusher := &mocks.MockPusher{}

	loan := loanDueIn(0, domain.DirectionIOwe)

	loanRepo.On("ListActive", mock.Anything).Return([]*domain.Loan{loan}, nil)
	tokenRepo.On("GetByUserID", mock.Anything, "user-1").Return("device-token", nil)
	notificationRepo.On("Create", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.UserID == "user-1" && n.Kind == domain.NotificationKindWarning && !n.Read
	})).Return(nil).Once()
	pusher.On("Send", mock.Anything, mock.Anything).Return(nil)

	scanner := newScanner(loanRepo, tokenRepo, pusher)
	scanner.NotificationRepo = notificationRepo
	scanner.Run(context.Background())

	notificationRepo.AssertExpectations(t)
}
