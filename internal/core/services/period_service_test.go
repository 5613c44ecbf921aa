package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bank_reconciliation/internal/core/ports/services"
	"github.com/SscSPs/bank_reconciliation/internal/core/services"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock PeriodLockRepository ---
type MockPeriodLockRepository struct {
	mock.Mock
}

var _ portsrepo.PeriodLockRepository = (*MockPeriodLockRepository)(nil)

func (m *MockPeriodLockRepository) GetPeriodStatus(ctx context.Context, workplaceID, accountID string, period domain.Period) (*domain.PeriodStatus, error) {
	args := m.Called(ctx, workplaceID, accountID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PeriodStatus), args.Error(1)
}

func (m *MockPeriodLockRepository) IsPeriodLocked(ctx context.Context, workplaceID, accountID string, period domain.Period) (bool, error) {
	args := m.Called(ctx, workplaceID, accountID, period)
	return args.Bool(0), args.Error(1)
}

func (m *MockPeriodLockRepository) LockPeriod(ctx context.Context, workplaceID, accountID string, period domain.Period, actor string, at time.Time) (*domain.PeriodStatus, bool, error) {
	args := m.Called(ctx, workplaceID, accountID, period, actor, at)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.PeriodStatus), args.Bool(1), args.Error(2)
}

func (m *MockPeriodLockRepository) UnlockPeriod(ctx context.Context, workplaceID, accountID string, period domain.Period, actor string, at time.Time) (*domain.PeriodStatus, bool, error) {
	args := m.Called(ctx, workplaceID, accountID, period, actor, at)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.PeriodStatus), args.Bool(1), args.Error(2)
}

// --- Mock WorkplaceAuthorizer ---
type MockWorkplaceAuthorizer struct {
	mock.Mock
}

var _ portssvc.WorkplaceAuthorizerSvc = (*MockWorkplaceAuthorizer)(nil)

func (m *MockWorkplaceAuthorizer) AuthorizeUserAction(ctx context.Context, userID, workplaceID string, requiredRole domain.UserWorkplaceRole) error {
	args := m.Called(ctx, userID, workplaceID, requiredRole)
	return args.Error(0)
}

// --- Mock MetricsRecorder ---
type MockMetrics struct {
	mock.Mock
}

var _ services.MetricsRecorder = (*MockMetrics)(nil)

func (m *MockMetrics) MatchDecisions(status string, n int) { m.Called(status, n) }
func (m *MockMetrics) MatchConfirmation(outcome string) { m.Called(outcome) }
func (m *MockMetrics) PeriodLockAttempt(outcome string) { m.Called(outcome) }
func (m *MockMetrics) TransferChange(status string, n int) { m.Called(status, n) }
func (m *MockMetrics) SuggestionPass(d time.Duration) { m.Called(d) }

type PeriodServiceTestSuite struct {
	suite.Suite
	repo        *MockPeriodLockRepository
	authorizer  *MockWorkplaceAuthorizer
	metrics     *MockMetrics
	events      *recordingPublisher
	service     portssvc.PeriodSvcFacade
	now         time.Time
	period      domain.Period
	workplaceID string
	userID      string
}

func (suite *PeriodServiceTestSuite) SetupTest() {
	suite.repo = new(MockPeriodLockRepository)
	suite.authorizer = new(MockWorkplaceAuthorizer)
	suite.metrics = new(MockMetrics)
	suite.events = &recordingPublisher{}
	suite.now = time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC)
	suite.period, _ = domain.NewPeriod(2026, time.January)
	suite.workplaceID = "wp-1"
	suite.userID = "user-1"
	suite.service = services.NewPeriodService(suite.repo,
		services.WithWorkplaceAuthorizer(suite.authorizer),
		services.WithMetrics(suite.metrics),
		services.WithEventPublisher(suite.events),
		services.WithClock(func() time.Time { return suite.now }),
	)
}

func (suite *PeriodServiceTestSuite) allow(role domain.UserWorkplaceRole) {
	suite.authorizer.On("AuthorizeUserAction", mock.Anything, suite.userID, suite.workplaceID, role).Return(nil).Once()
}

func (suite *PeriodServiceTestSuite) TestLockPeriod_NotReconciledReturnsStatus() {
	ctx := context.Background()
	open := &domain.PeriodStatus{
		WorkplaceID: suite.workplaceID, AccountID: "acct", Period: suite.period, Status: domain.PeriodOpen,
		PeriodCounts: domain.PeriodCounts{Matched: 2, Suggested: 1},
	}
	suite.allow(domain.RoleMember)
	suite.repo.On("LockPeriod", ctx, suite.workplaceID, "acct", suite.period, suite.userID, suite.now).
		Return(open, false, apperrors.NewPeriodNotReconciledError("open items")).Once()
	suite.metrics.On("PeriodLockAttempt", "not_reconciled").Once()

	status, err := suite.service.LockPeriod(ctx, suite.workplaceID, "acct", suite.period, suite.userID)

	suite.ErrorIs(err, apperrors.ErrPeriodLocked)
	suite.Equal(open, status)
	suite.Empty(suite.events.types())
	suite.repo.AssertExpectations(suite.T())
	suite.metrics.AssertExpectations(suite.T())
}

func (suite *PeriodServiceTestSuite) TestLockPeriod_SuccessPublishes() {
	ctx := context.Background()
	locked := &domain.PeriodStatus{
		WorkplaceID: suite.workplaceID, AccountID: "acct", Period: suite.period, Status: domain.PeriodLocked,
		PeriodCounts: domain.PeriodCounts{Matched: 3},
	}
	suite.allow(domain.RoleMember)
	suite.repo.On("LockPeriod", ctx, suite.workplaceID, "acct", suite.period, suite.userID, suite.now).
		Return(locked, true, nil).Once()
	suite.metrics.On("PeriodLockAttempt", "locked").Once()

	status, err := suite.service.LockPeriod(ctx, suite.workplaceID, "acct", suite.period, suite.userID)

	suite.Require().NoError(err)
	suite.True(status.IsLocked())
	suite.Equal([]string{domain.EventPeriodLocked}, suite.events.types())
	suite.Equal("acct:2026-01", suite.events.events[0].AggregateID)
	suite.metrics.AssertExpectations(suite.T())
}

func (suite *PeriodServiceTestSuite) TestLockPeriod_AlreadyLocked() {
	ctx := context.Background()
	locked := &domain.PeriodStatus{Period: suite.period, Status: domain.PeriodLocked}
	suite.allow(domain.RoleMember)
	suite.repo.On("LockPeriod", ctx, suite.workplaceID, "acct", suite.period, suite.userID, suite.now).
		Return(locked, false, nil).Once()
	suite.metrics.On("PeriodLockAttempt", "idempotent").Once()

	_, err := suite.service.LockPeriod(ctx, suite.workplaceID, "acct", suite.period, suite.userID)

	suite.NoError(err)
	suite.Empty(suite.events.types())
}

func (suite *PeriodServiceTestSuite) TestUnlockPeriod_RequiresAdmin() {
	ctx := context.Background()
	suite.authorizer.On("AuthorizeUserAction", ctx, suite.userID, suite.workplaceID, domain.RoleAdmin).
		Return(apperrors.ErrForbidden).Once()

	_, err := suite.service.UnlockPeriod(ctx, suite.workplaceID, "acct", suite.period, suite.userID)

	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.repo.AssertNotCalled(suite.T(), "UnlockPeriod", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PeriodServiceTestSuite) TestUnlockPeriod() {
	ctx := context.Background()
	open := &domain.PeriodStatus{WorkplaceID: suite.workplaceID, AccountID: "acct", Period: suite.period, Status: domain.PeriodOpen}
	suite.allow(domain.RoleAdmin)
	suite.repo.On("UnlockPeriod", ctx, suite.workplaceID, "acct", suite.period, suite.userID, suite.now).
		Return(open, true, nil).Once()

	status, err := suite.service.UnlockPeriod(ctx, suite.workplaceID, "acct", suite.period, suite.userID)

	suite.Require().NoError(err)
	suite.False(status.IsLocked())
	suite.Equal([]string{domain.EventPeriodUnlocked}, suite.events.types())
}

func (suite *PeriodServiceTestSuite) TestGetReconciliationStatus_Validation() {
	ctx := context.Background()
	suite.allow(domain.RoleReadOnly)

	_, err := suite.service.GetReconciliationStatus(ctx, suite.workplaceID, "", suite.period, suite.userID)

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.repo.AssertNotCalled(suite.T(), "GetPeriodStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPeriodServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PeriodServiceTestSuite))
}
