package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portssvc "github.com/SscSPs/bank_reconciliation/internal/core/ports/services"
	"github.com/SscSPs/bank_reconciliation/internal/dto"
	"github.com/SscSPs/bank_reconciliation/internal/handlers"
	"github.com/SscSPs/bank_reconciliation/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const testJWTSecret = "test-secret-key-that-is-long-enough"

// --- Mock PeriodService ---
type MockPeriodService struct {
	mock.Mock
}

func (m *MockPeriodService) GetReconciliationStatus(ctx context.Context, workplaceID, accountID string, period domain.Period, userID string) (*domain.PeriodStatus, error) {
	args := m.Called(ctx, workplaceID, accountID, period, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PeriodStatus), args.Error(1)
}

func (m *MockPeriodService) LockPeriod(ctx context.Context, workplaceID, accountID string, period domain.Period, userID string) (*domain.PeriodStatus, error) {
	args := m.Called(ctx, workplaceID, accountID, period, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PeriodStatus), args.Error(1)
}

func (m *MockPeriodService) UnlockPeriod(ctx context.Context, workplaceID, accountID string, period domain.Period, userID string) (*domain.PeriodStatus, error) {
	args := m.Called(ctx, workplaceID, accountID, period, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PeriodStatus), args.Error(1)
}

var _ portssvc.PeriodSvcFacade = (*MockPeriodService)(nil)

// generateTestToken creates a signed JWT the way clients present it.
func generateTestToken(t *testing.T, userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "recon-test",
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:          testJWTSecret,
		RateLimit:          "1000-M",
		CORSAllowedOrigins: []string{"http://localhost:3000"},
	}
}

// --- Test Suite ---
type PeriodHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockPeriod  *MockPeriodService
	workplaceID string
	accountID   string
	userID      string
	period      domain.Period
}

func (suite *PeriodHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.mockPeriod = new(MockPeriodService)
	suite.Require().NoError(handlers.RegisterRoutes(suite.router, testConfig(),
		&portssvc.ServiceContainer{Period: suite.mockPeriod}, handlers.RouteDeps{}))

	suite.workplaceID = uuid.NewString()
	suite.accountID = "acct-checking"
	suite.userID = uuid.NewString()
	period, err := domain.ParsePeriod("2026-01")
	suite.Require().NoError(err)
	suite.period = period
}

func (suite *PeriodHandlerTestSuite) do(method, suffix string, authorized bool) *httptest.ResponseRecorder {
	url := fmt.Sprintf("/api/v1/workplaces/%s/accounts/%s/periods/%s", suite.workplaceID, suite.accountID, suffix)
	req, _ := http.NewRequest(method, url, nil)
	if authorized {
		req.Header.Set("Authorization", "Bearer "+generateTestToken(suite.T(), suite.userID))
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *PeriodHandlerTestSuite) status(state domain.PeriodLockState, counts domain.PeriodCounts) *domain.PeriodStatus {
	return &domain.PeriodStatus{
		WorkplaceID:  suite.workplaceID,
		AccountID:    suite.accountID,
		Period:       suite.period,
		Status:       state,
		PeriodCounts: counts,
	}
}

func (suite *PeriodHandlerTestSuite) TestGetReconciliationStatus_Success() {
	suite.mockPeriod.On("GetReconciliationStatus", mock.Anything, suite.workplaceID, suite.accountID, suite.period, suite.userID).
		Return(suite.status(domain.PeriodOpen, domain.PeriodCounts{Matched: 3, Suggested: 1}), nil).Once()

	w := suite.do(http.MethodGet, "2026-01", true)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.PeriodStatusResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("2026-01", resp.Period)
	suite.Equal(3, resp.MatchedCount)
	suite.Equal(1, resp.SuggestedCount)
	suite.False(resp.Reconciled)
	suite.mockPeriod.AssertExpectations(suite.T())
}

func (suite *PeriodHandlerTestSuite) TestLockPeriod_RejectedWithOpenItems() {
	suite.mockPeriod.On("LockPeriod", mock.Anything, suite.workplaceID, suite.accountID, suite.period, suite.userID).
		Return(suite.status(domain.PeriodOpen, domain.PeriodCounts{Matched: 2, Unmatched: 1}),
			apperrors.NewPeriodNotReconciledError("account acct-checking period 2026-01 has 0 suggested and 1 unmatched feed transactions")).Once()

	w := suite.do(http.MethodPost, "2026-01/lock", true)

	suite.Equal(http.StatusLocked, w.Code)
	var resp dto.PeriodLockRejectedResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("PERIOD_NOT_RECONCILED", resp.Code)
	suite.Equal(1, resp.Status.UnmatchedCount)
	suite.Equal(domain.PeriodOpen, resp.Status.Status)
	suite.mockPeriod.AssertExpectations(suite.T())
}

func (suite *PeriodHandlerTestSuite) TestLockPeriod_Success() {
	locked := suite.status(domain.PeriodLocked, domain.PeriodCounts{Matched: 4})
	lockedAt := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	locked.LockedAt, locked.LockedBy = &lockedAt, &suite.userID
	suite.mockPeriod.On("LockPeriod", mock.Anything, suite.workplaceID, suite.accountID, suite.period, suite.userID).
		Return(locked, nil).Once()

	w := suite.do(http.MethodPost, "2026-01/lock", true)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.PeriodStatusResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(domain.PeriodLocked, resp.Status)
	suite.Require().NotNil(resp.LockedBy)
	suite.Equal(suite.userID, *resp.LockedBy)
}

func (suite *PeriodHandlerTestSuite) TestUnlockPeriod_Forbidden() {
	suite.mockPeriod.On("UnlockPeriod", mock.Anything, suite.workplaceID, suite.accountID, suite.period, suite.userID).
		Return(nil, fmt.Errorf("user lacks ADMIN: %w", apperrors.ErrForbidden)).Once()

	w := suite.do(http.MethodPost, "2026-01/unlock", true)

	suite.Equal(http.StatusForbidden, w.Code)
	suite.Contains(w.Body.String(), "FORBIDDEN")
}

func (suite *PeriodHandlerTestSuite) TestInvalidPeriod() {
	w := suite.do(http.MethodGet, "2026-13", true)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockPeriod.AssertNotCalled(suite.T(), "GetReconciliationStatus")
}

func (suite *PeriodHandlerTestSuite) TestMissingToken() {
	w := suite.do(http.MethodGet, "2026-01", false)

	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *PeriodHandlerTestSuite) TestInternalErrorHidesDetail() {
	suite.mockPeriod.On("GetReconciliationStatus", mock.Anything, suite.workplaceID, suite.accountID, suite.period, suite.userID).
		Return(nil, errors.New("connection reset by peer")).Once()

	w := suite.do(http.MethodGet, "2026-01", true)

	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.NotContains(w.Body.String(), "connection reset")
}

func TestPeriodHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(PeriodHandlerTestSuite))
}
