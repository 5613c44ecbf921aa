package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bank_reconciliation/internal/core/ports/services"
	"github.com/SscSPs/bank_reconciliation/internal/core/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock WorkplaceRepository ---
type MockWorkplaceRepository struct {
	mock.Mock
}

var _ portsrepo.WorkplaceRepositoryFacade = (*MockWorkplaceRepository)(nil)

func (m *MockWorkplaceRepository) FindWorkplaceByID(ctx context.Context, workplaceID string) (*domain.Workplace, error) {
	args := m.Called(ctx, workplaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Workplace), args.Error(1)
}

func (m *MockWorkplaceRepository) SaveWorkplace(ctx context.Context, workplace domain.Workplace) error {
	args := m.Called(ctx, workplace)
	return args.Error(0)
}

func (m *MockWorkplaceRepository) AddUserToWorkplace(ctx context.Context, membership domain.UserWorkplace) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *MockWorkplaceRepository) FindUserWorkplaceRole(ctx context.Context, userID, workplaceID string) (*domain.UserWorkplace, error) {
	args := m.Called(ctx, userID, workplaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserWorkplace), args.Error(1)
}

type WorkplaceServiceTestSuite struct {
	suite.Suite
	mockRepo    *MockWorkplaceRepository
	service     portssvc.WorkplaceSvcFacade
	workplaceID string
	userID      string
}

func (suite *WorkplaceServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockWorkplaceRepository)
	suite.service = services.NewWorkplaceService(suite.mockRepo)
	suite.workplaceID = uuid.NewString()
	suite.userID = uuid.NewString()
}

func (suite *WorkplaceServiceTestSuite) member(role domain.UserWorkplaceRole) {
	suite.mockRepo.On("FindUserWorkplaceRole", mock.Anything, suite.userID, suite.workplaceID).
		Return(&domain.UserWorkplace{UserID: suite.userID, WorkplaceID: suite.workplaceID, Role: role}, nil).Once()
}

func (suite *WorkplaceServiceTestSuite) TestCreateWorkplace_AddsCreatorAsAdmin() {
	ctx := context.Background()
	suite.mockRepo.On("SaveWorkplace", ctx, mock.MatchedBy(func(w domain.Workplace) bool {
		return w.Name == "Household" && w.IsActive && w.CreatedBy == suite.userID
	})).Return(nil).Once()
	suite.mockRepo.On("AddUserToWorkplace", ctx, mock.MatchedBy(func(m domain.UserWorkplace) bool {
		return m.UserID == suite.userID && m.Role == domain.RoleAdmin
	})).Return(nil).Once()

	w, err := suite.service.CreateWorkplace(ctx, "  Household ", suite.userID)

	suite.Require().NoError(err)
	suite.Equal("Household", w.Name)
	suite.NotEmpty(w.WorkplaceID)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *WorkplaceServiceTestSuite) TestCreateWorkplace_EmptyName() {
	_, err := suite.service.CreateWorkplace(context.Background(), "   ", suite.userID)

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveWorkplace", mock.Anything, mock.Anything)
}

func (suite *WorkplaceServiceTestSuite) TestCreateWorkplace_MembershipFailure() {
	ctx := context.Background()
	suite.mockRepo.On("SaveWorkplace", ctx, mock.Anything).Return(nil).Once()
	suite.mockRepo.On("AddUserToWorkplace", ctx, mock.Anything).Return(errors.New("db down")).Once()

	w, err := suite.service.CreateWorkplace(ctx, "Household", suite.userID)

	suite.Error(err)
	suite.Nil(w)
}

func (suite *WorkplaceServiceTestSuite) TestAuthorizeUserAction() {
	ctx := context.Background()

	suite.member(domain.RoleAdmin)
	suite.NoError(suite.service.AuthorizeUserAction(ctx, suite.userID, suite.workplaceID, domain.RoleMember))

	suite.member(domain.RoleReadOnly)
	suite.ErrorIs(suite.service.AuthorizeUserAction(ctx, suite.userID, suite.workplaceID, domain.RoleMember), apperrors.ErrForbidden)

	suite.member(domain.RoleRemoved)
	suite.ErrorIs(suite.service.AuthorizeUserAction(ctx, suite.userID, suite.workplaceID, domain.RoleReadOnly), apperrors.ErrForbidden)

	suite.mockRepo.On("FindUserWorkplaceRole", ctx, suite.userID, suite.workplaceID).
		Return(nil, apperrors.NewNotFoundError("membership")).Once()
	suite.ErrorIs(suite.service.AuthorizeUserAction(ctx, suite.userID, suite.workplaceID, domain.RoleReadOnly), apperrors.ErrForbidden)

	suite.ErrorIs(suite.service.AuthorizeUserAction(ctx, "", suite.workplaceID, domain.RoleReadOnly), apperrors.ErrUnauthorized)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *WorkplaceServiceTestSuite) TestAddUserToWorkplace_RequiresAdmin() {
	ctx := context.Background()
	suite.member(domain.RoleMember)

	err := suite.service.AddUserToWorkplace(ctx, suite.userID, uuid.NewString(), suite.workplaceID, domain.RoleMember)

	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockRepo.AssertNotCalled(suite.T(), "AddUserToWorkplace", mock.Anything, mock.Anything)
}

func (suite *WorkplaceServiceTestSuite) TestAddUserToWorkplace_InvalidRole() {
	ctx := context.Background()
	suite.member(domain.RoleAdmin)

	err := suite.service.AddUserToWorkplace(ctx, suite.userID, uuid.NewString(), suite.workplaceID, domain.RoleRemoved)

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *WorkplaceServiceTestSuite) TestAddUserToWorkplace_Success() {
	ctx := context.Background()
	target := uuid.NewString()
	suite.member(domain.RoleAdmin)
	suite.mockRepo.On("AddUserToWorkplace", ctx, mock.MatchedBy(func(m domain.UserWorkplace) bool {
		return m.UserID == target && m.Role == domain.RoleReadOnly
	})).Return(nil).Once()

	suite.NoError(suite.service.AddUserToWorkplace(ctx, suite.userID, target, suite.workplaceID, domain.RoleReadOnly))
	suite.mockRepo.AssertExpectations(suite.T())
}

func TestWorkplaceServiceTestSuite(t *testing.T) {
	suite.Run(t, new(WorkplaceServiceTestSuite))
}
