package services

import (
	"context"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
)

// WorkplaceReaderSvc defines read operations for workplaces
type WorkplaceReaderSvc interface {
	FindWorkplaceByID(ctx context.Context, workplaceID string) (*domain.Workplace, error)
}

// WorkplaceWriterSvc defines write operations for workplaces
type WorkplaceWriterSvc interface {
	CreateWorkplace(ctx context.Context, name, creatorUserID string) (*domain.Workplace, error)
}

// WorkplaceMembershipSvc defines operations for managing workplace memberships
type WorkplaceMembershipSvc interface {
	AddUserToWorkplace(ctx context.Context, addingUserID, targetUserID, workplaceID string, role domain.UserWorkplaceRole) error
}

// WorkplaceAuthorizerSvc defines authorization operations
type WorkplaceAuthorizerSvc interface {
	// AuthorizeUserAction returns apperrors.ErrForbidden when the user is not a member
	// or holds a role below requiredRole.
	AuthorizeUserAction(ctx context.Context, userID, workplaceID string, requiredRole domain.UserWorkplaceRole) error
}

// WorkplaceSvcFacade combines all workplace-related service interfaces
type WorkplaceSvcFacade interface {
	WorkplaceReaderSvc
	WorkplaceWriterSvc
	WorkplaceMembershipSvc
	WorkplaceAuthorizerSvc
}
