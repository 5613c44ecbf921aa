package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bank_reconciliation/internal/core/ports/services"
	"github.com/google/uuid"
)

// workplaceService implements the WorkplaceSvcFacade interface
type workplaceService struct {
	BaseService
	workplaceRepo portsrepo.WorkplaceRepositoryFacade
}

// NewWorkplaceService creates a new workplace service with the provided dependencies
func NewWorkplaceService(workplaceRepo portsrepo.WorkplaceRepositoryFacade, opts ...Option) portssvc.WorkplaceSvcFacade {
	svc := &workplaceService{workplaceRepo: workplaceRepo}
	svc.apply(opts)
	return svc
}

// Ensure workplaceService implements the WorkplaceSvcFacade interface
var _ portssvc.WorkplaceSvcFacade = (*workplaceService)(nil)

// FindWorkplaceByID retrieves a workplace by its ID
func (s *workplaceService) FindWorkplaceByID(ctx context.Context, workplaceID string) (*domain.Workplace, error) {
	workplace, err := s.workplaceRepo.FindWorkplaceByID(ctx, workplaceID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find workplace by ID",
				slog.String("workplace_id", workplaceID))
		}
		return nil, err
	}
	return workplace, nil
}

// CreateWorkplace creates a new workplace and makes the creator its admin
func (s *workplaceService) CreateWorkplace(ctx context.Context, name, creatorUserID string) (*domain.Workplace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("workplace name is required")
	}

	now := s.Now()
	workplace := domain.Workplace{
		WorkplaceID: uuid.NewString(),
		Name:        name,
		IsActive:    true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.workplaceRepo.SaveWorkplace(ctx, workplace); err != nil {
		s.LogError(ctx, err, "Failed to save workplace",
			slog.String("workplace_id", workplace.WorkplaceID))
		return nil, err
	}

	membership := domain.UserWorkplace{
		UserID:      creatorUserID,
		WorkplaceID: workplace.WorkplaceID,
		Role:        domain.RoleAdmin,
		JoinedAt:    now,
	}
	if err := s.workplaceRepo.AddUserToWorkplace(ctx, membership); err != nil {
		s.LogError(ctx, err, "Failed to add creator as admin to new workplace",
			slog.String("workplace_id", workplace.WorkplaceID),
			slog.String("user_id", creatorUserID))
		return nil, fmt.Errorf("failed to add creator to workplace: %w", err)
	}

	s.LogInfo(ctx, "Workplace created successfully",
		slog.String("workplace_id", workplace.WorkplaceID),
		slog.String("creator_id", creatorUserID))
	return &workplace, nil
}

// AddUserToWorkplace adds a user to a workplace with a specific role. Only admins may add members.
func (s *workplaceService) AddUserToWorkplace(ctx context.Context, addingUserID, targetUserID, workplaceID string, role domain.UserWorkplaceRole) error {
	if err := s.AuthorizeUserAction(ctx, addingUserID, workplaceID, domain.RoleAdmin); err != nil {
		return err
	}
	if !role.Satisfies(domain.RoleReadOnly) {
		return apperrors.NewValidationError(fmt.Sprintf("invalid role %q", role))
	}

	membership := domain.UserWorkplace{
		UserID:      targetUserID,
		WorkplaceID: workplaceID,
		Role:        role,
		JoinedAt:    s.Now(),
	}
	if err := s.workplaceRepo.AddUserToWorkplace(ctx, membership); err != nil {
		s.LogError(ctx, err, "Failed to add user to workplace",
			slog.String("target_user_id", targetUserID),
			slog.String("workplace_id", workplaceID))
		return err
	}

	s.LogInfo(ctx, "User added to workplace successfully",
		slog.String("target_user_id", targetUserID),
		slog.String("workplace_id", workplaceID),
		slog.String("role", string(role)))
	return nil
}

// AuthorizeUserAction checks if a user holds requiredRole or higher in a workplace.
// Non-members get apperrors.ErrForbidden, the same as members with too low a role.
func (s *workplaceService) AuthorizeUserAction(ctx context.Context, userID, workplaceID string, requiredRole domain.UserWorkplaceRole) error {
	if userID == "" {
		return apperrors.ErrUnauthorized
	}
	membership, err := s.workplaceRepo.FindUserWorkplaceRole(ctx, userID, workplaceID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.LogDebug(ctx, "User not a member of workplace",
				slog.String("user_id", userID),
				slog.String("workplace_id", workplaceID))
			return apperrors.ErrForbidden
		}
		s.LogError(ctx, err, "Failed to find user workplace role",
			slog.String("user_id", userID),
			slog.String("workplace_id", workplaceID))
		return err
	}

	if !membership.Role.Satisfies(requiredRole) {
		s.LogDebug(ctx, "User does not have required role",
			slog.String("user_id", userID),
			slog.String("workplace_id", workplaceID),
			slog.String("user_role", string(membership.Role)),
			slog.String("required_role", string(requiredRole)))
		return apperrors.ErrForbidden
	}
	return nil
}
