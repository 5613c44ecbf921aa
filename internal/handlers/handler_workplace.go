package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portssvc "github.com/SscSPs/bank_reconciliation/internal/core/ports/services"
	"github.com/SscSPs/bank_reconciliation/internal/dto"
	"github.com/SscSPs/bank_reconciliation/internal/middleware"
	"github.com/gin-gonic/gin"
)

// workplaceHandler handles HTTP requests related to workplaces.
type workplaceHandler struct {
	workplaceService portssvc.WorkplaceSvcFacade
}

// newWorkplaceHandler creates a new workplaceHandler.
func newWorkplaceHandler(ws portssvc.WorkplaceSvcFacade) *workplaceHandler {
	return &workplaceHandler{
		workplaceService: ws,
	}
}

// registerWorkplaceRoutes registers routes related to workplaces and their members.
func registerWorkplaceRoutes(rg *gin.RouterGroup, workplaceService portssvc.WorkplaceSvcFacade) {
	h := newWorkplaceHandler(workplaceService)

	workplacesTopLevel := rg.Group("/workplaces")
	{
		workplacesTopLevel.POST("", h.createWorkplace)
	}

	workplaceSpecific := rg.Group("/workplaces/:workplace_id")
	{
		workplaceSpecific.GET("", h.getWorkplace)
		workplaceSpecific.POST("/users", h.addUserToWorkplace)
	}
}

// currentUserID reads the authenticated user or writes a 401.
func currentUserID(c *gin.Context, logger *slog.Logger) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return userID, ok
}

// createWorkplace godoc
// @Summary Create a new workplace
// @Description Creates a new workplace and assigns the creator as admin.
// @Tags workplaces
// @Accept  json
// @Produce  json
// @Param   workplace body dto.CreateWorkplaceRequest true "Workplace details"
// @Success 201 {object} dto.WorkplaceResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to create workplace"
// @Security BearerAuth
// @Router /workplaces [post]
func (h *workplaceHandler) createWorkplace(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateWorkplaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateWorkplace", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	creatorUserID, ok := currentUserID(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("creator_user_id", creatorUserID))
	logger.Info("Received request to create workplace", slog.String("workplace_name", req.Name))

	newWorkplace, err := h.workplaceService.CreateWorkplace(c.Request.Context(), req.Name, creatorUserID)
	if err != nil {
		respondError(c, logger, err, "Failed to create workplace")
		return
	}

	logger.Info("Workplace created successfully", slog.String("workplace_id", newWorkplace.WorkplaceID))
	c.JSON(http.StatusCreated, dto.ToWorkplaceResponse(newWorkplace))
}

// getWorkplace godoc
// @Summary Get a workplace
// @Description Returns the workplace when the caller is a member.
// @Tags workplaces
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Success 200 {object} dto.WorkplaceResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Workplace not found"
// @Security BearerAuth
// @Router /workplaces/{workplace_id} [get]
func (h *workplaceHandler) getWorkplace(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")

	userID, ok := currentUserID(c, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("workplace_id", workplaceID))

	if err := h.workplaceService.AuthorizeUserAction(c.Request.Context(), userID, workplaceID, domain.RoleReadOnly); err != nil {
		respondError(c, logger, err, "Failed to authorize workplace access")
		return
	}
	workplace, err := h.workplaceService.FindWorkplaceByID(c.Request.Context(), workplaceID)
	if err != nil {
		respondError(c, logger, err, "Failed to get workplace")
		return
	}
	c.JSON(http.StatusOK, dto.ToWorkplaceResponse(workplace))
}

// addUserToWorkplace godoc
// @Summary Add a user to a workplace
// @Description Adds a specified user to a workplace with a given role (requires admin permission).
// @Tags workplaces
// @Accept  json
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   user_details body dto.AddUserToWorkplaceRequest true "User ID and Role"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden (caller is not admin)"
// @Failure 404 {object} map[string]string "Workplace not found"
// @Failure 500 {object} map[string]string "Failed to add user"
// @Security BearerAuth
// @Router /workplaces/{workplace_id}/users [post]
func (h *workplaceHandler) addUserToWorkplace(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")

	var req dto.AddUserToWorkplaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for AddUserToWorkplace", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	addingUserID, ok := currentUserID(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("adding_user_id", addingUserID), slog.String("workplace_id", workplaceID), slog.String("target_user_id", req.UserID))
	logger.Info("Received request to add user to workplace", slog.String("role", string(req.Role)))

	if err := h.workplaceService.AddUserToWorkplace(c.Request.Context(), addingUserID, req.UserID, workplaceID, req.Role); err != nil {
		respondError(c, logger, err, "Failed to add user to workplace")
		return
	}

	logger.Info("User added to workplace successfully")
	c.Status(http.StatusNoContent)
}
