package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portssvc "github.com/SscSPs/bank_reconciliation/internal/core/ports/services"
	"github.com/SscSPs/bank_reconciliation/internal/dto"
	"github.com/SscSPs/bank_reconciliation/internal/middleware"
	"github.com/gin-gonic/gin"
)

type periodHandler struct {
	periodService portssvc.PeriodSvcFacade
}

func newPeriodHandler(ps portssvc.PeriodSvcFacade) *periodHandler {
	return &periodHandler{periodService: ps}
}

func registerPeriodRoutes(rg *gin.RouterGroup, ps portssvc.PeriodSvcFacade) {
	h := newPeriodHandler(ps)

	periods := rg.Group("/accounts/:account_id/periods/:period")
	{
		periods.GET("", h.getReconciliationStatus)
		periods.POST("/lock", h.lockPeriod)
		periods.POST("/unlock", h.unlockPeriod)
	}
}

// bindPeriod reads the account and period path parameters or writes a 400.
func bindPeriod(c *gin.Context, logger *slog.Logger) (string, domain.Period, bool) {
	var uri dto.PeriodURI
	if err := c.ShouldBindUri(&uri); err != nil {
		logger.Warn("Failed to bind period path", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid path parameters: " + err.Error()})
		return "", domain.Period{}, false
	}
	period, err := domain.ParsePeriod(uri.Period)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", domain.Period{}, false
	}
	return uri.AccountID, period, true
}

// getReconciliationStatus godoc
// @Summary Get reconciliation status of an account period
// @Description Counts feed transactions per resolution and reports the lock state.
// @Tags periods
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   account_id path string true "Account ID"
// @Param   period path string true "Period (YYYY-MM)"
// @Success 200 {object} dto.PeriodStatusResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Security BearerAuth
// @Router /workplaces/{workplace_id}/accounts/{account_id}/periods/{period} [get]
func (h *periodHandler) getReconciliationStatus(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")

	accountID, period, ok := bindPeriod(c, logger)
	if !ok {
		return
	}
	userID, ok := currentUserID(c, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("workplace_id", workplaceID), slog.String("account_id", accountID), slog.String("period", period.String()))

	status, err := h.periodService.GetReconciliationStatus(c.Request.Context(), workplaceID, accountID, period, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to get reconciliation status")
		return
	}
	c.JSON(http.StatusOK, dto.ToPeriodStatusResponse(status))
}

// lockPeriod godoc
// @Summary Lock an account period
// @Description Locks the period when every feed transaction is matched or part of a confirmed transfer. Locking a locked period is a no-op.
// @Tags periods
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   account_id path string true "Account ID"
// @Param   period path string true "Period (YYYY-MM)"
// @Success 200 {object} dto.PeriodStatusResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 423 {object} dto.PeriodLockRejectedResponse "Period has open items"
// @Security BearerAuth
// @Router /workplaces/{workplace_id}/accounts/{account_id}/periods/{period}/lock [post]
func (h *periodHandler) lockPeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")

	accountID, period, ok := bindPeriod(c, logger)
	if !ok {
		return
	}
	userID, ok := currentUserID(c, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("workplace_id", workplaceID), slog.String("account_id", accountID), slog.String("period", period.String()))
	logger.Info("Received request to lock period")

	status, err := h.periodService.LockPeriod(c.Request.Context(), workplaceID, accountID, period, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrPeriodNotReconciled) && status != nil {
			logger.Warn("Period lock rejected", slog.Int("suggested", status.Suggested), slog.Int("unmatched", status.Unmatched))
			c.JSON(http.StatusLocked, dto.PeriodLockRejectedResponse{
				Error:  errorMessage(err),
				Code:   apperrors.Code(err),
				Status: dto.ToPeriodStatusResponse(status),
			})
			return
		}
		respondError(c, logger, err, "Failed to lock period")
		return
	}
	logger.Info("Period locked")
	c.JSON(http.StatusOK, dto.ToPeriodStatusResponse(status))
}

// unlockPeriod godoc
// @Summary Unlock an account period
// @Description Reopens a locked period (requires admin permission). Unlocking an open period is a no-op.
// @Tags periods
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   account_id path string true "Account ID"
// @Param   period path string true "Period (YYYY-MM)"
// @Success 200 {object} dto.PeriodStatusResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden (caller is not admin)"
// @Security BearerAuth
// @Router /workplaces/{workplace_id}/accounts/{account_id}/periods/{period}/unlock [post]
func (h *periodHandler) unlockPeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")

	accountID, period, ok := bindPeriod(c, logger)
	if !ok {
		return
	}
	userID, ok := currentUserID(c, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("workplace_id", workplaceID), slog.String("account_id", accountID), slog.String("period", period.String()))

	status, err := h.periodService.UnlockPeriod(c.Request.Context(), workplaceID, accountID, period, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to unlock period")
		return
	}
	logger.Info("Period unlocked")
	c.JSON(http.StatusOK, dto.ToPeriodStatusResponse(status))
}
