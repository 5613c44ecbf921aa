package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portssvc "github.com/SscSPs/bank_reconciliation/internal/core/ports/services"
	"github.com/SscSPs/bank_reconciliation/internal/dto"
	"github.com/SscSPs/bank_reconciliation/internal/middleware"
	"github.com/gin-gonic/gin"
)

type transferHandler struct {
	transferService portssvc.TransferSvcFacade
}

func newTransferHandler(ts portssvc.TransferSvcFacade) *transferHandler {
	return &transferHandler{transferService: ts}
}

func registerTransferRoutes(rg *gin.RouterGroup, ts portssvc.TransferSvcFacade, heavy gin.HandlerFunc) {
	h := newTransferHandler(ts)

	transfers := rg.Group("/transfers")
	{
		transfers.POST("/detect", heavy, h.detectTransfers)
		transfers.GET("", h.listTransfers)
		transfers.POST("", h.createTransfer)
		transfers.GET("/:transfer_id", h.getTransfer)
		transfers.POST("/:transfer_id/confirm", h.confirmTransfer)
		transfers.POST("/:transfer_id/reject", h.rejectTransfer)
	}
}

// detectTransfers godoc
// @Summary Detect transfers between workplace accounts
// @Description Pairs opposite-signed feed lines of different accounts within the date window and stores them as suggested transfers.
// @Tags transfers
// @Accept  json
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   request body dto.DetectTransfersRequest true "Date range"
// @Success 200 {object} dto.ListTransfersResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 429 {object} map[string]string "Too many requests"
// @Security BearerAuth
// @Router /workplaces/{workplace_id}/transfers/detect [post]
func (h *transferHandler) detectTransfers(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")

	var req dto.DetectTransfersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for DetectTransfers", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := currentUserID(c, logger)
	if !ok {
		return
	}
	// Formats are enforced by the datetime binding tag.
	from, _ := time.Parse(time.DateOnly, req.From)
	to, _ := time.Parse(time.DateOnly, req.To)
	r := domain.NewDateRange(from, to)
	if !r.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must not be after to"})
		return
	}

	logger = logger.With(slog.String("workplace_id", workplaceID), slog.String("from", req.From), slog.String("to", req.To))
	logger.Info("Received request to detect transfers")

	transfers, err := h.transferService.DetectTransfers(c.Request.Context(), workplaceID, r, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to detect transfers")
		return
	}
	logger.Info("Transfer detection finished", slog.Int("detected", len(transfers)))
	c.JSON(http.StatusOK, dto.ToListTransfersResponse(transfers))
}

// listTransfers godoc
// @Summary List detected transfers
// @Tags transfers
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   status query string false "Transfer status" Enums(suggested, confirmed, rejected)
// @Success 200 {object} dto.ListTransfersResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /workplaces/{workplace_id}/transfers [get]
func (h *transferHandler) listTransfers(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")

	var params dto.ListTransfersParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for ListTransfers", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}
	userID, ok := currentUserID(c, logger)
	if !ok {
		return
	}
	var status *domain.TransferStatus
	if params.Status != "" {
		s := domain.TransferStatus(params.Status)
		status = &s
	}
	logger = logger.With(slog.String("workplace_id", workplaceID))

	transfers, err := h.transferService.ListTransfers(c.Request.Context(), workplaceID, status, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to list transfers")
		return
	}
	c.JSON(http.StatusOK, dto.ToListTransfersResponse(transfers))
}

// createTransfer godoc
// @Summary Propose a transfer manually
// @Tags transfers
// @Accept  json
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   request body dto.CreateTransferRequest true "Feed transactions of both legs"
// @Success 201 {object} dto.TransferResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Feed transaction not found"
// @Failure 409 {object} map[string]string "Feed transaction already in a transfer"
// @Failure 423 {object} map[string]string "Period locked"
// @Security BearerAuth
// @Router /workplaces/{workplace_id}/transfers [post]
func (h *transferHandler) createTransfer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")

	var req dto.CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateTransfer", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := currentUserID(c, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("workplace_id", workplaceID), slog.String("from_feed_id", req.FromFeedID), slog.String("to_feed_id", req.ToFeedID))

	transfer, err := h.transferService.CreateTransfer(c.Request.Context(), workplaceID, req.FromFeedID, req.ToFeedID, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to create transfer")
		return
	}
	logger.Info("Transfer created", slog.String("transfer_id", transfer.TransferID))
	c.JSON(http.StatusCreated, dto.ToTransferResponse(transfer))
}

// getTransfer godoc
// @Summary Get a detected transfer
// @Tags transfers
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   transfer_id path string true "Transfer ID"
// @Success 200 {object} dto.TransferResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transfer not found"
// @Security BearerAuth
// @Router /workplaces/{workplace_id}/transfers/{transfer_id} [get]
func (h *transferHandler) getTransfer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")
	transferID := c.Param("transfer_id")

	userID, ok := currentUserID(c, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("workplace_id", workplaceID), slog.String("transfer_id", transferID))

	transfer, err := h.transferService.GetTransfer(c.Request.Context(), workplaceID, transferID, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to get transfer")
		return
	}
	c.JSON(http.StatusOK, dto.ToTransferResponse(transfer))
}

// confirmTransfer godoc
// @Summary Confirm a detected transfer
// @Description Confirms the pair and posts one ledger transaction per leg. Confirming again is a no-op.
// @Tags transfers
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   transfer_id path string true "Transfer ID"
// @Success 200 {object} dto.TransferResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transfer not found"
// @Failure 409 {object} map[string]string "Transfer was rejected"
// @Failure 423 {object} map[string]string "Period locked"
// @Security BearerAuth
// @Router /workplaces/{workplace_id}/transfers/{transfer_id}/confirm [post]
func (h *transferHandler) confirmTransfer(c *gin.Context) {
	h.changeTransferStatus(c, h.transferService.ConfirmTransfer, "Failed to confirm transfer")
}

// rejectTransfer godoc
// @Summary Reject a detected transfer
// @Description Frees both feed lines for matching and future detection.
// @Tags transfers
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   transfer_id path string true "Transfer ID"
// @Success 200 {object} dto.TransferResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transfer not found"
// @Failure 409 {object} map[string]string "Transfer already confirmed"
// @Failure 423 {object} map[string]string "Period locked"
// @Security BearerAuth
// @Router /workplaces/{workplace_id}/transfers/{transfer_id}/reject [post]
func (h *transferHandler) rejectTransfer(c *gin.Context) {
	h.changeTransferStatus(c, h.transferService.RejectTransfer, "Failed to reject transfer")
}

type transferStatusChange func(ctx context.Context, workplaceID, transferID, userID string) (*domain.DetectedTransfer, error)

func (h *transferHandler) changeTransferStatus(c *gin.Context, change transferStatusChange, failure string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")
	transferID := c.Param("transfer_id")

	userID, ok := currentUserID(c, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("workplace_id", workplaceID), slog.String("transfer_id", transferID))

	transfer, err := change(c.Request.Context(), workplaceID, transferID, userID)
	if err != nil {
		respondError(c, logger, err, failure)
		return
	}
	logger.Info("Transfer status changed", slog.String("status", string(transfer.Status)))
	c.JSON(http.StatusOK, dto.ToTransferResponse(transfer))
}
