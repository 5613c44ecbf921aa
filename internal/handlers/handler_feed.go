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

type feedHandler struct {
	feedService portssvc.FeedSvc
}

func newFeedHandler(fs portssvc.FeedSvc) *feedHandler {
	return &feedHandler{feedService: fs}
}

func registerFeedRoutes(rg *gin.RouterGroup, fs portssvc.FeedSvc, heavy gin.HandlerFunc) {
	h := newFeedHandler(fs)

	feeds := rg.Group("/feed-transactions")
	{
		feeds.POST("", h.importFeedTransactions)
		feeds.GET("", h.listFeedTransactions)
		feeds.POST("/bulk-create-transactions", heavy, h.bulkCreateTransactions)
	}
}

// importFeedTransactions godoc
// @Summary Import bank feed transactions
// @Description Stores immutable feed lines for one account. Amounts are signed cents.
// @Tags feed
// @Accept  json
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   request body dto.ImportFeedTransactionsRequest true "Feed lines"
// @Success 201 {object} dto.ListFeedTransactionsResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Duplicate feed transaction"
// @Failure 423 {object} map[string]string "Period locked"
// @Security BearerAuth
// @Router /workplaces/{workplace_id}/feed-transactions [post]
func (h *feedHandler) importFeedTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")

	var req dto.ImportFeedTransactionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ImportFeedTransactions", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := currentUserID(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("workplace_id", workplaceID), slog.String("account_id", req.AccountID))
	logger.Info("Received request to import feed transactions", slog.Int("count", len(req.Transactions)))

	feeds, err := h.feedService.ImportFeedTransactions(c.Request.Context(), workplaceID, req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to import feed transactions")
		return
	}
	logger.Info("Feed transactions imported", slog.Int("count", len(feeds)))
	c.JSON(http.StatusCreated, dto.ToListFeedTransactionsResponse(feeds))
}

// listFeedTransactions godoc
// @Summary List feed transactions of an account period
// @Tags feed
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   accountID query string true "Account ID"
// @Param   period query string true "Period (YYYY-MM)"
// @Success 200 {object} dto.ListFeedTransactionsResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /workplaces/{workplace_id}/feed-transactions [get]
func (h *feedHandler) listFeedTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")

	var params dto.ListFeedTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for ListFeedTransactions", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}
	userID, ok := currentUserID(c, logger)
	if !ok {
		return
	}
	period, err := domain.ParsePeriod(params.Period)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	logger = logger.With(slog.String("workplace_id", workplaceID), slog.String("account_id", params.AccountID))

	feeds, err := h.feedService.ListFeedTransactions(c.Request.Context(), workplaceID, params.AccountID, period, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to list feed transactions")
		return
	}
	c.JSON(http.StatusOK, dto.ToListFeedTransactionsResponse(feeds))
}

// bulkCreateTransactions godoc
// @Summary Create ledger transactions from unmatched feed lines
// @Description Posts one ledger transaction per feed line and records each pair as matched. Items fail independently.
// @Tags feed
// @Accept  json
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   request body dto.BulkCreateTransactionsRequest true "Feed transaction IDs"
// @Success 200 {object} dto.BulkCreateTransactionsResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 429 {object} map[string]string "Too many requests"
// @Security BearerAuth
// @Router /workplaces/{workplace_id}/feed-transactions/bulk-create-transactions [post]
func (h *feedHandler) bulkCreateTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")

	var req dto.BulkCreateTransactionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for BulkCreateTransactions", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := currentUserID(c, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("workplace_id", workplaceID), slog.Int("count", len(req.FeedTransactionIDs)))

	results, err := h.feedService.BulkCreateTransactions(c.Request.Context(), workplaceID, req.FeedTransactionIDs, req.CategoryID, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to create transactions")
		return
	}
	resp := dto.ToBulkCreateTransactionsResponse(results)
	logger.Info("Bulk create finished", slog.Int("created", resp.SuccessCount), slog.Int("failed", resp.FailureCount))
	c.JSON(http.StatusOK, resp)
}
