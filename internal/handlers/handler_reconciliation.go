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

type reconciliationHandler struct {
	reconciliationService portssvc.ReconciliationSvcFacade
}

func newReconciliationHandler(rs portssvc.ReconciliationSvcFacade) *reconciliationHandler {
	return &reconciliationHandler{reconciliationService: rs}
}

// registerReconciliationRoutes registers suggestion and match routes under a workplace group.
// heavy guards the endpoints that run a scoring pass or touch many rows.
func registerReconciliationRoutes(rg *gin.RouterGroup, rs portssvc.ReconciliationSvcFacade, heavy gin.HandlerFunc) {
	h := newReconciliationHandler(rs)

	rg.POST("/reconciliation/suggestions", heavy, h.generateSuggestions)
	rg.GET("/feed-transactions/:feed_id/suggestions", h.getSuggestions)

	matches := rg.Group("/matches")
	{
		matches.GET("", h.listMatches)
		matches.POST("", h.createMatch)
		matches.POST("/bulk-confirm", heavy, h.bulkConfirmMatches)
		matches.GET("/:match_id", h.getMatch)
		matches.POST("/:match_id/confirm", h.confirmMatch)
		matches.DELETE("/:match_id", h.unmatch)
	}
}

// generateSuggestions godoc
// @Summary Generate match suggestions for an account period
// @Description Scores every unresolved feed transaction of the period against ledger candidates and stores the outcome.
// @Tags reconciliation
// @Accept  json
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   request body dto.GenerateSuggestionsRequest true "Account and period"
// @Success 200 {object} dto.SuggestionRunResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 423 {object} map[string]string "Period locked"
// @Failure 500 {object} map[string]string "Failed to generate suggestions"
// @Security BearerAuth
// @Router /workplaces/{workplace_id}/reconciliation/suggestions [post]
func (h *reconciliationHandler) generateSuggestions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")

	var req dto.GenerateSuggestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for GenerateSuggestions", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := currentUserID(c, logger)
	if !ok {
		return
	}
	period, err := domain.ParsePeriod(req.Period)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logger = logger.With(slog.String("workplace_id", workplaceID), slog.String("account_id", req.AccountID), slog.String("period", req.Period))
	logger.Info("Received request to generate suggestions")

	result, err := h.reconciliationService.GenerateSuggestions(c.Request.Context(), workplaceID, req.AccountID, period, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to generate suggestions")
		return
	}
	logger.Info("Suggestions generated", slog.Int("considered", result.Considered), slog.Int("suggested", result.Suggested), slog.Int("auto_matched", result.AutoMatched))
	c.JSON(http.StatusOK, dto.ToSuggestionRunResponse(result))
}

// getSuggestions godoc
// @Summary Rank ledger candidates for a feed transaction
// @Description Returns unclaimed ledger transactions at or above the suggestion threshold, best first. Nothing is stored.
// @Tags reconciliation
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   feed_id path string true "Feed transaction ID"
// @Param   limit query int false "Maximum number of suggestions"
// @Success 200 {object} dto.GetSuggestionsResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Feed transaction not found"
// @Security BearerAuth
// @Router /workplaces/{workplace_id}/feed-transactions/{feed_id}/suggestions [get]
func (h *reconciliationHandler) getSuggestions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")
	feedID := c.Param("feed_id")

	var params dto.GetSuggestionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for GetSuggestions", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}
	userID, ok := currentUserID(c, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("workplace_id", workplaceID), slog.String("feed_transaction_id", feedID))

	suggestions, err := h.reconciliationService.GetSuggestions(c.Request.Context(), workplaceID, feedID, params.Limit, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to get suggestions")
		return
	}
	c.JSON(http.StatusOK, dto.ToGetSuggestionsResponse(feedID, suggestions))
}

// listMatches godoc
// @Summary List match rows
// @Description Lists active match rows, newest feed date first, with cursor pagination.
// @Tags reconciliation
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   accountID query string false "Account ID"
// @Param   period query string false "Period (YYYY-MM)"
// @Param   status query string false "Match status" Enums(unmatched, suggested, matched)
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Pagination token"
// @Success 200 {object} dto.ListMatchesResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /workplaces/{workplace_id}/matches [get]
func (h *reconciliationHandler) listMatches(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")

	var params dto.ListMatchesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for ListMatches", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}
	userID, ok := currentUserID(c, logger)
	if !ok {
		return
	}

	var filter domain.MatchFilter
	if params.AccountID != "" {
		filter.AccountID = &params.AccountID
	}
	if params.Period != "" {
		period, err := domain.ParsePeriod(params.Period)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filter.Period = &period
	}
	if params.Status != "" {
		status := domain.MatchStatus(params.Status)
		filter.Status = &status
	}

	logger = logger.With(slog.String("workplace_id", workplaceID))
	matches, next, err := h.reconciliationService.ListMatches(c.Request.Context(), workplaceID, filter, params.Limit, params.NextToken, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to list matches")
		return
	}
	c.JSON(http.StatusOK, dto.ListMatchesResponse{Matches: dto.ToMatchResponses(matches), NextToken: next})
}

// getMatch godoc
// @Summary Get a match row
// @Tags reconciliation
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   match_id path string true "Match ID"
// @Success 200 {object} dto.MatchResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Match not found"
// @Security BearerAuth
// @Router /workplaces/{workplace_id}/matches/{match_id} [get]
func (h *reconciliationHandler) getMatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")
	matchID := c.Param("match_id")

	userID, ok := currentUserID(c, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("workplace_id", workplaceID), slog.String("match_id", matchID))

	match, err := h.reconciliationService.GetMatch(c.Request.Context(), workplaceID, matchID, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to get match")
		return
	}
	c.JSON(http.StatusOK, dto.ToMatchResponse(match))
}

// createMatch godoc
// @Summary Manually match a feed transaction
// @Description Records a confirmed match between a feed transaction and a ledger transaction.
// @Tags reconciliation
// @Accept  json
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   request body dto.CreateMatchRequest true "Feed and ledger transaction"
// @Success 201 {object} dto.MatchResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 409 {object} map[string]string "Transaction already matched"
// @Failure 423 {object} map[string]string "Period locked"
// @Security BearerAuth
// @Router /workplaces/{workplace_id}/matches [post]
func (h *reconciliationHandler) createMatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")

	var req dto.CreateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateMatch", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := currentUserID(c, logger)
	if !ok {
		return
	}

	logger = logger.With(
		slog.String("workplace_id", workplaceID),
		slog.String("feed_transaction_id", req.FeedTransactionID),
		slog.String("transaction_id", req.TransactionID))
	logger.Info("Received request to create match")

	match, err := h.reconciliationService.CreateMatch(c.Request.Context(), workplaceID, req.FeedTransactionID, req.TransactionID, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to create match")
		return
	}
	logger.Info("Match created", slog.String("match_id", match.MatchID))
	c.JSON(http.StatusCreated, dto.ToMatchResponse(match))
}

// confirmMatch godoc
// @Summary Confirm a suggested match
// @Description Confirms a suggestion. Confirming an already matched row returns it unchanged.
// @Tags reconciliation
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   match_id path string true "Match ID"
// @Success 200 {object} dto.MatchResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Match not found"
// @Failure 409 {object} map[string]string "Conflict"
// @Failure 423 {object} map[string]string "Period locked"
// @Security BearerAuth
// @Router /workplaces/{workplace_id}/matches/{match_id}/confirm [post]
func (h *reconciliationHandler) confirmMatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")
	matchID := c.Param("match_id")

	userID, ok := currentUserID(c, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("workplace_id", workplaceID), slog.String("match_id", matchID))

	match, err := h.reconciliationService.ConfirmMatch(c.Request.Context(), workplaceID, matchID, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to confirm match")
		return
	}
	c.JSON(http.StatusOK, dto.ToMatchResponse(match))
}

// unmatch godoc
// @Summary Undo a match or suggestion
// @Description Retires the match row so the feed transaction can be matched again.
// @Tags reconciliation
// @Param   workplace_id path string true "Workplace ID"
// @Param   match_id path string true "Match ID"
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Match not found"
// @Failure 423 {object} map[string]string "Period locked"
// @Security BearerAuth
// @Router /workplaces/{workplace_id}/matches/{match_id} [delete]
func (h *reconciliationHandler) unmatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")
	matchID := c.Param("match_id")

	userID, ok := currentUserID(c, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("workplace_id", workplaceID), slog.String("match_id", matchID))

	if err := h.reconciliationService.Unmatch(c.Request.Context(), workplaceID, matchID, userID); err != nil {
		respondError(c, logger, err, "Failed to unmatch")
		return
	}
	logger.Info("Match removed")
	c.Status(http.StatusNoContent)
}

// bulkConfirmMatches godoc
// @Summary Confirm several suggested matches
// @Description Each id is confirmed on its own. Results follow request order and failures do not stop the batch.
// @Tags reconciliation
// @Accept  json
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   request body dto.BulkConfirmMatchesRequest true "Match IDs"
// @Success 200 {object} dto.BulkConfirmMatchesResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 429 {object} map[string]string "Too many requests"
// @Security BearerAuth
// @Router /workplaces/{workplace_id}/matches/bulk-confirm [post]
func (h *reconciliationHandler) bulkConfirmMatches(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")

	var req dto.BulkConfirmMatchesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for BulkConfirmMatches", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := currentUserID(c, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("workplace_id", workplaceID), slog.Int("count", len(req.MatchIDs)))

	results, err := h.reconciliationService.BulkConfirmMatches(c.Request.Context(), workplaceID, req.MatchIDs, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to confirm matches")
		return
	}
	resp := dto.ToBulkConfirmMatchesResponse(results)
	logger.Info("Bulk confirm finished", slog.Int("succeeded", resp.SuccessCount), slog.Int("failed", resp.FailureCount))
	c.JSON(http.StatusOK, resp)
}
