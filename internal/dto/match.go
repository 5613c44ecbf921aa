package dto

import (
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
)

// GenerateSuggestionsRequest starts a suggestion pass for one account period.
type GenerateSuggestionsRequest struct {
	AccountID string `json:"accountID" binding:"required"`
	Period    string `json:"period" binding:"required,yearmonth"`
}

// GetSuggestionsParams defines query parameters for ranking candidates of one feed line.
type GetSuggestionsParams struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=50"`
}

// CreateMatchRequest records a manual match.
type CreateMatchRequest struct {
	FeedTransactionID string `json:"feedTransactionID" binding:"required"`
	TransactionID     string `json:"transactionID" binding:"required"`
}

// BulkConfirmMatchesRequest confirms several suggested matches.
type BulkConfirmMatchesRequest struct {
	MatchIDs []string `json:"matchIDs" binding:"required,min=1,max=100,dive,required"`
}

// ListMatchesParams defines query parameters for listing matches.
type ListMatchesParams struct {
	AccountID string  `form:"accountID"`
	Period    string  `form:"period" binding:"omitempty,yearmonth"`
	Status    string  `form:"status" binding:"omitempty,oneof=unmatched suggested matched"`
	Limit     int     `form:"limit,default=20" binding:"min=1,max=100"`
	NextToken *string `form:"nextToken"`
}

// MatchResponse defines the data returned for a match row.
type MatchResponse struct {
	MatchID           string             `json:"matchID"`
	AccountID         string             `json:"accountID"`
	FeedTransactionID string             `json:"feedTransactionID"`
	FeedDate          string             `json:"feedDate"`
	TransactionID     *string            `json:"transactionID"`
	Status            domain.MatchStatus `json:"status"`
	Confidence        float64            `json:"confidence"`
	Reasons           []string           `json:"reasons"`
	MatchedAt         *time.Time         `json:"matchedAt,omitempty"`
	MatchedBy         *string            `json:"matchedBy,omitempty"`
	Version           int                `json:"version"`
	LastUpdatedAt     time.Time          `json:"lastUpdatedAt"`
	LastUpdatedBy     string             `json:"lastUpdatedBy"`
}

// ListMatchesResponse wraps a page of matches.
type ListMatchesResponse struct {
	Matches   []MatchResponse `json:"matches"`
	NextToken *string         `json:"nextToken,omitempty"`
}

// MatchSuggestionResponse is one ranked candidate.
type MatchSuggestionResponse struct {
	TransactionID    string              `json:"transactionID"`
	Confidence       float64             `json:"confidence"`
	Reasons          []string            `json:"reasons"`
	DateDistanceDays int                 `json:"dateDistanceDays"`
	Transaction      TransactionResponse `json:"transaction"`
}

// GetSuggestionsResponse wraps the ranked candidates of a feed line.
type GetSuggestionsResponse struct {
	FeedTransactionID string                    `json:"feedTransactionID"`
	Suggestions       []MatchSuggestionResponse `json:"suggestions"`
}

// SuggestionRunResponse summarizes a suggestion pass.
type SuggestionRunResponse struct {
	AccountID   string          `json:"accountID"`
	Period      string          `json:"period"`
	Considered  int             `json:"considered"`
	Suggested   int             `json:"suggested"`
	AutoMatched int             `json:"autoMatched"`
	Unmatched   int             `json:"unmatched"`
	Matches     []MatchResponse `json:"matches"`
}

// BulkConfirmMatchesResponse lists per-item outcomes in request order.
type BulkConfirmMatchesResponse struct {
	Results      []BulkItemResponse `json:"results"`
	SuccessCount int                `json:"successCount"`
	FailureCount int                `json:"failureCount"`
}

// BulkItemResponse is the outcome of one bulk item.
type BulkItemResponse struct {
	ID        string         `json:"id"`
	Success   bool           `json:"success"`
	Error     string         `json:"error,omitempty"`
	ErrorCode string         `json:"errorCode,omitempty"`
	Match     *MatchResponse `json:"match,omitempty"`
	// Transaction is set by bulk create.
	Transaction *TransactionResponse `json:"transaction,omitempty"`
}

// ToMatchResponse converts a domain match row to its DTO.
func ToMatchResponse(m *domain.TransactionMatch) MatchResponse {
	reasons := m.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return MatchResponse{
		MatchID:           m.MatchID,
		AccountID:         m.AccountID,
		FeedTransactionID: m.FeedTransactionID,
		FeedDate:          m.FeedDate.Format(time.DateOnly),
		TransactionID:     m.TransactionID,
		Status:            m.Status,
		Confidence:        m.Confidence,
		Reasons:           reasons,
		MatchedAt:         m.MatchedAt,
		MatchedBy:         m.MatchedBy,
		Version:           m.Version,
		LastUpdatedAt:     m.LastUpdatedAt,
		LastUpdatedBy:     m.LastUpdatedBy,
	}
}

// ToMatchResponses converts a slice of match rows.
func ToMatchResponses(matches []domain.TransactionMatch) []MatchResponse {
	res := make([]MatchResponse, len(matches))
	for i := range matches {
		res[i] = ToMatchResponse(&matches[i])
	}
	return res
}

// ToGetSuggestionsResponse converts ranked suggestions for feedTransactionID.
func ToGetSuggestionsResponse(feedTransactionID string, suggestions []domain.MatchSuggestion) GetSuggestionsResponse {
	res := make([]MatchSuggestionResponse, len(suggestions))
	for i, s := range suggestions {
		res[i] = MatchSuggestionResponse{
			TransactionID:    s.TransactionID,
			Confidence:       s.Confidence,
			Reasons:          s.Reasons,
			DateDistanceDays: s.DateDistanceDays,
			Transaction:      ToTransactionResponse(&suggestions[i].Transaction),
		}
	}
	return GetSuggestionsResponse{FeedTransactionID: feedTransactionID, Suggestions: res}
}

// ToSuggestionRunResponse converts a pass summary.
func ToSuggestionRunResponse(r *domain.SuggestionRunResult) SuggestionRunResponse {
	return SuggestionRunResponse{
		AccountID:   r.AccountID,
		Period:      r.Period.String(),
		Considered:  r.Considered,
		Suggested:   r.Suggested,
		AutoMatched: r.AutoMatched,
		Unmatched:   r.Unmatched,
		Matches:     ToMatchResponses(r.Matches),
	}
}

// ToBulkConfirmMatchesResponse converts bulk results and tallies outcomes.
func ToBulkConfirmMatchesResponse(results []domain.BulkItemResult) BulkConfirmMatchesResponse {
	resp := BulkConfirmMatchesResponse{Results: make([]BulkItemResponse, len(results))}
	for i, r := range results {
		item := BulkItemResponse{ID: r.ID, Success: r.Success, Error: r.Error, ErrorCode: r.ErrorCode}
		if r.Match != nil {
			m := ToMatchResponse(r.Match)
			item.Match = &m
		}
		if r.Transaction != nil {
			t := ToTransactionResponse(r.Transaction)
			item.Transaction = &t
		}
		resp.Results[i] = item
		if r.Success {
			resp.SuccessCount++
		} else {
			resp.FailureCount++
		}
	}
	return resp
}
