package mapping

import (
	"slices"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/SscSPs/bank_reconciliation/internal/models"
)

// ToModelMatch converts a domain TransactionMatch to a model TransactionMatch
func ToModelMatch(d domain.TransactionMatch) models.TransactionMatch {
	reasons := slices.Clone(d.Reasons)
	if reasons == nil {
		reasons = []string{}
	}
	return models.TransactionMatch{
		MatchID:           d.MatchID,
		WorkplaceID:       d.WorkplaceID,
		AccountID:         d.AccountID,
		FeedTransactionID: d.FeedTransactionID,
		FeedDate:          domain.DateOnly(d.FeedDate),
		TransactionID:     NullString(d.TransactionID),
		Status:            string(d.Status),
		Confidence:        d.Confidence,
		Reasons:           reasons,
		MatchedAt:         NullTime(d.MatchedAt),
		MatchedBy:         NullString(d.MatchedBy),
		Lifecycle:         string(d.Lifecycle),
		Version:           d.Version,
		AuditFields:       ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainMatch converts a model TransactionMatch to a domain TransactionMatch
func ToDomainMatch(m models.TransactionMatch) domain.TransactionMatch {
	return domain.TransactionMatch{
		MatchID:           m.MatchID,
		WorkplaceID:       m.WorkplaceID,
		AccountID:         m.AccountID,
		FeedTransactionID: m.FeedTransactionID,
		FeedDate:          domain.DateOnly(m.FeedDate),
		TransactionID:     StringPtr(m.TransactionID),
		Status:            domain.MatchStatus(m.Status),
		Confidence:        m.Confidence,
		Reasons:           slices.Clone(m.Reasons),
		MatchedAt:         TimePtr(m.MatchedAt),
		MatchedBy:         StringPtr(m.MatchedBy),
		Lifecycle:         domain.Lifecycle(m.Lifecycle),
		Version:           m.Version,
		AuditFields:       ToDomainAuditFields(m.AuditFields),
	}
}

func ToDomainMatches(ms []models.TransactionMatch) []domain.TransactionMatch {
	out := make([]domain.TransactionMatch, len(ms))
	for i, m := range ms {
		out[i] = ToDomainMatch(m)
	}
	return out
}
