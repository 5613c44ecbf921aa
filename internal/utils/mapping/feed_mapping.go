package mapping

import (
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/SscSPs/bank_reconciliation/internal/models"
)

func ToModelFeedTransaction(d domain.BankFeedTransaction) models.FeedTransaction {
	return models.FeedTransaction{
		FeedTransactionID: d.FeedTransactionID,
		WorkplaceID:       d.WorkplaceID,
		AccountID:         d.AccountID,
		TransactionDate:   domain.DateOnly(d.Date),
		Description:       d.Description,
		Amount:            d.Amount,
		CurrencyCode:      d.CurrencyCode,
		CreatedAt:         d.CreatedAt,
		CreatedBy:         d.CreatedBy,
	}
}

func ToDomainFeedTransaction(m models.FeedTransaction) domain.BankFeedTransaction {
	return domain.BankFeedTransaction{
		FeedTransactionID: m.FeedTransactionID,
		WorkplaceID:       m.WorkplaceID,
		AccountID:         m.AccountID,
		Date:              domain.DateOnly(m.TransactionDate),
		Description:       m.Description,
		Amount:            m.Amount,
		CurrencyCode:      m.CurrencyCode,
		CreatedAt:         m.CreatedAt.UTC(),
		CreatedBy:         m.CreatedBy,
	}
}

func ToDomainFeedTransactions(ms []models.FeedTransaction) []domain.BankFeedTransaction {
	out := make([]domain.BankFeedTransaction, len(ms))
	for i, m := range ms {
		out[i] = ToDomainFeedTransaction(m)
	}
	return out
}

func ToDomainLedgerTransaction(m models.LedgerTransaction) domain.Transaction {
	return domain.Transaction{
		TransactionID:           m.TransactionID,
		WorkplaceID:             m.WorkplaceID,
		AccountID:               m.AccountID,
		Date:                    domain.DateOnly(m.TransactionDate),
		Description:             m.Description,
		Amount:                  m.Amount,
		CurrencyCode:            m.CurrencyCode,
		CategoryID:              StringPtr(m.CategoryID),
		SourceFeedTransactionID: StringPtr(m.SourceFeedTransactionID),
		TransferID:              StringPtr(m.TransferID),
		AuditFields:             ToDomainAuditFields(m.AuditFields),
	}
}

func ToDomainLedgerTransactions(ms []models.LedgerTransaction) []domain.Transaction {
	out := make([]domain.Transaction, len(ms))
	for i, m := range ms {
		out[i] = ToDomainLedgerTransaction(m)
	}
	return out
}
