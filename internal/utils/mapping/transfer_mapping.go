package mapping

import (
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/SscSPs/bank_reconciliation/internal/models"
	"github.com/shopspring/decimal"
)

func ToModelTransfer(d domain.DetectedTransfer) models.DetectedTransfer {
	var rate decimal.NullDecimal
	if d.ExchangeRate != nil {
		rate = decimal.NewNullDecimal(*d.ExchangeRate)
	}
	return models.DetectedTransfer{
		TransferID:       d.TransferID,
		WorkplaceID:      d.WorkplaceID,
		FromFeedID:       d.FromFeedID,
		ToFeedID:         d.ToFeedID,
		FromAccountID:    d.FromAccountID,
		ToAccountID:      d.ToAccountID,
		FromDate:         domain.DateOnly(d.FromDate),
		ToDate:           domain.DateOnly(d.ToDate),
		Amount:           d.Amount,
		CurrencyCode:     d.CurrencyCode,
		ToAmount:         d.ToAmount,
		ToCurrencyCode:   d.ToCurrencyCode,
		ExchangeRate:     rate,
		DateDistanceDays: d.DateDistanceDays,
		Status:           string(d.Status),
		ConfirmedAt:      NullTime(d.ConfirmedAt),
		ConfirmedBy:      NullString(d.ConfirmedBy),
		Version:          d.Version,
		AuditFields:      ToModelAuditFields(d.AuditFields),
	}
}

func ToDomainTransfer(m models.DetectedTransfer) domain.DetectedTransfer {
	var rate *decimal.Decimal
	if m.ExchangeRate.Valid {
		r := m.ExchangeRate.Decimal
		rate = &r
	}
	return domain.DetectedTransfer{
		TransferID:       m.TransferID,
		WorkplaceID:      m.WorkplaceID,
		FromFeedID:       m.FromFeedID,
		ToFeedID:         m.ToFeedID,
		FromAccountID:    m.FromAccountID,
		ToAccountID:      m.ToAccountID,
		FromDate:         domain.DateOnly(m.FromDate),
		ToDate:           domain.DateOnly(m.ToDate),
		Amount:           m.Amount,
		CurrencyCode:     m.CurrencyCode,
		ToAmount:         m.ToAmount,
		ToCurrencyCode:   m.ToCurrencyCode,
		ExchangeRate:     rate,
		DateDistanceDays: m.DateDistanceDays,
		Status:           domain.TransferStatus(m.Status),
		ConfirmedAt:      TimePtr(m.ConfirmedAt),
		ConfirmedBy:      StringPtr(m.ConfirmedBy),
		Version:          m.Version,
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
}

func ToDomainTransfers(ms []models.DetectedTransfer) []domain.DetectedTransfer {
	out := make([]domain.DetectedTransfer, len(ms))
	for i, m := range ms {
		out[i] = ToDomainTransfer(m)
	}
	return out
}
