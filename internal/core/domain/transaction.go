package domain

import "time"

// Transaction is an entry in an account's ledger register. It is owned by the ledger
// and only read here as a match candidate.
type Transaction struct {
	TransactionID           string    `json:"transactionID"`
	WorkplaceID             string    `json:"workplaceID"`
	AccountID               string    `json:"accountID"`
	Date                    time.Time `json:"date"`
	Description             string    `json:"description"`
	Amount                  int64     `json:"amount"` // Signed cents
	CurrencyCode            string    `json:"currencyCode"`
	CategoryID              *string   `json:"categoryID,omitempty"`
	SourceFeedTransactionID *string   `json:"sourceFeedTransactionID,omitempty"`
	TransferID              *string   `json:"transferID,omitempty"`
	AuditFields
}

// LedgerPosting is a request to the ledger collaborator to create one Transaction.
type LedgerPosting struct {
	WorkplaceID             string
	AccountID               string
	Date                    time.Time
	Description             string
	Amount                  int64
	CurrencyCode            string
	CategoryID              *string
	SourceFeedTransactionID *string
	TransferID              *string
	PostedBy                string
}

// PostingFromFeed builds the ledger posting that mirrors a feed line.
func PostingFromFeed(feed BankFeedTransaction, categoryID *string, postedBy string) LedgerPosting {
	feedID := feed.FeedTransactionID
	return LedgerPosting{
		WorkplaceID:             feed.WorkplaceID,
		AccountID:               feed.AccountID,
		Date:                    DateOnly(feed.Date),
		Description:             feed.Description,
		Amount:                  feed.Amount,
		CurrencyCode:            feed.CurrencyCode,
		CategoryID:              categoryID,
		SourceFeedTransactionID: &feedID,
		PostedBy:                postedBy,
	}
}
