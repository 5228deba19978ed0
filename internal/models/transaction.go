package models

// Transaction types as normalized by the source parsers. Amounts are
// always stored positive; direction is encoded here.
const (
	TransactionTypePurchase = "Purchase"
	TransactionTypePayment  = "Payment"
	TransactionTypeCredit   = "Credit"
	TransactionTypeFee      = "Fee"
	TransactionTypeTransfer = "Transfer"
)

// Transaction is a permanent ledger row. Fingerprint uniqueness is
// per user, matching the duplicate checks; the composite database
// constraint is the backstop against concurrent commits.
type Transaction struct {
	Base
	UserID          string     `gorm:"type:uuid;not null;uniqueIndex:idx_transactions_user_fingerprint,priority:1" json:"user_id"`
	AccountID       string     `gorm:"type:uuid;not null;index" json:"account_id"`
	TransactionDate string     `gorm:"not null;index" json:"transaction_date"`
	ClearingDate    string     `json:"clearing_date,omitempty"`
	Description     string     `gorm:"not null" json:"description"`
	MerchantID      *string    `gorm:"type:uuid;index" json:"merchant_id,omitempty"`
	CategoryID      *string    `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Type            string     `gorm:"not null" json:"type"`
	Amount          int64      `gorm:"type:bigint;not null" json:"amount"`
	PurchasedBy     string     `json:"purchased_by,omitempty"`
	SourceFile      string     `json:"source_file,omitempty"`
	Fingerprint     string     `gorm:"not null;uniqueIndex:idx_transactions_user_fingerprint,priority:2" json:"fingerprint"`
	Notes           string     `json:"notes,omitempty"`
	Tags            StringList `gorm:"serializer:json" json:"tags"`
	ImportSessionID *string    `gorm:"type:uuid;index" json:"import_session_id,omitempty"`

	Account  Account   `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Merchant *Merchant `gorm:"foreignKey:MerchantID" json:"merchant,omitempty"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
