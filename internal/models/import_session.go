package models

// ImportSessionStatus is the lifecycle state of an import session.
type ImportSessionStatus string

const (
	ImportStatusPendingReview ImportSessionStatus = "pending_review"
	ImportStatusCommitted     ImportSessionStatus = "committed"
)

// ImportSession records one statement upload. It is created in
// pending_review and transitions once, irreversibly, to committed.
type ImportSession struct {
	Base
	AccountID  string              `gorm:"type:uuid;not null;index" json:"account_id"`
	Filename   string              `gorm:"not null" json:"filename"`
	RowCount   int                 `gorm:"not null" json:"row_count"`
	SourceType string              `gorm:"not null" json:"source_type"`
	Status     ImportSessionStatus `gorm:"not null;default:'pending_review'" json:"status"`

	Account             Account              `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	StagingTransactions []StagingTransaction `gorm:"foreignKey:ImportSessionID;constraint:OnDelete:CASCADE" json:"staging_transactions,omitempty"`
}
