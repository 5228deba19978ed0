package models

// StagingTransaction is a provisional, editable row produced by an import.
// It is reviewed (category override, selection toggle, amount correction)
// before commit and persists afterwards as a provenance record.
//
// Dates are kept as the source-formatted strings: the fingerprint hashes
// the exact date text, so re-importing the same file must reproduce
// byte-identical input.
type StagingTransaction struct {
	Base
	ImportSessionID string  `gorm:"type:uuid;not null;index" json:"import_session_id"`
	TransactionDate string  `gorm:"not null" json:"transaction_date"`
	ClearingDate    string  `json:"clearing_date,omitempty"`
	Description     string  `gorm:"not null" json:"description"`
	MerchantName    string  `gorm:"not null;default:''" json:"merchant_name"`
	SourceCategory  string  `json:"source_category,omitempty"`
	Amount          int64   `gorm:"type:bigint;not null" json:"amount"`
	Type            string  `gorm:"not null" json:"type"`
	PurchasedBy     string  `json:"purchased_by,omitempty"`
	Fingerprint     string  `gorm:"not null" json:"fingerprint"`
	CategoryID      *string `gorm:"type:uuid" json:"category_id,omitempty"`
	IsDuplicate     bool    `gorm:"not null;default:false" json:"is_duplicate"`
	DuplicateOfID   *string `gorm:"type:uuid" json:"duplicate_of_id,omitempty"`
	IsSelected      bool    `gorm:"not null;default:true" json:"is_selected"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
