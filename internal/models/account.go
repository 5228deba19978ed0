package models

// AccountType represents the type of account
type AccountType string

const (
	AccountTypeCreditCard AccountType = "credit_card"
	AccountTypeChecking   AccountType = "checking"
	AccountTypeSavings    AccountType = "savings"
)

// Account represents a financial account statements are imported into
type Account struct {
	Base
	UserID      string      `gorm:"type:uuid;not null;index" json:"user_id"`
	Name        string      `gorm:"not null" json:"name"`
	Type        AccountType `gorm:"not null;default:'credit_card'" json:"type"`
	Institution string      `json:"institution,omitempty"`
	LastFour    string      `gorm:"size:4" json:"last_four,omitempty"`
	Color       string      `gorm:"default:'#6366f1'" json:"color"`

	// Relationships
	Transactions   []Transaction   `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"transactions,omitempty"`
	ImportSessions []ImportSession `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"import_sessions,omitempty"`
}
