package models

import "time"

// User represents the user model in the database
type User struct {
	Base
	Email       string     `gorm:"uniqueIndex;not null" json:"email"`
	Password    string     `gorm:"not null" json:"-"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	Accounts      []Account      `gorm:"foreignKey:UserID" json:"accounts,omitempty"`
	Categories    []Category     `gorm:"foreignKey:UserID" json:"categories,omitempty"`
	Merchants     []Merchant     `gorm:"foreignKey:UserID" json:"merchants,omitempty"`
	MerchantRules []MerchantRule `gorm:"foreignKey:UserID" json:"merchant_rules,omitempty"`
	Transactions  []Transaction  `gorm:"foreignKey:UserID" json:"transactions,omitempty"`
}
