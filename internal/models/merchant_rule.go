package models

// MerchantRule maps a merchant pattern to a category. The pattern is a
// plain substring, or a regex when it contains a backslash or pipe.
// Higher priority wins; ties break on id ascending (UUIDv7 ids are
// time-ordered, so this is insertion order).
type MerchantRule struct {
	Base
	UserID     string `gorm:"type:uuid;not null;index" json:"user_id"`
	Pattern    string `gorm:"not null" json:"pattern"`
	CategoryID string `gorm:"type:uuid;not null;index" json:"category_id"`
	Priority   int    `gorm:"default:0;index" json:"priority"`

	Category Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"category,omitempty"`
}
