package models

// StringList is a JSON-encoded list of strings stored in a single column.
type StringList []string

// Merchant represents a canonical merchant name and the raw statement
// descriptions ever seen under it. (UserID, NormalizedName) is unique;
// merchants are deduplicated by exact normalized-name match per user.
type Merchant struct {
	Base
	UserID         string     `gorm:"type:uuid;not null;uniqueIndex:idx_merchants_user_name" json:"user_id"`
	NormalizedName string     `gorm:"not null;uniqueIndex:idx_merchants_user_name" json:"normalized_name"`
	RawNames       StringList `gorm:"serializer:json" json:"raw_names"`
}
