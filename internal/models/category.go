package models

// UncategorizedName is the reserved name of the terminal fallback bucket.
// It is resolved by name lookup only; the category is otherwise ordinary.
const UncategorizedName = "Uncategorized"

// Category represents a spending category. Categories form a forest via
// ParentID; parent ids are validated at write time, so the structure is
// acyclic by construction.
type Category struct {
	Base
	UserID    string  `gorm:"type:uuid;not null;index" json:"user_id"`
	Name      string  `gorm:"not null" json:"name"`
	ParentID  *string `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Color     string  `json:"color,omitempty"`
	Icon      string  `json:"icon,omitempty"`
	SortOrder int     `gorm:"default:0" json:"sort_order"`

	// Relationships
	Parent   *Category  `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Children []Category `gorm:"foreignKey:ParentID" json:"children,omitempty"`
}
