package model

import "time"

// Category is a catalog grouping referenced by products. The document store
// has no category collection of its own; name/slug changes are propagated
// onto the embedded category of every mirrored product.
type Category struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	Slug      string    `json:"slug" gorm:"uniqueIndex;size:255;not null"`
	IsActive  bool      `json:"is_active" gorm:"default:true;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
