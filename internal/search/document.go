package search

import "time"

// ImageDoc mirrors a normalized product image. Only the structured form is
// ever stored here; legacy string images are normalized before they reach
// this package.
type ImageDoc struct {
	URL       string `bson:"url" json:"url"`
	Alt       string `bson:"alt,omitempty" json:"alt,omitempty"`
	IsPrimary bool   `bson:"isPrimary" json:"isPrimary"`
}

// CategoryDoc is the category denormalized onto each product document. The
// document store has no category collection; renames are propagated in place.
type CategoryDoc struct {
	ID   uint   `bson:"id" json:"id"`
	Name string `bson:"name" json:"name"`
	Slug string `bson:"slug" json:"slug"`
}

// ProductDocument is the denormalized, search-optimized mirror of a product.
// Keyed by the relational ID; fully regenerable from the relational store.
type ProductDocument struct {
	ProductID     uint         `bson:"productId" json:"productId"`
	Name          string       `bson:"name" json:"name"`
	Description   string       `bson:"description,omitempty" json:"description,omitempty"`
	Price         float64      `bson:"price" json:"price"`
	SalePrice     *float64     `bson:"salePrice,omitempty" json:"salePrice,omitempty"`
	IsOnSale      bool         `bson:"isOnSale" json:"isOnSale"`
	StockQuantity int          `bson:"stockQuantity" json:"stockQuantity"`
	Images        []ImageDoc   `bson:"images" json:"images"`
	Category      *CategoryDoc `bson:"category,omitempty" json:"category,omitempty"`
	SearchTerms   []string     `bson:"searchTerms" json:"searchTerms"`
	IsActive      bool         `bson:"isActive" json:"isActive"`
	CreatedAt     time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time    `bson:"updatedAt" json:"updatedAt"`
}

// UserDocument is the reduced user projection mirrored for admin search.
// Password and token fields never leave the relational store.
type UserDocument struct {
	UserID      uint      `bson:"userId" json:"userId"`
	FirstName   string    `bson:"firstName" json:"firstName"`
	LastName    string    `bson:"lastName" json:"lastName"`
	Email       string    `bson:"email" json:"email"`
	Role        string    `bson:"role" json:"role"`
	IsActive    bool      `bson:"isActive" json:"isActive"`
	SearchTerms []string  `bson:"searchTerms" json:"searchTerms"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}
