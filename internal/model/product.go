package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ProductStatus is the catalog lifecycle state of a product.
type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Image is the single structured image representation. Legacy rows stored
// plain URL strings; the column scanner normalizes both forms here so the
// union never travels past the data-access boundary.
type Image struct {
	URL       string `json:"url"`
	Alt       string `json:"alt,omitempty"`
	IsPrimary bool   `json:"isPrimary"`
}

// UnmarshalJSON accepts either a bare URL string or a structured object.
func (i *Image) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*i = Image{URL: s}
		return nil
	}

	type alias Image
	var obj alias
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*i = Image(obj)
	return nil
}

// ImageList is an ordered image list stored as a JSON column.
type ImageList []Image

// Value implements driver.Valuer.
func (l ImageList) Value() (driver.Value, error) {
	if l == nil {
		l = ImageList{}
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *ImageList) Scan(value interface{}) error {
	if value == nil {
		*l = ImageList{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("scan images: unexpected type %T", value)
		}
		b = []byte(s)
	}
	if len(b) == 0 {
		*l = ImageList{}
		return nil
	}
	return json.Unmarshal(b, l)
}

// Product is a catalog entry. Stock quantity never goes negative; decrements
// floor at zero at the SQL level.
type Product struct {
	ID            uint             `json:"id" gorm:"primaryKey"`
	Name          string           `json:"name" gorm:"size:255;not null;index"`
	Description   string           `json:"description" gorm:"type:text"`
	Price         decimal.Decimal  `json:"price" gorm:"type:decimal(10,2);not null"`
	SalePrice     *decimal.Decimal `json:"sale_price,omitempty" gorm:"type:decimal(10,2)"`
	IsOnSale      bool             `json:"is_on_sale" gorm:"default:false;index"`
	StockQuantity int              `json:"stock_quantity" gorm:"not null;default:0"`
	Images        ImageList        `json:"images" gorm:"type:json"`
	Status        ProductStatus    `json:"status" gorm:"type:varchar(20);not null;default:'draft';index"`
	IsActive      bool             `json:"is_active" gorm:"default:true;index"`
	CategoryID    *uint            `json:"category_id" gorm:"index"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`

	// Relations
	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

// EffectivePrice is the sale price when the product is on sale, otherwise
// the regular price.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.IsOnSale && p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

// NormalizedImages returns the image list with the product name filled in as
// alt text where the source carried none.
func (p *Product) NormalizedImages() []Image {
	out := make([]Image, 0, len(p.Images))
	for _, img := range p.Images {
		if img.Alt == "" {
			img.Alt = p.Name
		}
		out = append(out, img)
	}
	return out
}
