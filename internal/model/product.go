package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents an item in the catalogue.
type Product struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Images      []string        `json:"images" db:"images"`
	Category    string          `json:"category" db:"category"`
	Subcategory string          `json:"subcategory" db:"subcategory"`
	Sizes       []string        `json:"sizes" db:"sizes"`
	Bestseller  bool            `json:"bestseller" db:"bestseller"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// HasSize reports whether the product is offered in the given size.
// Products without a size list accept any size.
func (p *Product) HasSize(size string) bool {
	if len(p.Sizes) == 0 {
		return true
	}
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

// ProductSummary is the subset of product fields joined into cart and order lines.
type ProductSummary struct {
	ID     uuid.UUID       `json:"id"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Images []string        `json:"images"`
}

// Summary returns the populated view of the product.
func (p *Product) Summary() *ProductSummary {
	return &ProductSummary{
		ID:     p.ID,
		Name:   p.Name,
		Price:  p.Price,
		Images: p.Images,
	}
}

// ProductRequest represents the payload for creating a product.
type ProductRequest struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
	Images      []string        `json:"images" validate:"min=1,dive,required"`
	Category    string          `json:"category" validate:"max=100"`
	Subcategory string          `json:"subcategory" validate:"max=100"`
	Sizes       []string        `json:"sizes" validate:"dive,required,max=20"`
	Bestseller  bool            `json:"bestseller"`
}

// ToProduct builds a new product from the request. Category and subcategory
// are stored lower-cased so filters match regardless of input case.
func (r *ProductRequest) ToProduct(id uuid.UUID, now time.Time) Product {
	sizes := r.Sizes
	if sizes == nil {
		sizes = []string{}
	}
	return Product{
		ID:          id,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Images:      r.Images,
		Category:    strings.ToLower(strings.TrimSpace(r.Category)),
		Subcategory: strings.ToLower(strings.TrimSpace(r.Subcategory)),
		Sizes:       sizes,
		Bestseller:  r.Bestseller,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ProductUpdate represents a partial product update. Nil fields are left unchanged.
type ProductUpdate struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty" validate:"omitempty,gte=0"`
	Images      []string         `json:"images,omitempty" validate:"omitempty,min=1,dive,required"`
	Category    *string          `json:"category,omitempty" validate:"omitempty,max=100"`
	Subcategory *string          `json:"subcategory,omitempty" validate:"omitempty,max=100"`
	Sizes       []string         `json:"sizes,omitempty" validate:"omitempty,dive,required,max=20"`
	Bestseller  *bool            `json:"bestseller,omitempty"`
}

// IsEmpty reports whether the update carries no fields.
func (u *ProductUpdate) IsEmpty() bool {
	return u.Name == nil &&
		u.Description == nil &&
		u.Price == nil &&
		u.Images == nil &&
		u.Category == nil &&
		u.Subcategory == nil &&
		u.Sizes == nil &&
		u.Bestseller == nil
}

// Apply copies the non-nil fields of the update onto the product.
func (u *ProductUpdate) Apply(p *Product) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Images != nil {
		p.Images = u.Images
	}
	if u.Category != nil {
		p.Category = strings.ToLower(strings.TrimSpace(*u.Category))
	}
	if u.Subcategory != nil {
		p.Subcategory = strings.ToLower(strings.TrimSpace(*u.Subcategory))
	}
	if u.Sizes != nil {
		p.Sizes = u.Sizes
	}
	if u.Bestseller != nil {
		p.Bestseller = *u.Bestseller
	}
}

// Sort orders accepted by the product filter.
const (
	SortPriceAsc  = "lowToHigh"
	SortPriceDesc = "highToLow"
)

// ProductFilter narrows a catalogue listing. Empty fields are ignored.
type ProductFilter struct {
	Category    string
	Subcategory string
	Search      string
	Sort        string
}
