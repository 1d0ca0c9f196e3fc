package catalog

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound          = errors.New("catalog: product not found")
	ErrInactive          = errors.New("catalog: product is inactive")
	ErrInsufficientStock = errors.New("catalog: insufficient stock")
	ErrInvalidQuantity   = errors.New("catalog: quantity must be greater than zero")
	ErrInvalidPrice      = errors.New("catalog: price must be zero or greater")
	ErrInvalidStock      = errors.New("catalog: stock must be zero or greater")
	ErrNameRequired      = errors.New("catalog: name is required")
)

type Product struct {
	ID          string
	Name        string
	Description string
	// Price is expressed in minor currency units.
	Price     int64
	Category  string
	Stock     int
	IsActive  bool
	DateAdded time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewProduct(id, name, description, category string, price int64, stock int) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if price < 0 {
		return nil, ErrInvalidPrice
	}
	if stock < 0 {
		return nil, ErrInvalidStock
	}
	now := time.Now().UTC()
	return &Product{
		ID:          id,
		Name:        name,
		Description: description,
		Price:       price,
		Category:    strings.TrimSpace(category),
		Stock:       stock,
		IsActive:    true,
		DateAdded:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Deduct removes quantity units of stock. Stores call it while holding the product exclusively.
func (p *Product) Deduct(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if !p.IsActive {
		return ErrInactive
	}
	if quantity > p.Stock {
		return ErrInsufficientStock
	}
	p.Stock -= quantity
	p.touch()
	return nil
}

// Restock returns quantity units to stock.
func (p *Product) Restock(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	p.Stock += quantity
	p.touch()
	return nil
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}
