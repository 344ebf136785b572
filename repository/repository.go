package repository

import (
	"context"
	"fmt"
	"math"

	"pricetrack/models"
)

// ProductRepository owns product identity and metadata
type ProductRepository interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	// CreateProductWithSeed stores a product and its first observation
	// together; on failure neither is kept
	CreateProductWithSeed(ctx context.Context, product *models.Product, seed *models.PriceHistory) error
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	GetProductSummary(ctx context.Context, id string) (*models.ProductSummary, error)
	ListProducts(ctx context.Context) ([]models.ProductSummary, error)
	DeleteProduct(ctx context.Context, id string) error
}

// HistoryRepository is the append-only store of price observations
type HistoryRepository interface {
	AddPriceHistory(ctx context.Context, entry *models.PriceHistory) error
	GetPriceHistory(ctx context.Context, productID string, limit int) ([]models.PriceHistory, error)
}

// Store is everything the price service needs from storage
type Store interface {
	ProductRepository
	HistoryRepository
	Ping(ctx context.Context) error
}

// checkObservation rejects prices the history must never hold
func checkObservation(entry *models.PriceHistory) error {
	if math.IsNaN(entry.Price) || math.IsInf(entry.Price, 0) || entry.Price < 0 {
		return fmt.Errorf("%w: invalid price %v", models.ErrValidation, entry.Price)
	}
	return nil
}
