package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"pricetrack/models"
)

type memoryProduct struct {
	product models.Product
	seq     int
}

// MemoryRepository is a thread-safe in-memory Store
type MemoryRepository struct {
	products map[string]memoryProduct
	history  map[string][]models.PriceHistory
	seq      int
	mutex    sync.RWMutex
}

// NewMemoryRepository creates an empty in-memory store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		products: make(map[string]memoryProduct),
		history:  make(map[string][]models.PriceHistory),
	}
}

var _ Store = (*MemoryRepository)(nil)

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

func (r *MemoryRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.products[product.ID]; exists {
		return fmt.Errorf("failed to create product: duplicate id %s", product.ID)
	}

	r.seq++
	r.products[product.ID] = memoryProduct{product: *product, seq: r.seq}
	return nil
}

func (r *MemoryRepository) CreateProductWithSeed(ctx context.Context, product *models.Product, seed *models.PriceHistory) error {
	if err := checkObservation(seed); err != nil {
		return err
	}
	if seed.ProductID != product.ID {
		return fmt.Errorf("failed to create product: seed belongs to %s", seed.ProductID)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.products[product.ID]; exists {
		return fmt.Errorf("failed to create product: duplicate id %s", product.ID)
	}

	r.seq++
	r.products[product.ID] = memoryProduct{product: *product, seq: r.seq}
	r.history[product.ID] = append(r.history[product.ID], *seed)
	return nil
}

func (r *MemoryRepository) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stored, exists := r.products[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}

	product := stored.product
	return &product, nil
}

func (r *MemoryRepository) GetProductSummary(ctx context.Context, id string) (*models.ProductSummary, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stored, exists := r.products[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}

	summary := r.summarize(stored.product)
	return &summary, nil
}

func (r *MemoryRepository) ListProducts(ctx context.Context) ([]models.ProductSummary, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stored := make([]memoryProduct, 0, len(r.products))
	for _, p := range r.products {
		stored = append(stored, p)
	}

	// newest first; later inserts win ties
	sort.Slice(stored, func(i, j int) bool {
		if !stored[i].product.CreatedAt.Equal(stored[j].product.CreatedAt) {
			return stored[i].product.CreatedAt.After(stored[j].product.CreatedAt)
		}
		return stored[i].seq > stored[j].seq
	})

	summaries := make([]models.ProductSummary, 0, len(stored))
	for _, p := range stored {
		summaries = append(summaries, r.summarize(p.product))
	}
	return summaries, nil
}

// summarize must be called with the lock held
func (r *MemoryRepository) summarize(product models.Product) models.ProductSummary {
	summary := models.ProductSummary{Product: product}

	entries := r.sortedHistory(product.ID)
	if len(entries) > 0 {
		latest := entries[len(entries)-1]
		summary.Latest = &latest
	}
	return summary
}

func (r *MemoryRepository) DeleteProduct(ctx context.Context, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.products[id]; !exists {
		return fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}

	delete(r.history, id)
	delete(r.products, id)
	return nil
}

func (r *MemoryRepository) AddPriceHistory(ctx context.Context, entry *models.PriceHistory) error {
	if err := checkObservation(entry); err != nil {
		return err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.products[entry.ProductID]; !exists {
		return fmt.Errorf("%w: %s", models.ErrNotFound, entry.ProductID)
	}

	r.history[entry.ProductID] = append(r.history[entry.ProductID], *entry)
	return nil
}

func (r *MemoryRepository) GetPriceHistory(ctx context.Context, productID string, limit int) ([]models.PriceHistory, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	entries := r.sortedHistory(productID)
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// sortedHistory returns a copy ordered by CheckedAt, insertion order breaking ties
func (r *MemoryRepository) sortedHistory(productID string) []models.PriceHistory {
	entries := make([]models.PriceHistory, len(r.history[productID]))
	copy(entries, r.history[productID])

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CheckedAt.Before(entries[j].CheckedAt)
	})
	return entries
}
