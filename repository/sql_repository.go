package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pricetrack/database"
	"pricetrack/models"
)

// SQLRepository stores products and price history through database/sql
type SQLRepository struct {
	db *database.DB
}

func NewSQLRepository(db *database.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

var _ Store = (*SQLRepository)(nil)

const productColumns = `p.id, p.name, p.url, p.website, p.tags, p.price_selector, p.created_at`

// summaryQuery joins each product with its latest observation
const summaryQuery = `
	SELECT ` + productColumns + `, h.id, h.price, h.currency, h.checked_at
	FROM products p
	LEFT JOIN price_history h ON h.seq = (
		SELECT h2.seq FROM price_history h2
		WHERE h2.product_id = p.id
		ORDER BY h2.checked_at DESC, h2.seq DESC
		LIMIT 1
	)`

func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// execer is satisfied by both *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CreateProduct inserts a new product
func (r *SQLRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.insertProduct(ctx, r.db.Conn(), product)
}

// CreateProductWithSeed inserts a product and its first observation in one
// transaction
func (r *SQLRepository) CreateProductWithSeed(ctx context.Context, product *models.Product, seed *models.PriceHistory) error {
	if err := checkObservation(seed); err != nil {
		return err
	}

	tx, err := r.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	defer tx.Rollback()

	if err := r.insertProduct(ctx, tx, product); err != nil {
		return err
	}
	if err := r.insertHistory(ctx, tx, seed); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *SQLRepository) insertProduct(ctx context.Context, ex execer, product *models.Product) error {
	query := r.db.Rebind(`
		INSERT INTO products (id, name, url, website, tags, price_selector, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := ex.ExecContext(ctx, query,
		product.ID, product.Name, product.URL, product.Website,
		product.Tags, product.PriceSelector, product.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

func (r *SQLRepository) insertHistory(ctx context.Context, ex execer, entry *models.PriceHistory) error {
	query := r.db.Rebind(`
		INSERT INTO price_history (id, product_id, price, currency, checked_at)
		VALUES (?, ?, ?, ?, ?)
	`)

	_, err := ex.ExecContext(ctx, query,
		entry.ID, entry.ProductID, entry.Price, entry.Currency, entry.CheckedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add price history: %w", err)
	}

	return nil
}

// GetProduct returns a product by ID
func (r *SQLRepository) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	query := r.db.Rebind(`SELECT ` + productColumns + ` FROM products p WHERE p.id = ?`)

	var product models.Product
	err := r.db.Conn().QueryRowContext(ctx, query, id).Scan(
		&product.ID, &product.Name, &product.URL, &product.Website,
		&product.Tags, &product.PriceSelector, &product.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	product.CreatedAt = product.CreatedAt.UTC()
	return &product, nil
}

// GetProductSummary returns a product with its latest observation
func (r *SQLRepository) GetProductSummary(ctx context.Context, id string) (*models.ProductSummary, error) {
	rows, err := r.db.Conn().QueryContext(ctx, r.db.Rebind(summaryQuery+` WHERE p.id = ?`), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	defer rows.Close()

	summaries, err := scanSummaries(rows)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}

	return &summaries[0], nil
}

// ListProducts returns all products, newest first, with their latest observation
func (r *SQLRepository) ListProducts(ctx context.Context) ([]models.ProductSummary, error) {
	rows, err := r.db.Conn().QueryContext(ctx, summaryQuery+` ORDER BY p.created_at DESC, p.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

func scanSummaries(rows *sql.Rows) ([]models.ProductSummary, error) {
	var summaries []models.ProductSummary
	for rows.Next() {
		var (
			s         models.ProductSummary
			historyID sql.NullString
			price     sql.NullFloat64
			currency  sql.NullString
			checkedAt sql.NullTime
		)
		err := rows.Scan(
			&s.ID, &s.Name, &s.URL, &s.Website, &s.Tags, &s.PriceSelector, &s.CreatedAt,
			&historyID, &price, &currency, &checkedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		s.CreatedAt = s.CreatedAt.UTC()

		if historyID.Valid {
			s.Latest = &models.PriceHistory{
				ID:        historyID.String,
				ProductID: s.ID,
				Price:     price.Float64,
				Currency:  currency.String,
				CheckedAt: checkedAt.Time.UTC(),
			}
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return summaries, nil
}

// DeleteProduct removes a product and all of its price history
func (r *SQLRepository) DeleteProduct(ctx context.Context, id string) error {
	tx, err := r.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM price_history WHERE product_id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete price history: %w", err)
	}

	result, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM products WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// AddPriceHistory appends an observation; the product must exist
func (r *SQLRepository) AddPriceHistory(ctx context.Context, entry *models.PriceHistory) error {
	if err := checkObservation(entry); err != nil {
		return err
	}

	tx, err := r.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to add price history: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, r.db.Rebind(`SELECT 1 FROM products WHERE id = ?`), entry.ProductID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", models.ErrNotFound, entry.ProductID)
		}
		return fmt.Errorf("failed to add price history: %w", err)
	}

	if err := r.insertHistory(ctx, tx, entry); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to add price history: %w", err)
	}
	return nil
}

// GetPriceHistory returns observations ascending by checked_at. A positive
// limit keeps only the most recent entries.
func (r *SQLRepository) GetPriceHistory(ctx context.Context, productID string, limit int) ([]models.PriceHistory, error) {
	var (
		rows *sql.Rows
		err  error
	)

	if limit > 0 {
		query := r.db.Rebind(`
			SELECT id, product_id, price, currency, checked_at
			FROM price_history
			WHERE product_id = ?
			ORDER BY checked_at DESC, seq DESC
			LIMIT ?
		`)
		rows, err = r.db.Conn().QueryContext(ctx, query, productID, limit)
	} else {
		query := r.db.Rebind(`
			SELECT id, product_id, price, currency, checked_at
			FROM price_history
			WHERE product_id = ?
			ORDER BY checked_at ASC, seq ASC
		`)
		rows, err = r.db.Conn().QueryContext(ctx, query, productID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get price history: %w", err)
	}
	defer rows.Close()

	history := []models.PriceHistory{}
	for rows.Next() {
		var entry models.PriceHistory
		if err := rows.Scan(&entry.ID, &entry.ProductID, &entry.Price, &entry.Currency, &entry.CheckedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price history: %w", err)
		}
		entry.CheckedAt = entry.CheckedAt.UTC()
		history = append(history, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get price history: %w", err)
	}

	if limit > 0 {
		// the limited query reads newest first
		for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
			history[i], history[j] = history[j], history[i]
		}
	}
	return history, nil
}
