package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"pricetrack/models"
	"pricetrack/repository"
	"pricetrack/scraper"
)

// Options tunes how the price service extracts and records prices
type Options struct {
	// DefaultCurrency tags seeded observations
	DefaultCurrency string
	// UseSelector scopes extraction to a product's stored selector
	UseSelector bool
}

// PriceService ties the registry, fetcher, extractor and history together
type PriceService struct {
	store       repository.Store
	fetcher     scraper.Fetcher
	extractor   *scraper.Extractor
	botDetector *scraper.BotDetector
	opts        Options

	now   func() time.Time
	newID func() string
}

// NewPriceService creates a new price service
func NewPriceService(store repository.Store, fetcher scraper.Fetcher, extractor *scraper.Extractor, opts Options) *PriceService {
	if extractor == nil {
		extractor = scraper.NewExtractor()
	}
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = models.DefaultCurrency
	}

	return &PriceService{
		store:       store,
		fetcher:     fetcher,
		extractor:   extractor,
		botDetector: scraper.NewBotDetector(),
		opts:        opts,
		now:         func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		newID:       uuid.NewString,
	}
}

// CreateProduct registers a product. When a seed price is supplied the page is
// fetched once to synthesize a selector; failing that is logged and never
// blocks creation.
func (s *PriceService) CreateProduct(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	name := strings.TrimSpace(req.Name)
	rawURL := strings.TrimSpace(req.URL)
	if name == "" || rawURL == "" {
		return nil, models.NewUserError(models.ErrValidation, "Name and URL are required")
	}

	seeded := req.CurrentPrice.IsSet()
	if seeded && !models.IsPositivePrice(req.CurrentPrice.Value) {
		return nil, models.NewUserError(models.ErrValidation, "currentPrice must be a positive number")
	}

	product := &models.Product{
		ID:        s.newID(),
		Name:      name,
		URL:       rawURL,
		Website:   DeriveWebsite(rawURL),
		Tags:      strings.TrimSpace(req.Tag),
		CreatedAt: s.now(),
	}

	if seeded {
		product.PriceSelector = s.synthesizeSelector(ctx, rawURL, req.CurrentPrice.Text)
	}

	if seeded {
		seed := s.observation(product.ID, req.CurrentPrice.Value, s.opts.DefaultCurrency)
		if err := s.store.CreateProductWithSeed(ctx, product, seed); err != nil {
			return nil, fmt.Errorf("failed to create product: %w", err)
		}
	} else if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	log.Printf("Created product %s (%s) for %s", product.ID, product.Name, product.URL)

	return product, nil
}

func (s *PriceService) synthesizeSelector(ctx context.Context, rawURL, knownPrice string) string {
	html, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		log.Printf("Failed to fetch %s for selector synthesis: %v", rawURL, err)
		return ""
	}

	selector, ok := scraper.SynthesizeSelector(html, knownPrice)
	if !ok {
		log.Printf("No element containing %q found on %s", knownPrice, rawURL)
		return ""
	}

	log.Printf("Synthesized selector %q for %s", selector, rawURL)
	return selector
}

// CheckPrice fetches the product page, extracts the price and appends one
// observation. Nothing is recorded when extraction fails.
func (s *PriceService) CheckPrice(ctx context.Context, productID string) (*models.PriceHistory, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, models.NewUserError(models.ErrValidation, "Product ID is required")
	}

	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	priceData, err := s.scrape(ctx, product)
	if err != nil {
		return nil, err
	}

	entry, err := s.record(ctx, product.ID, priceData.Price, priceData.Currency)
	if err != nil {
		return nil, fmt.Errorf("failed to record price: %w", err)
	}

	log.Printf("Current price for %s: %.2f %s (rule %s)", product.Name, entry.Price, entry.Currency, priceData.Rule)
	return entry, nil
}

// scrape converts every fetch or extraction failure into ErrExtraction
func (s *PriceService) scrape(ctx context.Context, product *models.Product) (*models.PriceData, error) {
	html, err := s.fetcher.Fetch(ctx, product.URL)
	if err != nil {
		log.Printf("Failed to fetch price page for product %s: %v", product.ID, err)
		return nil, fmt.Errorf("%w: %v", models.ErrExtraction, err)
	}

	selector := ""
	if s.opts.UseSelector {
		selector = product.PriceSelector
	}

	priceData, ok := s.extractor.ExtractScoped(html, selector)
	if ok {
		return priceData, nil
	}

	if blocked, reason := s.botDetector.DetectBotWall(html); blocked {
		log.Printf("Page for product %s looks like a bot wall: %s", product.ID, reason)
		return nil, models.NewUserError(models.ErrExtraction, "page appears to be blocked by a bot check ("+reason+")")
	}

	log.Printf("No price rule matched for product %s (%s)", product.ID, product.URL)
	return nil, fmt.Errorf("%w: no price rule matched", models.ErrExtraction)
}

// record is the single way observations are written
func (s *PriceService) record(ctx context.Context, productID string, price float64, currency string) (*models.PriceHistory, error) {
	entry := s.observation(productID, price, currency)
	if err := s.store.AddPriceHistory(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *PriceService) observation(productID string, price float64, currency string) *models.PriceHistory {
	if currency == "" {
		currency = s.opts.DefaultCurrency
	}

	return &models.PriceHistory{
		ID:        s.newID(),
		ProductID: productID,
		Price:     price,
		Currency:  currency,
		CheckedAt: s.now(),
	}
}

// ListProducts returns products newest first, optionally filtered by tag
func (s *PriceService) ListProducts(ctx context.Context, tag string) ([]models.ProductSummary, error) {
	summaries, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	tag = strings.TrimSpace(tag)
	if tag == "" {
		return summaries, nil
	}

	filtered := make([]models.ProductSummary, 0, len(summaries))
	for _, summary := range summaries {
		if summary.HasTag(tag) {
			filtered = append(filtered, summary)
		}
	}
	return filtered, nil
}

// GetProduct returns one product with its latest observation
func (s *PriceService) GetProduct(ctx context.Context, productID string) (*models.ProductSummary, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, models.NewUserError(models.ErrValidation, "Product ID is required")
	}
	return s.store.GetProductSummary(ctx, productID)
}

// History returns the product's observations ascending by time
func (s *PriceService) History(ctx context.Context, productID string, limit int) ([]models.PriceHistory, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, models.NewUserError(models.ErrValidation, "Product ID is required")
	}
	if limit < 0 {
		return nil, models.NewUserError(models.ErrValidation, "limit must not be negative")
	}

	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	return s.store.GetPriceHistory(ctx, productID, limit)
}

// DeleteProduct removes the product and its history
func (s *PriceService) DeleteProduct(ctx context.Context, productID string) error {
	if strings.TrimSpace(productID) == "" {
		return models.NewUserError(models.ErrValidation, "Product ID is required")
	}
	if err := s.store.DeleteProduct(ctx, productID); err != nil {
		return err
	}
	log.Printf("Deleted product %s", productID)
	return nil
}

// ProductIDs lists every product id, newest first
func (s *PriceService) ProductIDs(ctx context.Context) ([]string, error) {
	summaries, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	ids := make([]string, 0, len(summaries))
	for _, summary := range summaries {
		ids = append(ids, summary.ID)
	}
	return ids, nil
}

// Ping reports whether storage is reachable
func (s *PriceService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ExtractURL fetches a page and runs the extractor without recording anything
func (s *PriceService) ExtractURL(ctx context.Context, rawURL string) (*models.PriceData, error) {
	return s.scrape(ctx, &models.Product{ID: "(adhoc)", URL: rawURL})
}

// DeriveWebsite returns the hostname without a leading "www.", or "Unknown"
func DeriveWebsite(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Hostname() == "" {
		return "Unknown"
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}
