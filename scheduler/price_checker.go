package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"pricetrack/models"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DefaultSchedule runs a sweep every 12 hours (at 00:00 and 12:00)
const DefaultSchedule = "0 0 */12 * * *"

// Checker is the part of the price service a sweep needs
type Checker interface {
	ProductIDs(ctx context.Context) ([]string, error)
	CheckPrice(ctx context.Context, productID string) (*models.PriceHistory, error)
}

// Options configures the periodic sweep
type Options struct {
	Schedule   string
	Workers    int
	Interval   time.Duration // minimum gap between fetch starts
	RunOnStart bool
}

// SweepResult summarizes one pass over every product
type SweepResult struct {
	Checked int `json:"checked"`
	Failed  int `json:"failed"`
}

type PriceChecker struct {
	cron    *cron.Cron
	checker Checker
	opts    Options
	limiter *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc
}

// NewPriceChecker validates the schedule and prepares the cron runner
func NewPriceChecker(checker Checker, opts Options) (*PriceChecker, error) {
	if opts.Schedule == "" {
		opts.Schedule = DefaultSchedule
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}

	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log.Default()))),
	)

	pc := &PriceChecker{
		cron:    c,
		checker: checker,
		opts:    opts,
		limiter: newLimiter(opts.Interval),
	}
	pc.ctx, pc.cancel = context.WithCancel(context.Background())

	if _, err := c.AddFunc(opts.Schedule, pc.scheduledSweep); err != nil {
		return nil, fmt.Errorf("invalid check schedule %q: %w", opts.Schedule, err)
	}

	return pc, nil
}

func newLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Start starts the scheduled price checking
func (pc *PriceChecker) Start() {
	if pc.opts.RunOnStart {
		go pc.scheduledSweep()
	}

	pc.cron.Start()
	log.Printf("Price checker scheduled with %q (%d workers)", pc.opts.Schedule, pc.opts.Workers)
}

// Stop stops the schedule, cancels a sweep in progress and waits for it to end
func (pc *PriceChecker) Stop() {
	pc.cancel()
	<-pc.cron.Stop().Done()
}

func (pc *PriceChecker) scheduledSweep() {
	if _, err := pc.RunOnce(pc.ctx); err != nil {
		log.Printf("Scheduled price check failed: %v", err)
	}
}

// RunOnce checks every product once. Individual failures are logged and
// counted; they are not retried until the next sweep.
func (pc *PriceChecker) RunOnce(ctx context.Context) (SweepResult, error) {
	log.Println("Starting price check for all products")

	ids, err := pc.checker.ProductIDs(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("failed to list products: %w", err)
	}

	if len(ids) == 0 {
		log.Println("No products to check")
		return SweepResult{}, nil
	}

	var (
		checked, failed atomic.Int64
		waitErr         error
		g               errgroup.Group
	)
	g.SetLimit(pc.opts.Workers)

	for _, id := range ids {
		if waitErr = pc.limiter.Wait(ctx); waitErr != nil {
			break
		}

		g.Go(func() error {
			entry, err := pc.checker.CheckPrice(ctx, id)
			if err != nil {
				failed.Add(1)
				log.Printf("Failed to check price for product %s: %v", id, err)
				return nil
			}
			checked.Add(1)
			log.Printf("Product %s: %.2f %s", id, entry.Price, entry.Currency)
			return nil
		})
	}
	g.Wait()

	result := SweepResult{Checked: int(checked.Load()), Failed: int(failed.Load())}
	log.Printf("Price check finished: %d checked, %d failed", result.Checked, result.Failed)

	if waitErr != nil {
		return result, fmt.Errorf("price check interrupted: %w", waitErr)
	}
	return result, nil
}
