// Package runner drives virtual storefront users: browsing, buying, and the
// back office confirming or cancelling the orders they placed.
package runner

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/flowershop/storefront/tools/loadgen/internal/client"
	"github.com/flowershop/storefront/tools/loadgen/internal/config"
	"github.com/flowershop/storefront/tools/loadgen/internal/metrics"
	"github.com/flowershop/storefront/tools/loadgen/internal/pool"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Scenario names
const (
	ScenarioBrowse   = "browse"
	ScenarioPurchase = "purchase"
	ScenarioConfirm  = "confirm"
	ScenarioCancel   = "cancel"
)

// Storefront is the part of the API the scenarios call
type Storefront interface {
	Register(ctx context.Context, in client.RegisterInput) (*client.Session, error)
	Login(ctx context.Context, username, password string) (*client.Session, error)
	ListProducts(ctx context.Context) ([]client.Product, error)
	AddToCart(ctx context.Context, s *client.Session, productID uuid.UUID, quantity int) (string, error)
	Checkout(ctx context.Context, s *client.Session, idempotencyKey string) (*client.Order, error)
	ConfirmOrder(ctx context.Context, admin *client.Session, id uuid.UUID) (*client.Order, error)
	CancelOrder(ctx context.Context, admin *client.Session, id uuid.UUID, reason string) (*client.Order, error)
}

// Runner executes a load run
type Runner struct {
	cfg      config.Config
	api      Storefront
	recorder *metrics.Recorder
	values   *pool.Pool
	limiter  *rate.Limiter
	admin    *client.Session

	// customers caps how many accounts are registered; beyond it sessions are reused
	customers int
	mu        sync.Mutex
	created   int
}

// New creates a Runner
func New(cfg config.Config, api Storefront, recorder *metrics.Recorder, values *pool.Pool) *Runner {
	limit := rate.Inf
	if cfg.QPS > 0 {
		limit = rate.Limit(cfg.QPS)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Runner{
		cfg:       cfg,
		api:       api,
		recorder:  recorder,
		values:    values,
		limiter:   rate.NewLimiter(limit, burst),
		customers: cfg.Workers * 4,
	}
}

// Run logs the admin in, loads the catalog and runs the workers until the
// configured duration elapses or ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	if r.cfg.Scenarios.Confirm > 0 || r.cfg.Scenarios.Cancel > 0 {
		admin, err := r.api.Login(ctx, r.cfg.Admin.Username, r.cfg.Admin.Password)
		if err != nil {
			return fmt.Errorf("admin login: %w", err)
		}
		r.admin = admin
	}
	if _, err := r.browse(ctx); err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	if r.values.Count(pool.KindProductID) == 0 {
		return errors.New("catalog has no products in stock")
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < r.cfg.Workers; i++ {
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			r.worker(ctx, rand.New(rand.NewPCG(seed, uint64(time.Now().UnixNano()))))
		}(uint64(i))
	}
	wg.Wait()
	return nil
}

func (r *Runner) worker(ctx context.Context, rng *rand.Rand) {
	r.recorder.WorkerStarted()
	defer r.recorder.WorkerStopped()

	for {
		if err := r.limiter.Wait(ctx); err != nil {
			return
		}
		scenario := r.pick(rng)
		start := time.Now()
		outcome := r.runScenario(ctx, scenario, rng)
		if ctx.Err() != nil {
			return
		}
		r.recorder.Observe(scenario, outcome, time.Since(start))
	}
}

// pick chooses a scenario by weight
func (r *Runner) pick(rng *rand.Rand) string {
	w := r.cfg.Scenarios
	n := rng.IntN(w.Total())
	switch {
	case n < w.Browse:
		return ScenarioBrowse
	case n < w.Browse+w.Purchase:
		return ScenarioPurchase
	case n < w.Browse+w.Purchase+w.Confirm:
		return ScenarioConfirm
	default:
		return ScenarioCancel
	}
}

func (r *Runner) runScenario(ctx context.Context, scenario string, rng *rand.Rand) string {
	var (
		outcome string
		err     error
	)
	switch scenario {
	case ScenarioBrowse:
		outcome, err = r.browse(ctx)
	case ScenarioPurchase:
		outcome, err = r.purchase(ctx, rng)
	case ScenarioConfirm:
		outcome, err = r.confirm(ctx)
	case ScenarioCancel:
		outcome, err = r.cancel(ctx)
	}
	if err != nil {
		return metrics.OutcomeError
	}
	return outcome
}

// browse refreshes the pool of products that still have stock
func (r *Runner) browse(ctx context.Context) (string, error) {
	products, err := r.api.ListProducts(ctx)
	if err != nil {
		return "", err
	}
	for _, p := range products {
		if p.StockQuantity > 0 {
			_, _ = r.values.Add(pool.KindProductID, p.ID)
		}
	}
	return metrics.OutcomeOK, nil
}

// purchase adds a random product to a customer's cart and checks out
func (r *Runner) purchase(ctx context.Context, rng *rand.Rand) (string, error) {
	v, ok := r.values.Random(pool.KindProductID)
	if !ok {
		return metrics.OutcomeSkipped, nil
	}
	productID := v.(uuid.UUID)

	session, err := r.session(ctx)
	if err != nil {
		return "", err
	}

	quantity := 1 + rng.IntN(r.cfg.MaxQuantity)
	if _, err := r.api.AddToCart(ctx, session, productID, quantity); err != nil {
		if client.IsCode(err, "INSUFFICIENT_STOCK") || isStatus(err, 422) {
			return metrics.OutcomeRejected, nil
		}
		return "", err
	}

	o, err := r.api.Checkout(ctx, session, uuid.NewString())
	if err != nil {
		// a reused session may have had its cart checked out by another worker
		if client.IsCode(err, "INSUFFICIENT_STOCK") || client.IsCode(err, "CONCURRENT_MODIFICATION") || client.IsCode(err, "EMPTY_CART") {
			return metrics.OutcomeRejected, nil
		}
		return "", err
	}
	_, _ = r.values.Add(pool.KindOrderID, o.ID)
	r.recorder.AddUnitsOrdered(o.TotalQuantity)
	return metrics.OutcomeOK, nil
}

// confirm confirms a placed order; confirmed orders go back to the pool so
// they can still be cancelled.
func (r *Runner) confirm(ctx context.Context) (string, error) {
	v, ok := r.values.Take(pool.KindOrderID)
	if !ok {
		return metrics.OutcomeSkipped, nil
	}
	o, err := r.api.ConfirmOrder(ctx, r.admin, v.(uuid.UUID))
	if err != nil {
		if client.IsCode(err, "INVALID_STATE") {
			return metrics.OutcomeRejected, nil
		}
		return "", err
	}
	_, _ = r.values.Add(pool.KindOrderID, o.ID)
	return metrics.OutcomeOK, nil
}

// cancel cancels a placed or confirmed order, which gives its stock back
func (r *Runner) cancel(ctx context.Context) (string, error) {
	v, ok := r.values.Take(pool.KindOrderID)
	if !ok {
		return metrics.OutcomeSkipped, nil
	}
	if _, err := r.api.CancelOrder(ctx, r.admin, v.(uuid.UUID), "Load test cancellation"); err != nil {
		if client.IsCode(err, "INVALID_STATE") {
			return metrics.OutcomeRejected, nil
		}
		return "", err
	}
	return metrics.OutcomeOK, nil
}

// session reuses a pooled customer or registers a new one while under the cap
func (r *Runner) session(ctx context.Context) (*client.Session, error) {
	r.mu.Lock()
	register := r.created < r.customers
	if register {
		r.created++
	}
	r.mu.Unlock()

	if !register {
		if v, ok := r.values.Random(pool.KindSession); ok {
			return v.(*client.Session), nil
		}
	}
	s, err := r.api.Register(ctx, fakeCustomer())
	if err != nil {
		return nil, err
	}
	_, _ = r.values.Add(pool.KindSession, s)
	return s, nil
}

func isStatus(err error, status int) bool {
	var apiErr *client.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}
