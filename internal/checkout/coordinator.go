package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/shopsplit/internal/planner"
	"github.com/dusk-indust/shopsplit/internal/ucp"
)

// Client places one merchant order. Implementations own the full merchant
// checkout lifecycle and return an opaque order reference on success.
type Client interface {
	CreateCheckoutSession(ctx context.Context, merchantID string, items []planner.PlannedItem) (orderRef string, err error)
}

// ProgressEvent reports one step of one merchant's checkout attempt.
type ProgressEvent struct {
	SessionID  string
	MerchantID string
	Step       string // "started", "retrying", "succeeded", "failed"
	Message    string
}

// Progress step names.
const (
	StepStarted   = "started"
	StepRetrying  = "retrying"
	StepSucceeded = "succeeded"
	StepFailed    = "failed"
)

// Coordinator fans a plan's merchant orders out concurrently and aggregates
// the outcomes. Outcomes are recorded under (session ID, merchant ID) with
// atomic check-and-set so a merchant that already succeeded for a session is
// never charged again, even if checkout is re-driven.
type Coordinator struct {
	client        Client
	timeout       time.Duration
	retryInterval time.Duration
	logger        *slog.Logger
	onProgress    func(ProgressEvent)

	mu       sync.Mutex
	inflight map[string]bool    // session ID -> checkout running
	outcomes map[string]Outcome // session ID + "/" + merchant ID
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithTimeout sets the per-merchant checkout timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.timeout = d }
}

// WithRetryInterval sets the initial backoff interval for the single retry.
func WithRetryInterval(d time.Duration) Option {
	return func(c *Coordinator) { c.retryInterval = d }
}

// WithLogger sets the coordinator's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithProgress registers a callback invoked synchronously from checkout
// goroutines for each per-merchant step.
func WithProgress(fn func(ProgressEvent)) Option {
	return func(c *Coordinator) { c.onProgress = fn }
}

// NewCoordinator creates a Coordinator with a 60s per-merchant timeout.
func NewCoordinator(client Client, opts ...Option) *Coordinator {
	c := &Coordinator{
		client:        client,
		timeout:       60 * time.Second,
		retryInterval: 500 * time.Millisecond,
		logger:        slog.Default(),
		inflight:      make(map[string]bool),
		outcomes:      make(map[string]Outcome),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Checkout executes the plan's merchant orders in parallel and waits for all
// of them. One merchant's failure never cancels or blocks the others.
// Merchants with a previously recorded success are skipped and their
// recorded outcome reused; failed merchants are attempted again, so a
// partial checkout can be re-driven. A concurrent duplicate invocation for
// the same session returns ErrInFlight.
func (c *Coordinator) Checkout(ctx context.Context, sessionID string, plan planner.Plan) (*UnifiedOrder, error) {
	merchants := plan.MerchantIDs()
	if len(merchants) == 0 {
		return nil, ErrEmptyPlan
	}

	// Check-and-set: reserve the session and decide, atomically, which
	// merchants still need dispatch.
	c.mu.Lock()
	if c.inflight[sessionID] {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrInFlight, sessionID)
	}
	c.inflight[sessionID] = true

	reused := make(map[string]Outcome)
	var dispatch []string
	for _, merchantID := range merchants {
		if out, ok := c.outcomes[outcomeKey(sessionID, merchantID)]; ok && out.Status == StatusSucceeded {
			reused[merchantID] = out
			continue
		}
		dispatch = append(dispatch, merchantID)
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.inflight, sessionID)
		c.mu.Unlock()
	}()

	// Fan-out with indexed result slots. Goroutines absorb their own
	// failures into the slot; the group never cancels siblings.
	results := make([]Outcome, len(dispatch))
	var g errgroup.Group
	for i, merchantID := range dispatch {
		g.Go(func() error {
			results[i] = c.checkoutMerchant(ctx, sessionID, plan.Orders[merchantID])
			return nil
		})
	}
	g.Wait()

	// Record outcomes. A success recorded elsewhere in the meantime wins
	// over our result for the same key.
	c.mu.Lock()
	outcomes := make(map[string]Outcome, len(merchants))
	for merchantID, out := range reused {
		outcomes[merchantID] = out
	}
	for i, merchantID := range dispatch {
		key := outcomeKey(sessionID, merchantID)
		if prev, ok := c.outcomes[key]; ok && prev.Status == StatusSucceeded {
			outcomes[merchantID] = prev
			continue
		}
		c.outcomes[key] = results[i]
		outcomes[merchantID] = results[i]
	}
	c.mu.Unlock()

	return c.aggregate(sessionID, plan, outcomes), nil
}

// Outcome returns the recorded outcome for (sessionID, merchantID), if any.
func (c *Coordinator) Outcome(sessionID, merchantID string) (Outcome, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out, ok := c.outcomes[outcomeKey(sessionID, merchantID)]
	return out, ok
}

// checkoutMerchant runs one merchant's checkout with its own timeout and at
// most one retry. Only transient failures (timeouts, 5xx) are retried;
// merchant rejections are final on the first attempt.
func (c *Coordinator) checkoutMerchant(ctx context.Context, sessionID string, order planner.MerchantOrder) Outcome {
	mctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.emit(ProgressEvent{SessionID: sessionID, MerchantID: order.MerchantID, Step: StepStarted})

	attempts := 0
	operation := func() (string, error) {
		attempts++
		ref, err := c.client.CreateCheckoutSession(mctx, order.MerchantID, order.Items)
		if err != nil {
			if !ucp.IsTemporary(err) {
				return "", backoff.Permanent(err)
			}
			c.emit(ProgressEvent{
				SessionID:  sessionID,
				MerchantID: order.MerchantID,
				Step:       StepRetrying,
				Message:    err.Error(),
			})
			return "", err
		}
		return ref, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInterval
	ref, err := backoff.RetryWithData(operation, backoff.WithContext(backoff.WithMaxRetries(bo, 1), mctx))
	if err != nil {
		c.logger.Warn("merchant checkout failed",
			"session_id", sessionID, "merchant_id", order.MerchantID,
			"attempts", attempts, "error", err)
		c.emit(ProgressEvent{
			SessionID:  sessionID,
			MerchantID: order.MerchantID,
			Step:       StepFailed,
			Message:    err.Error(),
		})
		return Outcome{
			MerchantID: order.MerchantID,
			Status:     StatusFailed,
			Err:        err.Error(),
			Attempts:   attempts,
		}
	}

	c.logger.Info("merchant checkout succeeded",
		"session_id", sessionID, "merchant_id", order.MerchantID, "order_ref", ref)
	c.emit(ProgressEvent{SessionID: sessionID, MerchantID: order.MerchantID, Step: StepSucceeded})
	return Outcome{
		MerchantID:     order.MerchantID,
		Status:         StatusSucceeded,
		OrderReference: ref,
		Attempts:       attempts,
	}
}

// aggregate folds per-merchant outcomes into a UnifiedOrder.
func (c *Coordinator) aggregate(sessionID string, plan planner.Plan, outcomes map[string]Outcome) *UnifiedOrder {
	succeeded := 0
	total := decimal.Zero
	for merchantID, out := range outcomes {
		if out.Status == StatusSucceeded {
			succeeded++
			total = total.Add(plan.Orders[merchantID].Total)
		}
	}

	overall := OverallFailed
	switch {
	case succeeded == len(outcomes):
		overall = OverallComplete
	case succeeded > 0:
		overall = OverallPartial
	}

	return &UnifiedOrder{
		SessionID:     sessionID,
		Outcomes:      outcomes,
		OverallStatus: overall,
		TotalCharged:  total,
		CreatedAt:     time.Now().UTC(),
	}
}

func (c *Coordinator) emit(ev ProgressEvent) {
	if c.onProgress != nil {
		c.onProgress(ev)
	}
}

func outcomeKey(sessionID, merchantID string) string {
	return sessionID + "/" + merchantID
}
