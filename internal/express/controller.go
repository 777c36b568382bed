package express

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/moldova-direct/storefront/internal/address"
	"github.com/moldova-direct/storefront/internal/models"
)

// countdownDuration is the fixed auto-skip window before express checkout
// navigates to the payment step on its own.
const countdownDuration = 5000 * time.Millisecond

// State is the express banner state machine.
type State int

// Express states
const (
	StateHidden State = iota
	StateManualBannerShown
	StateCountdownRunning
	StateApplying
	StateAppliedToPaymentPage
	StateAutoNavigated
	StateDismissed
)

// String returns the state name for logs and API payloads.
func (s State) String() string {
	switch s {
	case StateHidden:
		return "hidden"
	case StateManualBannerShown:
		return "manual_banner"
	case StateCountdownRunning:
		return "countdown_running"
	case StateApplying:
		return "applying"
	case StateAppliedToPaymentPage:
		return "applied"
	case StateAutoNavigated:
		return "auto_navigated"
	case StateDismissed:
		return "dismissed"
	default:
		return "unknown"
	}
}

// Applier commits the saved address and preferred shipping method to the
// checkout session. Implemented by the checkout orchestrator.
type Applier interface {
	ApplyExpressDefaults(ctx context.Context, addr models.Address, preferredMethodID string) error
}

// Navigator performs the jump to the payment step. The countdown timer and a
// manual click race for this action; the controller guarantees it fires at
// most once.
type Navigator interface {
	NavigateToPayment()
}

// Controller owns the express/auto-skip banner for one checkout-page entry.
// It is constructed fresh on every entry; no countdown state survives a
// navigation boundary.
type Controller struct {
	mu         sync.Mutex
	state      State
	evaluated  bool
	disposed   bool
	resolution address.Resolution
	timer      *clock.Timer
	startedAt  time.Time
	lastErr    error

	applier   Applier
	navigator Navigator
	clock     clock.Clock
	logger    *zap.Logger
}

// NewController creates a hidden express controller.
func NewController(applier Applier, navigator Navigator, clk clock.Clock, logger *zap.Logger) *Controller {
	return &Controller{
		state:     StateHidden,
		applier:   applier,
		navigator: navigator,
		clock:     clk,
		logger:    logger,
	}
}

// State returns the current banner state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the error from the most recent failed apply, for the error
// toast.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Evaluate decides the banner form from the eligibility resolved on checkout
// entry. It runs exactly once per entry; repeat calls are no-ops.
func (c *Controller) Evaluate(resolution address.Resolution) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.evaluated || c.disposed {
		return
	}
	c.evaluated = true
	c.resolution = resolution

	eligibility := resolution.Eligibility
	switch {
	case eligibility.HasSavedAddress && eligibility.HasPreferredShippingMethod:
		c.state = StateCountdownRunning
		c.startedAt = c.clock.Now()
		c.timer = c.clock.AfterFunc(countdownDuration, c.onCountdownElapsed)
	case eligibility.HasSavedAddress:
		c.state = StateManualBannerShown
	default:
		c.state = StateHidden
	}
}

// Progress returns the remaining countdown fraction in [0, 1], decreasing
// monotonically from 1 while the countdown runs.
func (c *Controller) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateCountdownRunning {
		return 0
	}
	elapsed := c.clock.Now().Sub(c.startedAt)
	remaining := 1 - float64(elapsed)/float64(countdownDuration)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Cancel stops a running countdown and degrades the banner to its manual
// form. A cancelled timer handle can never trigger a late navigation.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateCountdownRunning {
		return
	}
	c.stopTimerLocked()
	c.state = StateDismissed
	c.logger.Info("express countdown cancelled")
}

// UseExpress applies the saved details manually. It wins any race against the
// countdown timer; the loser becomes a no-op.
func (c *Controller) UseExpress(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateManualBannerShown, StateDismissed:
	case StateCountdownRunning:
		c.stopTimerLocked()
	default:
		c.mu.Unlock()
		return nil
	}
	c.state = StateApplying
	resolution := c.resolution
	c.mu.Unlock()

	err := c.apply(ctx, resolution)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = StateDismissed
		c.lastErr = err
		return err
	}
	c.state = StateAppliedToPaymentPage
	c.navigator.NavigateToPayment()
	return nil
}

// Edit discards the express fast path for this session and returns the saved
// address for editable form pre-fill. No auto-advance happens afterwards.
func (c *Controller) Edit() *models.Address {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateManualBannerShown && c.state != StateCountdownRunning {
		return nil
	}
	c.stopTimerLocked()
	c.state = StateDismissed
	return c.resolution.DefaultAddress
}

// Dispose cancels any pending countdown. Mandatory on unmount/navigation so
// a stale timer can never fire a rogue navigation on a later page.
func (c *Controller) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.disposed = true
	c.stopTimerLocked()
	if c.state == StateCountdownRunning {
		c.state = StateHidden
	}
}

// onCountdownElapsed runs on the countdown timer goroutine.
func (c *Controller) onCountdownElapsed() {
	c.mu.Lock()
	if c.disposed || c.state != StateCountdownRunning {
		// Stale handle: cancelled or already resolved another way.
		c.mu.Unlock()
		return
	}
	c.state = StateApplying
	resolution := c.resolution
	c.mu.Unlock()

	err := c.apply(context.Background(), resolution)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	if err != nil {
		c.state = StateDismissed
		c.lastErr = err
		c.logger.Warn("express auto-skip apply failed", zap.Error(err))
		return
	}
	c.state = StateAutoNavigated
	c.navigator.NavigateToPayment()
}

func (c *Controller) apply(ctx context.Context, resolution address.Resolution) error {
	if resolution.DefaultAddress == nil {
		return models.FieldErrors{"address": "no saved address on file"}
	}
	return c.applier.ApplyExpressDefaults(ctx, *resolution.DefaultAddress, resolution.PreferredMethodID)
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
