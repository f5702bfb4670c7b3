package workers

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	application "github.com/ileka2468/JuicerScribe/contexts/finance-core/inventory-balancer/application"
	"github.com/ileka2468/JuicerScribe/contexts/finance-core/inventory-balancer/domain/entities"
	domainerrors "github.com/ileka2468/JuicerScribe/contexts/finance-core/inventory-balancer/domain/errors"
	"github.com/ileka2468/JuicerScribe/contexts/finance-core/inventory-balancer/ports"
)

const moduleName = "finance-core/inventory-balancer"

// Config carries the numeric policy knobs for one balancer instance.
// Zero values fall back to the production defaults at the point of use.
type Config struct {
	Query               string
	WorkingCapitalFloor float64
	TargetRatio         float64
	DeadBand            float64
	MaxVideosPerBatch   int
	PageSize            int
	FetchCooldown       time.Duration
	LookbackDays        int
	DateWindowDays      int
}

// InventoryBalancer reconciles the value of AVAILABLE inventory against a
// target derived from the capital position. One instance runs one cycle at
// a time; a tick that arrives while a cycle is in flight is skipped, never
// queued.
type InventoryBalancer struct {
	Finance ports.FinanceRepository
	Videos  ports.VideoRepository
	Search  ports.VideoSearcher
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Rand    ports.Rand
	Config  Config
	Logger  *slog.Logger

	mu         sync.Mutex
	processing bool

	// Cycle-local state below is only touched by the goroutine that won the
	// processing guard.
	processedIDs  map[string]struct{}
	lastFetch     time.Time
	strategyIndex int
}

// RunOnce executes a single reconciliation cycle. It returns false when the
// reentrancy guard skipped the cycle. Errors are returned for observability
// only; callers must keep ticking regardless.
func (b *InventoryBalancer) RunOnce(ctx context.Context) (bool, error) {
	logger := application.ResolveLogger(b.Logger)

	b.mu.Lock()
	if b.processing {
		b.mu.Unlock()
		logger.Info("balancer cycle skipped, previous cycle still running",
			"event", "balancer_cycle_skipped_busy",
			"module", moduleName,
			"layer", "worker",
		)
		return false, nil
	}
	b.processing = true
	if b.processedIDs == nil {
		b.processedIDs = make(map[string]struct{})
	}
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.processing = false
		b.mu.Unlock()
	}()

	status, err := b.financialStatus(ctx)
	if err != nil {
		logger.Error("balancer cycle aborted, financial state unavailable",
			"event", "balancer_financial_read_failed",
			"module", moduleName,
			"layer", "worker",
			"error", err.Error(),
		)
		return true, err
	}

	logger.Info("balancer financial status",
		"event", "balancer_financial_status",
		"module", moduleName,
		"layer", "worker",
		"working_capital", status.WorkingCapital,
		"pending_payouts", status.PendingPayouts,
		"available_balance", status.AvailableBalance,
		"target_video_value", status.TargetVideoValue,
	)

	if status.AvailableBalance < b.Config.WorkingCapitalFloor {
		logger.Info("available balance below threshold, skipping adjustment",
			"event", "balancer_below_capital_floor",
			"module", moduleName,
			"layer", "worker",
			"available_balance", status.AvailableBalance,
			"floor", b.Config.WorkingCapitalFloor,
		)
		return true, nil
	}

	current, err := b.currentInventoryValue(ctx, status.BaseRate)
	if err != nil {
		logger.Error("balancer cycle aborted, inventory unavailable",
			"event", "balancer_inventory_read_failed",
			"module", moduleName,
			"layer", "worker",
			"error", err.Error(),
		)
		return true, err
	}

	delta := current - status.TargetVideoValue
	if math.Abs(delta) <= b.deadBand() {
		logger.Info("inventory value within dead-band of target, no adjustment",
			"event", "balancer_converged",
			"module", moduleName,
			"layer", "worker",
			"current_value", current,
			"target_value", status.TargetVideoValue,
		)
		return true, nil
	}

	if delta > 0 {
		removed := b.shrink(ctx, delta, status.BaseRate)
		logger.Info("balancer cycle removed inventory",
			"event", "balancer_cycle_shrunk",
			"module", moduleName,
			"layer", "worker",
			"excess_value", delta,
			"removed_value", removed,
		)
		return true, nil
	}

	needed := -delta
	added := b.grow(ctx, needed, status.BaseRate)
	remaining := needed - added
	logger.Info("balancer cycle added inventory",
		"event", "balancer_cycle_grown",
		"module", moduleName,
		"layer", "worker",
		"needed_value", needed,
		"added_value", added,
		"remaining_value", remaining,
	)
	if remaining <= b.deadBand() {
		logger.Info("remaining value below threshold, target reached",
			"event", "balancer_target_reached",
			"module", moduleName,
			"layer", "worker",
			"remaining_value", remaining,
		)
	}
	return true, nil
}

// financialStatus issues the three capital reads concurrently; any failure
// aborts the whole read so no partial state leaks into a cycle.
func (b *InventoryBalancer) financialStatus(ctx context.Context) (entities.FinancialStatus, error) {
	var baseRate, workingCapital, pendingPayouts float64

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		baseRate, err = b.Finance.BaseRate(groupCtx)
		return err
	})
	group.Go(func() error {
		var err error
		workingCapital, err = b.Finance.WorkingCapital(groupCtx)
		return err
	})
	group.Go(func() error {
		var err error
		pendingPayouts, err = b.Finance.PendingPayouts(groupCtx)
		return err
	})
	if err := group.Wait(); err != nil {
		return entities.FinancialStatus{}, fmt.Errorf("%w: %s", domainerrors.ErrDataUnavailable, err)
	}

	return entities.NewFinancialStatus(baseRate, workingCapital, pendingPayouts, b.targetRatio()), nil
}

func (b *InventoryBalancer) currentInventoryValue(ctx context.Context, baseRate float64) (float64, error) {
	videos, err := b.Videos.ListAvailable(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", domainerrors.ErrDataUnavailable, err)
	}
	var total float64
	for _, video := range videos {
		total += video.Cost(baseRate)
	}
	return total, nil
}

func (b *InventoryBalancer) now() time.Time {
	if b.Clock != nil {
		return b.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (b *InventoryBalancer) deadBand() float64 {
	if b.Config.DeadBand <= 0 {
		return 0.25
	}
	return b.Config.DeadBand
}

func (b *InventoryBalancer) targetRatio() float64 {
	if b.Config.TargetRatio <= 0 || b.Config.TargetRatio > 1 {
		return 0.8
	}
	return b.Config.TargetRatio
}
