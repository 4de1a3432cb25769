package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/predictify/predictify/internal/domain"
	"github.com/predictify/predictify/internal/event"
	"github.com/predictify/predictify/internal/logger"
	"github.com/predictify/predictify/internal/market"
	"github.com/predictify/predictify/internal/payout"
)

// SettlementWorker drives markets through resolution and distribution on
// their own clocks: oracle resolution fires at end time, distribution fires
// once the dispute window has elapsed. Oracle misses are retried on a poll
// interval until the feed answers or an admin resolves manually.
type SettlementWorker struct {
	marketSvc   market.Service
	distributor payout.Distributor
	retryEvery  time.Duration

	mu       sync.Mutex
	timers   map[uuid.UUID]*time.Timer // marketID -> next scheduled run
	shutdown chan struct{}
	wg       sync.WaitGroup
}

// NewSettlementWorker creates a new SettlementWorker
func NewSettlementWorker(marketSvc market.Service, distributor payout.Distributor, retryEvery time.Duration) *SettlementWorker {
	return &SettlementWorker{
		marketSvc:   marketSvc,
		distributor: distributor,
		retryEvery:  retryEvery,
		timers:      make(map[uuid.UUID]*time.Timer),
		shutdown:    make(chan struct{}),
	}
}

// Start rescans stored markets and reschedules any pending settlement work.
// Timers do not survive a restart, so everything Open or Resolved gets a
// fresh schedule.
func (w *SettlementWorker) Start() {
	ctx := context.Background()
	log := logger.FromContext(ctx)

	open, err := w.marketSvc.ListMarkets(ctx, domain.MarketStateOpen)
	if err != nil {
		log.Error(LogMsgFailedToRescanOnStartup, "state", domain.MarketStateOpen, "error", err)
	} else {
		for _, m := range open {
			w.scheduleResolution(m.ID, m.EndTime)
		}
	}

	resolved, err := w.marketSvc.ListMarkets(ctx, domain.MarketStateResolved)
	if err != nil {
		log.Error(LogMsgFailedToRescanOnStartup, "state", domain.MarketStateResolved, "error", err)
		return
	}
	for _, m := range resolved {
		if m.ResolvedAt == nil {
			continue
		}
		w.scheduleDistribution(m.ID, m.ResolvedAt.Add(m.DisputeWindow))
	}
}

// Subscribe subscribes the worker to relevant events
func (w *SettlementWorker) Subscribe(bus event.Bus) {
	bus.Subscribe(event.Type(domain.EventMarketCreated), w.handleMarketCreated)
	bus.Subscribe(event.Type(domain.EventMarketResolved), w.handleMarketResolved)
	bus.Subscribe(event.Type(domain.EventMarketCancelled), w.handleMarketCancelled)
}

func (w *SettlementWorker) handleMarketCreated(ctx context.Context, e event.Event) error {
	m, ok := e.Payload.(*domain.Market)
	if !ok {
		return nil
	}
	w.scheduleResolution(m.ID, m.EndTime)
	return nil
}

func (w *SettlementWorker) handleMarketResolved(ctx context.Context, e event.Event) error {
	payload, ok := e.Payload.(domain.MarketResolvedPayload)
	if !ok {
		return nil
	}

	m, err := w.marketSvc.GetMarket(ctx, payload.MarketID)
	if err != nil {
		return err
	}
	resolvedAt := time.Unix(payload.ResolvedAt, 0)
	w.scheduleDistribution(m.ID, resolvedAt.Add(m.DisputeWindow))
	return nil
}

func (w *SettlementWorker) handleMarketCancelled(ctx context.Context, e event.Event) error {
	m, ok := e.Payload.(*domain.Market)
	if !ok {
		return nil
	}
	w.cancelTimer(m.ID)
	return nil
}

func (w *SettlementWorker) scheduleResolution(id uuid.UUID, at time.Time) {
	log := logger.FromContext(context.Background())
	log.Info(LogMsgSchedulingResolution, "market_id", id, "at", at)
	w.scheduleRun(id, time.Until(at), w.resolveMarket)
}

func (w *SettlementWorker) scheduleDistribution(id uuid.UUID, at time.Time) {
	log := logger.FromContext(context.Background())
	log.Info(LogMsgSchedulingDistribution, "market_id", id, "at", at)
	w.scheduleRun(id, time.Until(at), w.distributePayouts)
}

// scheduleRun arms (or replaces) the market's timer. A run that is already
// due executes immediately in a tracked goroutine.
func (w *SettlementWorker) scheduleRun(id uuid.UUID, duration time.Duration, run func(uuid.UUID)) {
	if duration <= 0 {
		w.runTracked(id, run)
		return
	}

	w.mu.Lock()
	if existingTimer, ok := w.timers[id]; ok {
		existingTimer.Stop()
		delete(w.timers, id)
	}

	timer := time.AfterFunc(duration, func() {
		select {
		case <-w.shutdown:
			return
		default:
		}

		w.runTracked(id, run)

		w.mu.Lock()
		delete(w.timers, id)
		w.mu.Unlock()
	})

	w.timers[id] = timer
	w.mu.Unlock()
}

func (w *SettlementWorker) runTracked(id uuid.UUID, run func(uuid.UUID)) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		run(id)
	}()
}

func (w *SettlementWorker) resolveMarket(id uuid.UUID) {
	ctx := context.Background()
	log := logger.FromContext(ctx)
	log.Info(LogMsgResolvingScheduledMarket, "market_id", id)

	_, err := w.marketSvc.ResolveOracle(ctx, id)
	if err == nil || errors.Is(err, domain.ErrAlreadyResolved) {
		return
	}

	// A silent feed or an under-minimum pool may clear on a later attempt;
	// anything else is not retryable here
	if errors.Is(err, domain.ErrOracleUnavailable) || errors.Is(err, domain.ErrBelowMinimumPool) {
		log.Warn(LogMsgOracleRetryScheduled, "market_id", id, "retry_in", w.retryEvery, "error", err)
		w.scheduleRun(id, w.retryEvery, w.resolveMarket)
		return
	}

	log.Error(LogMsgFailedToResolveMarket, "market_id", id, "error", err)
}

func (w *SettlementWorker) distributePayouts(id uuid.UUID) {
	ctx := context.Background()
	log := logger.FromContext(ctx)
	log.Info(LogMsgDistributingScheduled, "market_id", id)

	if _, err := w.distributor.Distribute(ctx, id); err != nil {
		log.Error(LogMsgFailedToDistribute, "market_id", id, "error", err)
	}
}

func (w *SettlementWorker) cancelTimer(id uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.timers[id]; ok {
		timer.Stop()
		delete(w.timers, id)
		logger.FromContext(context.Background()).Info(LogMsgCancelledPendingRun, "market_id", id)
	}
}

// Shutdown cancels all pending timers and waits for in-flight runs
func (w *SettlementWorker) Shutdown(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Info(LogMsgShuttingDown)

	close(w.shutdown)

	w.mu.Lock()
	for id, timer := range w.timers {
		timer.Stop()
		log.Info(LogMsgCancelledPendingRun, "market_id", id)
	}
	w.timers = make(map[uuid.UUID]*time.Timer)
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info(LogMsgShutdownComplete)
		return nil
	case <-ctx.Done():
		log.Warn(LogMsgShutdownTimeout)
		return ctx.Err()
	}
}
