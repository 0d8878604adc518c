package scheduler

import (
	"context"
	"sync"
	"time"

	"bazaar/internal/repositories"
	"bazaar/pkg/delhivery"

	log "github.com/sirupsen/logrus"
)

const defaultInterval = 60 * time.Second

// Carrier is the slice of the logistics carrier the scheduled tasks depend
// on. *delhivery.Client satisfies it.
type Carrier interface {
	FetchWaybill(ctx context.Context, clientName string) (string, error)
	CreateShipment(ctx context.Context, req delhivery.ShipmentRequest) (string, error)
	TrackShipment(ctx context.Context, wayBill string) (string, error)
}

// EventPublisher emits order lifecycle events. May be nil.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// Config holds the task intervals.
type Config struct {
	FulfillmentInterval time.Duration
	TrackingInterval    time.Duration
}

// Scheduler owns the two recurring fulfillment tasks: shipment creation and
// tracking. It runs them on independent fixed-interval timers and owns their
// start/stop lifecycle; nothing registers jobs ambiently.
type Scheduler struct {
	orderRepo     repositories.OrderRepository
	productRepo   repositories.ProductRepository
	warehouseRepo repositories.WarehouseRepository
	carrier       Carrier
	events        EventPublisher

	fulfillmentInterval time.Duration
	trackingInterval    time.Duration

	logger *log.Entry
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Scheduler. Zero intervals fall back to 60s.
func New(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, warehouseRepo repositories.WarehouseRepository, carrier Carrier, events EventPublisher, cfg Config) *Scheduler {
	if cfg.FulfillmentInterval <= 0 {
		cfg.FulfillmentInterval = defaultInterval
	}
	if cfg.TrackingInterval <= 0 {
		cfg.TrackingInterval = defaultInterval
	}
	return &Scheduler{
		orderRepo:           orderRepo,
		productRepo:         productRepo,
		warehouseRepo:       warehouseRepo,
		carrier:             carrier,
		events:              events,
		fulfillmentInterval: cfg.FulfillmentInterval,
		trackingInterval:    cfg.TrackingInterval,
		logger:              log.WithField("component", "scheduler"),
	}
}

// Start launches both task loops. They run until Stop is called or the
// parent context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	// Claims survive a crash mid-attempt; nothing else ever claims, so any
	// claim still held now is stale and would park its order forever.
	if released, err := s.orderRepo.ReleaseStaleClaims(); err != nil {
		s.logger.WithError(err).Error("Failed to release stale fulfillment claims")
	} else if released > 0 {
		s.logger.WithField("count", released).Warn("Released stale fulfillment claims")
	}

	s.wg.Add(2)
	go s.loop(ctx, "fulfillment", s.fulfillmentInterval, s.runFulfillment)
	go s.loop(ctx, "tracking", s.trackingInterval, s.runTracking)

	s.logger.WithFields(log.Fields{
		"fulfillment_interval": s.fulfillmentInterval,
		"tracking_interval":    s.trackingInterval,
	}).Info("Scheduler started")
}

// Stop cancels both loops and waits for in-progress batches to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, name string, interval time.Duration, run func(context.Context)) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run(ctx)
		}
	}
}

// RunFulfillmentOnce executes a single shipment-creation batch. Exposed so
// operators and tests can trigger a cycle without waiting for the ticker.
func (s *Scheduler) RunFulfillmentOnce(ctx context.Context) {
	s.runFulfillment(ctx)
}

// RunTrackingOnce executes a single tracking batch.
func (s *Scheduler) RunTrackingOnce(ctx context.Context) {
	s.runTracking(ctx)
}
