package scheduler

import (
	"context"
	"time"

	"bazaar/internal/models"
	"bazaar/pkg/rabbitmq"

	log "github.com/sirupsen/logrus"
)

// runTracking is one tracking batch: it polls the carrier for every shipped
// order still in progress, records the raw carrier status, and advances the
// ledger when the carrier reports a terminal outcome. A lookup failure for
// one order never aborts the batch.
func (s *Scheduler) runTracking(ctx context.Context) {
	logger := s.logger.WithField("task", "tracking")

	orders, err := s.orderRepo.FindInTransit()
	if err != nil {
		logger.WithError(err).Error("Failed to query orders in transit")
		return
	}

	for i := range orders {
		order := &orders[i]
		if order.WayBill == "" {
			logger.WithField("order_id", order.OrderID).Warn("Order has no waybill, cannot track")
			continue
		}
		s.trackOrder(ctx, order, logger)
	}
}

func (s *Scheduler) trackOrder(ctx context.Context, order *models.Order, logger *log.Entry) {
	logger = logger.WithFields(log.Fields{"order_id": order.OrderID, "way_bill": order.WayBill})

	carrierStatus, err := s.carrier.TrackShipment(ctx, order.WayBill)
	if err != nil {
		logger.WithError(err).Warn("Tracking lookup failed")
		return
	}

	// The raw carrier string is always recorded, recognized or not.
	if err := s.orderRepo.SetDeliveryStatus(order.ID, carrierStatus); err != nil {
		logger.WithError(err).Error("Failed to record delivery status")
		return
	}

	switch carrierStatus {
	case models.CarrierStatusDelivered:
		delivered, err := s.orderRepo.MarkDelivered(order.ID, time.Now())
		if err != nil {
			logger.WithError(err).Error("Failed to mark order delivered")
			return
		}
		if delivered {
			logger.Info("Order delivered")
			s.publish(rabbitmq.RouteOrderDelivered, map[string]string{
				"order_id": order.OrderID,
				"user_id":  order.UserID,
			})
		}
	case models.CarrierStatusRTO:
		cancelled, err := s.orderRepo.MarkCancelled(order.ID)
		if err != nil {
			logger.WithError(err).Error("Failed to cancel returned order")
			return
		}
		if cancelled {
			logger.Info("Order returned to origin, cancelled")
			s.publish(rabbitmq.RouteOrderCancelled, map[string]string{
				"order_id": order.OrderID,
				"user_id":  order.UserID,
			})
		}
	default:
		logger.WithField("carrier_status", carrierStatus).Debug("Delivery status updated")
	}
}
