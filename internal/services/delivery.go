package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/abrezinsky/surveydesk/internal/errors"
	"github.com/abrezinsky/surveydesk/internal/logger"
	"github.com/abrezinsky/surveydesk/internal/models"
	"github.com/abrezinsky/surveydesk/internal/paginator"
	"github.com/abrezinsky/surveydesk/internal/repository"
)

// deliveryTransitions lists the statuses each status may move to
var deliveryTransitions = map[string][]string{
	models.DeliveryPending:    {models.DeliveryProcessing, models.DeliveryCancelled},
	models.DeliveryProcessing: {models.DeliveryShipped, models.DeliveryCancelled},
	models.DeliveryShipped:    {models.DeliveryDelivered, models.DeliveryCancelled},
	models.DeliveryDelivered:  {},
	models.DeliveryCancelled:  {},
}

// CanTransition reports whether a delivery may move from one status to another
func CanTransition(from, to string) bool {
	return oneOf(to, deliveryTransitions[from])
}

// Notifier tells a user about something that happened to them
type Notifier interface {
	Notify(ctx context.Context, userID int, title, message, kind string) (*models.Notification, error)
}

// DeliveryService manages the fulfilment of claimed rewards
type DeliveryService struct {
	log      logger.Logger
	repo     repository.DeliveryRepository
	notifier Notifier
}

// NewDeliveryService creates a new DeliveryService
func NewDeliveryService(log logger.Logger, repo repository.DeliveryRepository, notifier Notifier) *DeliveryService {
	return &DeliveryService{log: log, repo: repo, notifier: notifier}
}

// DeliveryUpdate is an admin status change. Empty tracking number or
// notes keep the stored values.
type DeliveryUpdate struct {
	Status         string `json:"status"`
	TrackingNumber string `json:"tracking_number"`
	Notes          string `json:"notes"`
}

// List returns a page of deliveries
func (s *DeliveryService) List(ctx context.Context, f repository.DeliveryFilter, page, limit int) (*paginator.Page[models.Delivery], error) {
	if f.Status != "" {
		if _, ok := deliveryTransitions[f.Status]; !ok {
			return nil, errors.Field("status", "unknown delivery status")
		}
	}
	deliveries, err := s.repo.ListDeliveries(ctx, f, page, limit)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return deliveries, nil
}

// Get returns one delivery
func (s *DeliveryService) Get(ctx context.Context, id int) (*models.Delivery, error) {
	d, err := s.repo.GetDelivery(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "delivery not found")
	}
	return d, nil
}

// UpdateStatus moves a delivery along pending -> processing -> shipped ->
// delivered, or to cancelled from any non-terminal status. Shipping needs
// a tracking number. The user is notified of every status change.
func (s *DeliveryService) UpdateStatus(ctx context.Context, id int, upd DeliveryUpdate) (*models.Delivery, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	tracking := strings.TrimSpace(upd.TrackingNumber)
	if tracking == "" {
		tracking = d.TrackingNumber
	}
	notes := strings.TrimSpace(upd.Notes)
	if notes == "" {
		notes = d.Notes
	}

	fields := errors.FieldErrors{}
	if _, ok := deliveryTransitions[upd.Status]; !ok {
		fields.Add("status", "unknown delivery status")
	} else if upd.Status != d.Status && !CanTransition(d.Status, upd.Status) {
		fields.Add("status", fmt.Sprintf("cannot change from %s to %s", d.Status, upd.Status))
	}
	if upd.Status == models.DeliveryShipped && tracking == "" {
		fields.Add("tracking_number", "is required when shipping")
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateDeliveryStatus(ctx, id, upd.Status, tracking, notes); err != nil {
		return nil, fromRepo(err, "delivery not found")
	}

	if upd.Status != d.Status {
		s.log.Info("Delivery status changed", "delivery_id", id, "from", d.Status, "to", upd.Status)
		s.notify(ctx, d, upd.Status, tracking)
	}
	return s.Get(ctx, id)
}

func (s *DeliveryService) notify(ctx context.Context, d *models.Delivery, status, tracking string) {
	if s.notifier == nil {
		return
	}
	msg := fmt.Sprintf("Your reward %q is now %s.", d.RewardName, status)
	if status == models.DeliveryShipped {
		msg = fmt.Sprintf("Your reward %q has shipped. Tracking number: %s", d.RewardName, tracking)
	}
	if _, err := s.notifier.Notify(ctx, d.UserID, "Reward delivery update", msg, NotificationDelivery); err != nil {
		s.log.Warn("Failed to notify delivery update", "delivery_id", d.ID, "error", err)
	}
}
