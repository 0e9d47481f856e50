package services

import (
	"context"
	"fmt"
	"log/slog"

	"dinerhub/internal/caching"
	"dinerhub/internal/common"
	"dinerhub/internal/models"
	"dinerhub/internal/repositories"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// OrderNotifier is told about order changes after they commit.
type OrderNotifier interface {
	OrderCreated(ctx context.Context, order *models.Order)
	OrderUpdated(ctx context.Context, order *models.Order)
}

// NotificationService handles persisted user notifications and live events
type NotificationService interface {
	OrderNotifier
	Notify(ctx context.Context, userID uuid.UUID, title, body string, link *string) error
	List(ctx context.Context, userID uuid.UUID, params common.PageParams) (*common.Page[*models.Notification], error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	Subscribe(ctx context.Context, topics ...string) *redis.PubSub
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	publisher        EventPublisher
	cacheSvc         caching.CacheService
	logger           *slog.Logger
}

func NewNotificationService(notificationRepo repositories.NotificationRepository, publisher EventPublisher, cacheSvc caching.CacheService, logger *slog.Logger) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		publisher:        publisher,
		cacheSvc:         cacheSvc,
		logger:           logger,
	}
}

func (s *notificationService) Notify(ctx context.Context, userID uuid.UUID, title, body string, link *string) error {
	n := &models.Notification{ID: uuid.New(), UserID: userID, Title: title, Body: body, Link: link}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return err
	}
	return s.publisher.Publish(ctx, "user:"+userID.String(), models.EventNotification, n)
}

func (s *notificationService) List(ctx context.Context, userID uuid.UUID, params common.PageParams) (*common.Page[*models.Notification], error) {
	return common.Paginate(ctx, params,
		func(ctx context.Context, limit, offset int) ([]*models.Notification, error) {
			return s.notificationRepo.ListByUser(ctx, userID, limit, offset)
		},
		func(ctx context.Context) (int64, error) {
			return s.notificationRepo.CountByUser(ctx, userID)
		},
	)
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.notificationRepo.MarkRead(ctx, userID, id)
}

func (s *notificationService) Subscribe(ctx context.Context, topics ...string) *redis.PubSub {
	return s.cacheSvc.Subscribe(ctx, topics...)
}

func (s *notificationService) OrderCreated(ctx context.Context, order *models.Order) {
	s.publish(ctx, TopicStaff, models.EventOrderCreated, order)
	s.publish(ctx, orderTopic(order), models.EventOrderCreated, order)
}

func (s *notificationService) OrderUpdated(ctx context.Context, order *models.Order) {
	s.publish(ctx, TopicStaff, models.EventOrderUpdated, order)
	s.publish(ctx, orderTopic(order), models.EventOrderUpdated, order)

	if order.UserID != nil {
		link := "/orders/" + order.ID.String()
		body := fmt.Sprintf("Your order is now %s", order.Status)
		if err := s.Notify(ctx, *order.UserID, "Order update", body, &link); err != nil {
			s.logger.Error("failed to store order notification", "order_id", order.ID, "error", err)
		}
	}
}

func (s *notificationService) publish(ctx context.Context, topic, eventType string, order *models.Order) {
	if topic == "" {
		return
	}
	if err := s.publisher.Publish(ctx, topic, eventType, order); err != nil {
		s.logger.Error("failed to publish order event", "order_id", order.ID, "topic", topic, "error", err)
	}
}

// orderTopic is the owner's stream: the user, or the table a guest sits at.
func orderTopic(order *models.Order) string {
	switch {
	case order.UserID != nil:
		return "user:" + order.UserID.String()
	case order.TableID != nil:
		return "table:" + order.TableID.String()
	}
	return ""
}
