package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"dinerhub/internal/common"
	"dinerhub/internal/middleware"
	"dinerhub/internal/services"

	"github.com/labstack/echo/v4"
)

const streamHeartbeat = 15 * time.Second

// NotificationHandlers handles notification-related HTTP requests
type NotificationHandlers struct {
	notificationSvc services.NotificationService
	gate            *middleware.RBACMiddleware
	logger          *slog.Logger
}

// NewNotificationHandlers creates a new notification handlers instance
func NewNotificationHandlers(notificationSvc services.NotificationService, gate *middleware.RBACMiddleware, logger *slog.Logger) *NotificationHandlers {
	return &NotificationHandlers{
		notificationSvc: notificationSvc,
		gate:            gate,
		logger:          logger,
	}
}

func (h *NotificationHandlers) Register(g *echo.Group) {
	g.GET("/notifications", h.ListNotifications, h.gate.Require("notification.list"))
	g.POST("/notifications/:id/read", h.MarkRead, h.gate.Require("notification.markRead"))
	g.GET("/notifications/stream", h.Stream, h.gate.Require("notification.stream"))
}

// ListNotifications returns the caller's inbox, newest first
func (h *NotificationHandlers) ListNotifications(c echo.Context) error {
	_, userID, err := requireUser(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	params, err := common.PageParamsFromQuery(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	page, err := h.notificationSvc.List(c.Request().Context(), userID, params)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, page)
}

func (h *NotificationHandlers) MarkRead(c echo.Context) error {
	_, userID, err := requireUser(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	if err := h.notificationSvc.MarkRead(c.Request().Context(), userID, id); err != nil {
		return common.SendAppError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Stream pushes live events to the caller as server-sent events. Users get
// their own topic, table guests get the table's, and staff with order.list
// also receive the kitchen feed.
func (h *NotificationHandlers) Stream(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	var topics []string
	if t := p.EventTopic(); t != "" {
		topics = append(topics, t)
	}
	if h.gate.Allowed(c, "order.list") {
		topics = append(topics, services.TopicStaff)
	}
	if len(topics) == 0 {
		return common.SendAppError(c, common.NewForbiddenError("no event stream for this session"))
	}

	ctx := c.Request().Context()
	sub := h.notificationSvc.Subscribe(ctx, topics...)
	defer sub.Close()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	fmt.Fprint(res, ": connected\n\n")
	res.Flush()

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()
	messages := sub.Channel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-heartbeat.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case msg, open := <-messages:
			if !open {
				return nil
			}
			var head struct {
				ID   string `json:"id"`
				Type string `json:"type"`
			}
			if err := json.Unmarshal([]byte(msg.Payload), &head); err != nil {
				h.logger.Warn("dropping malformed event", "channel", msg.Channel, "error", err)
				continue
			}
			if _, err := fmt.Fprintf(res, "id: %s\nevent: %s\ndata: %s\n\n", head.ID, head.Type, msg.Payload); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
