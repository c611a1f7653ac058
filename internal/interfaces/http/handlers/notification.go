// internal/interfaces/http/handlers/notification.go
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/pkg/errs"
	"github.com/your-org/storefront-backend/internal/pkg/notify"
)

// NotificationFeed lists and clears a user's stored notifications
type NotificationFeed interface {
	List(ctx context.Context, recipient uint) ([]notify.Notification, error)
	Clear(ctx context.Context, recipient uint) error
}

// NotificationHandler handles the notification feed endpoints
type NotificationHandler struct {
	feed NotificationFeed
	log  logrus.FieldLogger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(feed NotificationFeed, log logrus.FieldLogger) *NotificationHandler {
	return &NotificationHandler{feed: feed, log: log}
}

// GetNotifications handles GET /notifications
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	items, err := h.feed.List(c.Request.Context(), identity.ID)
	if err != nil {
		respondError(c, h.log, errs.Persistence("list notifications", err), "Failed to retrieve notifications")
		return
	}

	respondOK(c, http.StatusOK, "Notifications retrieved successfully", items)
}

// ClearNotifications handles DELETE /notifications
func (h *NotificationHandler) ClearNotifications(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	if err := h.feed.Clear(c.Request.Context(), identity.ID); err != nil {
		respondError(c, h.log, errs.Persistence("clear notifications", err), "Failed to clear notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Notifications cleared successfully",
	})
}
