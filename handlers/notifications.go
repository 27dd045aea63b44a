package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/shourya0523/Pact-sub000/middleware"
	"github.com/shourya0523/Pact-sub000/models"
	"github.com/shourya0523/Pact-sub000/services"
	"github.com/shourya0523/Pact-sub000/utils"
)

const defaultPageSize = 50

// NotificationServiceInterface defines the inventory operations the handler needs
type NotificationServiceInterface interface {
	Create(ctx context.Context, req models.CreateNotificationRequest) (models.Notification, error)
	List(ctx context.Context, userID string, filter services.ListFilter) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
	Archive(ctx context.Context, userID, id string) error
	Delete(ctx context.Context, userID, id string) error
}

// NotificationHandler serves the notification inventory
type NotificationHandler struct {
	service NotificationServiceInterface
	logger  *utils.Logger
}

// NewNotificationHandler creates a new notification handler instance
func NewNotificationHandler(service NotificationServiceInterface, logger *utils.Logger) *NotificationHandler {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &NotificationHandler{service: service, logger: logger}
}

// RegisterRoutes mounts the inventory under /api/notifications.
func (h *NotificationHandler) RegisterRoutes(router fiber.Router) {
	requireUser := middleware.RequireUserID()

	api := router.Group("/api/notifications")
	api.Post("/", h.Create)
	api.Get("/", requireUser, h.List)
	api.Get("/unread-count", requireUser, h.UnreadCount)
	api.Patch("/read-all", requireUser, h.MarkAllRead)
	api.Patch("/:id/read", requireUser, h.MarkRead)
	api.Patch("/:id/archive", requireUser, h.Archive)
	api.Delete("/:id", requireUser, h.Delete)
}

// Create handles POST /api/notifications: stores the notification and pushes it to
// the user's open sockets.
func (h *NotificationHandler) Create(c *fiber.Ctx) error {
	var req models.CreateNotificationRequest
	if result := utils.ValidateJSON(c, &req); !result.IsValid {
		return utils.HandleValidationErrors(c, result)
	}

	created, err := h.service.Create(c.UserContext(), req)
	if errors.Is(err, services.ErrInvalidNotification) {
		return utils.BadRequestResponse(c, err.Error(), nil)
	}
	if err != nil {
		return h.internalError(c, "Failed to create notification", err)
	}

	h.logger.WithTraceID(utils.GetTraceID(c)).Info("Notification created", map[string]interface{}{
		"user_id":         req.UserID,
		"notification_id": created.ID,
		"type":            req.Type,
	})
	return utils.CreatedResponse(c, "Notification created", created)
}

// List handles GET /api/notifications
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	result := utils.ValidateQuery(c, map[string]string{
		"limit":  "min=1,max=100",
		"offset": "min=0",
	})
	if !result.IsValid {
		return utils.HandleValidationErrors(c, result)
	}

	filter := services.ListFilter{
		UnreadOnly:      c.QueryBool("unread_only"),
		IncludeArchived: c.QueryBool("archived"),
		Limit:           c.QueryInt("limit", defaultPageSize),
		Offset:          c.QueryInt("offset", 0),
	}

	items, err := h.service.List(c.UserContext(), middleware.UserID(c), filter)
	if err != nil {
		return h.internalError(c, "Failed to list notifications", err)
	}
	return utils.SuccessResponse(c, "Notifications retrieved", items)
}

// UnreadCount handles GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	count, err := h.service.UnreadCount(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return h.internalError(c, "Failed to count unread notifications", err)
	}
	return utils.SuccessResponse(c, "Unread count retrieved", models.UnreadCountResponse{Count: count})
}

// MarkRead handles PATCH /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	if err := h.service.MarkRead(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
		return h.mutationError(c, "Failed to mark notification read", err)
	}
	return utils.SuccessResponse(c, "Notification marked as read", nil)
}

// MarkAllRead handles PATCH /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	updated, err := h.service.MarkAllRead(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return h.internalError(c, "Failed to mark notifications read", err)
	}
	return utils.SuccessResponse(c, "All notifications marked as read", fiber.Map{"updated": updated})
}

// Archive handles PATCH /api/notifications/:id/archive
func (h *NotificationHandler) Archive(c *fiber.Ctx) error {
	if err := h.service.Archive(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
		return h.mutationError(c, "Failed to archive notification", err)
	}
	return utils.SuccessResponse(c, "Notification archived", nil)
}

// Delete handles DELETE /api/notifications/:id
func (h *NotificationHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
		return h.mutationError(c, "Failed to delete notification", err)
	}
	return utils.SuccessResponse(c, "Notification deleted", nil)
}

func (h *NotificationHandler) mutationError(c *fiber.Ctx, message string, err error) error {
	if errors.Is(err, services.ErrNotificationNotFound) {
		return utils.NotFoundResponse(c, "Notification")
	}
	return h.internalError(c, message, err)
}

func (h *NotificationHandler) internalError(c *fiber.Ctx, message string, err error) error {
	h.logger.WithTraceID(utils.GetTraceID(c)).WithSource("notification_handler").Error(message, err, map[string]interface{}{
		"method":  c.Method(),
		"path":    c.Path(),
		"user_id": middleware.UserID(c),
	})
	return utils.InternalServerErrorResponse(c, message)
}
