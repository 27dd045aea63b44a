package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/shourya0523/Pact-sub000/utils"
)

// UserIDHeader identifies the calling user on inventory routes.
const UserIDHeader = "X-User-ID"

const userIDLocal = "user_id"

// RequireUserID rejects requests without an X-User-ID header with 401.
func RequireUserID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get(UserIDHeader))
		if userID == "" {
			return utils.UnauthorizedResponse(c, "X-User-ID header is required")
		}
		c.Locals(userIDLocal, userID)
		return c.Next()
	}
}

// UserID returns the user id stored by RequireUserID.
func UserID(c *fiber.Ctx) string {
	userID, _ := c.Locals(userIDLocal).(string)
	return userID
}
