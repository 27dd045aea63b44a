package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/shourya0523/Pact-sub000/utils"
)

// CORS allows the mobile and web dev builds to call the dev server. An empty
// origins list allows any origin.
func CORS(origins ...string) fiber.Handler {
	allowOrigins := "*"
	if len(origins) > 0 {
		allowOrigins = strings.Join(origins, ",")
	}

	return cors.New(cors.Config{
		AllowOrigins: allowOrigins,
		AllowMethods: strings.Join([]string{
			fiber.MethodGet,
			fiber.MethodPost,
			fiber.MethodPatch,
			fiber.MethodDelete,
			fiber.MethodOptions,
		}, ","),
		AllowHeaders: strings.Join([]string{
			"Origin",
			"Content-Type",
			"Accept",
			UserIDHeader,
			utils.TraceIDHeader,
			RequestIDHeader,
		}, ","),
		ExposeHeaders: strings.Join([]string{utils.TraceIDHeader, RequestIDHeader}, ","),
		MaxAge:        86400,
	})
}
