package middlewares

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"crowdfund_backend/internals/middlewares/logger"
)

// requestTimeout matches statement_timeout on the database side.
const requestTimeout = 5 * time.Second

func SetupMiddlewares(app *fiber.App) {
	app.Use(RecoveryMiddleware())
	app.Use(requestid.New(requestid.Config{Header: "X-Request-ID"}))
	app.Use(RequestTimeout(requestTimeout))
	app.Use(logger.LoggerMiddleware())
	app.Use(CorsMiddleware())
	app.Use(GlobalRateLimiter())
}

// RequestTimeout bounds the user context handed to services.
func RequestTimeout(d time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), d)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}
