package http

import (
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/peterbiondo/solar-calculator-proxy/internal/observability"
)

// RegisterMiddlewares attaches global middlewares: panic recovery and request logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics) {
	app.Use(recoveryMiddleware(logger))
	app.Use(observability.RequestLogger(logger, metrics))
}

// CORS returns the middleware applied to the integration routes: wildcard
// origin, POST/OPTIONS only, Content-Type allowed. Pre-flight OPTIONS
// short-circuits to 200 with an empty body.
func CORS() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Access-Control-Allow-Origin", "*")
		c.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		c.Set("Access-Control-Allow-Headers", "Content-Type")

		// SendStatus would write the status text as the body; pre-flight
		// responses must stay empty.
		if c.Method() == fiber.MethodOptions {
			return c.Status(fiber.StatusOK).SendString("")
		}
		return c.Next()
	}
}

func recoveryMiddleware(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				c.Status(fiber.StatusInternalServerError)
				_ = c.JSON(fiber.Map{"ok": false, "error": "Server error"})
				err = nil
			}
		}()
		return c.Next()
	}
}
