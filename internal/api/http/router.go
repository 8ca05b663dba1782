package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/peterbiondo/solar-calculator-proxy/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health *handlers.HealthHandler
	Relay  *handlers.RelayHandler
	Tags   *handlers.TagHandler
}

// RegisterRoutes wires HTTP routes. The two integration routes accept every
// method so the handlers can apply the fixed-order OPTIONS/405 checks the
// contract requires.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.All("/webhook/relay", CORS(), cfg.Relay.Relay)
	app.All("/contacts/tag", CORS(), cfg.Tags.Tag)
}
