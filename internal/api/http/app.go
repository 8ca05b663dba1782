package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/peterbiondo/solar-calculator-proxy/internal/api/http/handlers"
	"github.com/peterbiondo/solar-calculator-proxy/internal/config"
	"github.com/peterbiondo/solar-calculator-proxy/internal/crm"
	"github.com/peterbiondo/solar-calculator-proxy/internal/observability"
	"github.com/peterbiondo/solar-calculator-proxy/internal/persistence"
	"github.com/peterbiondo/solar-calculator-proxy/internal/relay"
	"github.com/peterbiondo/solar-calculator-proxy/internal/service"
)

// BuildApp wires the full application from configuration. The returned
// cleanup releases long-lived resources and is safe to call once.
func BuildApp(cfg *config.Config, logger *zap.Logger) (*fiber.App, func()) {
	var redisClient *persistence.Redis
	var store crm.TokenStore = crm.NewMemoryStore()
	if cfg.Cache.Backend == config.TokenCacheRedis {
		redisClient = persistence.NewRedis(cfg.Redis, logger)
		store = crm.NewRedisStore(redisClient.Client)
	}

	crmClient := crm.NewClient(crm.ClientConfig{
		ClientID:     cfg.CRM.ClientID,
		ClientSecret: cfg.CRM.ClientSecret,
		SiteID:       cfg.CRM.SiteID,
		Timeout:      cfg.Upstream.Timeout(),
	}, store, logger)
	tagging := service.NewTaggingService(crmClient, cfg.CRM.TagIDs, logger)
	forwarder := relay.NewForwarder(relay.ForwarderConfig{
		Timeout: cfg.Upstream.Timeout(),
	}, logger)

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	RegisterMiddlewares(app, logger, metrics)
	RegisterRoutes(app, RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, redisClient),
		Relay:  handlers.NewRelayHandler(forwarder, logger),
		Tags:   handlers.NewTagHandler(tagging, logger),
	})

	cleanup := func() {
		redisClient.Close()
	}
	return app, cleanup
}
