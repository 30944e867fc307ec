package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cameroncooke/xcodebuildmcp-site/pkg/logger"
	"github.com/cameroncooke/xcodebuildmcp-site/pkg/statslib"
)

// Routes mounts the landing page, health check and both stats endpoints.
func Routes(app fiber.Router, lib *statslib.StatsLib, log *logger.Logger) {
	app.Get("/", Page(lib, log))
	app.Get("/healthz", Health)
	app.Get("/api/github-stats", GitHubStats(lib, log))
	app.Get("/api/npm-version", NPMVersion(lib, log))
}
