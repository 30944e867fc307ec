package handlers

import (
	"context"

	"github.com/cameroncooke/xcodebuildmcp-site/pkg/logger"
	"github.com/cameroncooke/xcodebuildmcp-site/pkg/statslib"

	"github.com/gofiber/fiber/v2"
)

// GitHubStats is a Fiber handler answering the repository's star and fork
// counts. Upstream failures are logged and answered with the fallback counts,
// always with status 200.
func GitHubStats(lib *statslib.StatsLib, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(repoMetricsOrFallback(c.UserContext(), lib, log))
	}
}

// NPMVersion is a Fiber handler answering the package's latest version, with
// the same always-200 fallback policy as GitHubStats.
func NPMVersion(lib *statslib.StatsLib, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(latestVersionOrFallback(c.UserContext(), lib, log))
	}
}

// Health answers "ok" without touching either upstream.
func Health(c *fiber.Ctx) error {
	return c.SendString("ok")
}

func repoMetricsOrFallback(ctx context.Context, lib *statslib.StatsLib, log *logger.Logger) statslib.RepoMetrics {
	metrics, err := lib.RepoMetrics(ctx)
	if err != nil {
		// never surface upstream failures to the page
		log.Errorf("Error fetching GitHub stats: %v", err)
		return lib.FallbackRepoMetrics()
	}
	return metrics
}

func latestVersionOrFallback(ctx context.Context, lib *statslib.StatsLib, log *logger.Logger) statslib.LatestVersion {
	version, err := lib.LatestVersion(ctx)
	if err != nil {
		log.Errorf("Error fetching NPM version: %v", err)
		return lib.FallbackLatestVersion()
	}
	return version
}
