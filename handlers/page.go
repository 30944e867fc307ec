package handlers

import (
	"bytes"
	_ "embed"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"

	"github.com/cameroncooke/xcodebuildmcp-site/pkg/logger"
	"github.com/cameroncooke/xcodebuildmcp-site/pkg/statslib"
)

//go:embed templates/index.html
var indexHTML []byte

// Page serves the landing page with the live stats already filled in, so the
// figures are right before the client-side loader runs.
func Page(lib *statslib.StatsLib, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		// Both lookups fall back on their own, so neither can fail the page.
		var (
			metrics statslib.RepoMetrics
			version statslib.LatestVersion
			wg      sync.WaitGroup
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			metrics = repoMetricsOrFallback(ctx, lib, log)
		}()
		go func() {
			defer wg.Done()
			version = latestVersionOrFallback(ctx, lib, log)
		}()
		wg.Wait()

		body, err := renderPage(metrics, version, lib.Config.Fallback)
		if err != nil {
			log.Warnf("Could not render stats into page: %v", err)
			body = indexHTML
		}

		c.Type("html", "utf-8")
		return c.Send(body)
	}
}

// renderPage writes the stats into every [data-stat] element. A nil value
// (upstream omitted the field) renders the fallback figure.
func renderPage(metrics statslib.RepoMetrics, version statslib.LatestVersion, fallback statslib.Fallback) ([]byte, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(indexHTML))
	if err != nil {
		return nil, err
	}

	stars, forks, v := fallback.Stars, fallback.Forks, fallback.Version
	if metrics.Stars != nil {
		stars = *metrics.Stars
	}
	if metrics.Forks != nil {
		forks = *metrics.Forks
	}
	if version.Version != nil {
		v = *version.Version
	}

	doc.Find(`[data-stat="stars"]`).SetText(formatCount(stars))
	doc.Find(`[data-stat="forks"]`).SetText(formatCount(forks))
	doc.Find(`[data-stat="version"]`).SetText(v)

	html, err := doc.Html()
	if err != nil {
		return nil, err
	}
	return []byte(html), nil
}

// formatCount groups digits in threes, e.g. 12345 -> "12,345".
func formatCount(n int) string {
	return humanize.Comma(int64(n))
}
