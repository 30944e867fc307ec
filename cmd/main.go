package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/cameroncooke/xcodebuildmcp-site/handlers"
	"github.com/cameroncooke/xcodebuildmcp-site/pkg/logger"
	"github.com/cameroncooke/xcodebuildmcp-site/pkg/statslib"

	"github.com/akamensky/argparse"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	parser := argparse.NewParser("xcodebuildmcp-site", "Landing page and live stats for XcodeBuildMCP")

	portEnv := os.Getenv("PORT")
	if portEnv == "" {
		portEnv = "8080"
	}
	port := parser.String("p", "port", &argparse.Options{
		Required: false,
		Default:  portEnv,
		Help:     "Port the webserver will listen on",
	})
	configPath := parser.String("c", "config", &argparse.Options{
		Required: false,
		Default:  os.Getenv("CONFIG"),
		Help:     "Path to a YAML site config (repository, package, fallbacks, freshness)",
	})
	prefork := parser.Flag("P", "prefork", &argparse.Options{
		Required: false,
		Help:     "This will spawn multiple processes listening",
	})
	debug := parser.Flag("d", "debug", &argparse.Options{
		Required: false,
		Help:     "Log cache hits and other debug output",
	})

	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(2)
	}

	log := logger.Stderr()
	log.SetDebug(*debug)

	cfg, err := statslib.LoadConfig(*configPath)
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
	if cfg.Token == "" {
		log.Warnf("GITHUB_TOKEN not set, GitHub requests are subject to the unauthenticated rate limit")
	}

	lib, err := statslib.New(cfg, statslib.WithLogger(log))
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}

	app := fiber.New(fiber.Config{
		Prefork: *prefork,
		GETOnly: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New())

	userpass := os.Getenv("USERPASS")
	if userpass != "" {
		userpass := strings.Split(userpass, ":")
		if len(userpass) != 2 {
			log.Errorf("USERPASS must be of the form user:pass")
			os.Exit(1)
		}
		app.Use(basicauth.New(basicauth.Config{
			Users: map[string]string{
				userpass[0]: userpass[1],
			},
		}))
	}

	if os.Getenv("NOLOGS") != "true" {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
			Output: os.Stderr,
		}))
	}

	handlers.Routes(app, lib, log)

	log.Infof("serving %s/%s stats and %s version on :%s",
		cfg.Repository.Owner, cfg.Repository.Name, cfg.Package.Name, *port)
	if err := app.Listen(":" + *port); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}
