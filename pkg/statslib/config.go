package statslib

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Repository struct {
	Owner  string `yaml:"owner"`
	Name   string `yaml:"name"`
	APIURL string `yaml:"apiURL,omitempty"`
}

type Package struct {
	Name        string `yaml:"name"`
	RegistryURL string `yaml:"registryURL,omitempty"`
}

// Fallback holds the values served when an upstream lookup fails.
type Fallback struct {
	Stars   int    `yaml:"stars"`
	Forks   int    `yaml:"forks"`
	Version string `yaml:"version"`
}

type Config struct {
	Repository Repository    `yaml:"repository"`
	Package    Package       `yaml:"package"`
	Fallback   Fallback      `yaml:"fallback"`
	Freshness  time.Duration `yaml:"freshness"`
	Timeout    time.Duration `yaml:"timeout"`

	// Token is only ever taken from the environment.
	Token   string `yaml:"-"`
	LogURLs bool   `yaml:"logURLs,omitempty"`
}

const (
	DefaultAPIURL      = "https://api.github.com/"
	DefaultRegistryURL = "https://registry.npmjs.org/"
)

func DefaultConfig() Config {
	return Config{
		Repository: Repository{
			Owner:  "cameroncooke",
			Name:   "XcodeBuildMCP",
			APIURL: DefaultAPIURL,
		},
		Package: Package{
			Name:        "xcodebuildmcp",
			RegistryURL: DefaultRegistryURL,
		},
		Fallback: Fallback{
			Stars:   1900,
			Forks:   77,
			Version: "v1.10.4",
		},
		Freshness: time.Hour,
		Timeout:   15 * time.Second,
	}
}

// LoadConfig reads the YAML file at path (if any) over DefaultConfig and then
// applies GITHUB_TOKEN, HTTP_TIMEOUT and LOG_URLS from the environment.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		yamlFile, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
		if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
			return Config{}, fmt.Errorf("syntax error in config file '%s': %w", path, err)
		}
	}

	cfg.Token = os.Getenv("GITHUB_TOKEN")

	if timeoutStr := os.Getenv("HTTP_TIMEOUT"); timeoutStr != "" {
		seconds, err := strconv.Atoi(timeoutStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid HTTP_TIMEOUT '%s': %w", timeoutStr, err)
		}
		cfg.Timeout = time.Duration(seconds) * time.Second
	}

	if os.Getenv("LOG_URLS") == "true" {
		cfg.LogURLs = true
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.Repository.Owner == "" || c.Repository.Name == "" {
		return fmt.Errorf("repository owner and name are required")
	}
	if c.Package.Name == "" {
		return fmt.Errorf("package name is required")
	}
	if c.Repository.APIURL == "" {
		c.Repository.APIURL = DefaultAPIURL
	}
	if c.Package.RegistryURL == "" {
		c.Package.RegistryURL = DefaultRegistryURL
	}
	if c.Freshness < 0 {
		return fmt.Errorf("freshness must be >= 0")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0")
	}
	return nil
}
