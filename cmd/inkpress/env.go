package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/eringen/inkpress"
	"github.com/eringen/inkpress/cms"
)

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))
	return b
}

func driver() string {
	return strings.ToLower(envDefault("CMS_DRIVER", "api"))
}

func databasePath() string {
	return envDefault("DATABASE_PATH", "data/blog.db")
}

func logLevel() log.Lvl {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}

func siteConfig() (inkpress.SiteConfig, error) {
	cfg := inkpress.SiteConfig{
		Name:             os.Getenv("SITE_NAME"),
		URL:              os.Getenv("SITE_URL"),
		Description:      os.Getenv("SITE_DESCRIPTION"),
		Addr:             os.Getenv("ADDR"),
		ValidateComments: envBool("VALIDATE_COMMENTS"),
		ProjectID:        os.Getenv("CMS_PROJECT_ID"),
		Dataset:          envDefault("CMS_DATASET", "production"),
	}
	if v := os.Getenv("REVALIDATE"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return cfg, fmt.Errorf("REVALIDATE: %w", err)
		}
		cfg.Revalidate = d
	}
	if v := os.Getenv("COMMENT_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("COMMENT_RATE_LIMIT: %w", err)
		}
		cfg.CommentRateLimit = n
	}
	return cfg, nil
}

// parseSeconds accepts a Go duration ("90s", "5m") or a bare number of seconds.
func parseSeconds(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}

func cmsConfig(cfg inkpress.SiteConfig) cms.Config {
	return cms.Config{
		ProjectID:  cfg.ProjectID,
		Dataset:    cfg.Dataset,
		APIVersion: os.Getenv("CMS_API_VERSION"),
		UseCDN:     envBool("CMS_USE_CDN"),
		Token:      os.Getenv("CMS_TOKEN"),
		Timeout:    cfg.FetchTimeout,
	}
}
