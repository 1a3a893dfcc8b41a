package configs

import (
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
	"github.com/gin-gonic/gin"
)

// SetupLogging configures the global apex logger from LOG_LEVEL and LOG_FORMAT.
func SetupLogging(cfg *Config) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}

	switch cfg.LogFormat {
	case "text":
		log.SetHandler(text.New(os.Stderr))
	case "json":
		log.SetHandler(json.New(os.Stderr))
	case "cli":
		log.SetHandler(cli.New(os.Stderr))
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q", cfg.LogFormat)
	}
	log.SetLevel(level)
	return nil
}

// GinMode keeps gin's debug output for LOG_LEVEL=debug only.
func (c *Config) GinMode() string {
	if c.LogLevel == "debug" {
		return gin.DebugMode
	}
	return gin.ReleaseMode
}
