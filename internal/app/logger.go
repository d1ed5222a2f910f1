package app

import (
	"strings"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/logger"
)

const serviceName = "dealerai"

// ConfigureLogging initialises the global logger with the provided level, defaulting to info.
// format selects json (default) or console output.
func ConfigureLogging(level, format string) error {
	level = strings.TrimSpace(level)
	if level == "" {
		level = "info"
	}
	return logger.InitWithOptions(level, logger.Options{
		Format:  strings.TrimSpace(format),
		Service: serviceName,
	})
}
