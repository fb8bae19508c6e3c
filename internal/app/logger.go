package app

import "github.com/studyhub/studyhub-server/pkg/logger"

// ConfigureLogging installs the global logger described by server.log_level
// and server.log_format.
func ConfigureLogging(cfg ServerConfig) error {
	return logger.Init(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
}
