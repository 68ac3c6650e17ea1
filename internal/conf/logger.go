package conf

import "github.com/Ridwan414/shobdotori/internal/logger"

// GetLogger returns the config package logger. It is fetched on every call
// because the central logger is only installed after settings are loaded.
func GetLogger() logger.Logger {
	return logger.Global().Module("config")
}
