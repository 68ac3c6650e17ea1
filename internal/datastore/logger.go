package datastore

import "github.com/Ridwan414/shobdotori/internal/logger"

// GetLogger returns the datastore module logger; SQL shows at trace level.
func GetLogger() logger.Logger {
	return logger.Global().Module("datastore")
}
