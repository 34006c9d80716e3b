package config

import (
	"os"

	"github.com/YaCodeDev/GoYaVarRSA/valueparser"
	"github.com/YaCodeDev/GoYaVarRSA/yalogger"
)

// GetEnv retrieves the value of an environment variable, parses it to the specified type T,
// and returns it. If the variable is not set or fails to parse, it returns fallback.
// If the variable is required and not set, it logs an error and exits the program.
//
// Example usage:
//
//	addr := GetEnv("HTTP_ADDR", ":8080", false, log)
func GetEnv[T valueparser.ParsableType](
	key string,
	fallback T,
	required bool,
	log yalogger.Logger,
) T {
	log = yalogger.OrDefault(log)

	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := valueparser.ParseValue[T](value); err == nil {
			return parsed
		}
	}

	if required {
		log.Fatalf("Environment variable %s is required", key)
	}

	log.Debugf(
		"Environment variable %s is not set or failed to parse, using default value %v",
		key,
		fallback,
	)

	return fallback
}
