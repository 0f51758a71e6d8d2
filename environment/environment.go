package environment

import (
	"os"
	"strconv"

	"github.com/datatrails/go-datatrails-smoketest/logger"
)

const (
	LogLevelEnv     = "LOGLEVEL"
	defaultLogLevel = logger.InfoLevel
)

// GetLogLevel returns the log level, defaulting to INFO. This is called before
// any logger is available. i.e. don't use a logger here.
func GetLogLevel() string {
	value, ok := os.LookupEnv(LogLevelEnv)
	if !ok || value == "" {
		return defaultLogLevel
	}
	return value
}

// Lookup reports whether key is present in the environment, even if empty.
func Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// GetWithDefault returns value of environment variable.
// If the environment variable does not exist the fallback is returned.
func GetWithDefault(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		value = fallback
	}
	return value
}

// GetIntWithDefault returns value of environment variable that is
// expected to be an int.
// If the environment variable does not exist or is incorrect,
// then the default value is returned.
func GetIntWithDefault(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := strconv.Atoi(val)
	if err != nil {
		if logger.Sugar != nil {
			logger.Sugar.Infof("`%s' can not be converted to an integer. defaulting to %v. err=%v", key, fallback, err)
		}
		return fallback
	}
	return value
}

// GetTruthy returns true if key is set to a value that is truthy. Returns
// false otherwise.
func GetTruthy(key string) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return false
	}
	// t,true,True,1 are all examples of 'truthy' values understood by ParseBool
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false
	}
	return b
}
