package redis

import (
	"github.com/datatrails/go-datatrails-smoketest/logger"
)

type Logger = logger.Logger
