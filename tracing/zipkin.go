package tracing

import (
	"log"

	"go.uber.org/zap"

	"github.com/datatrails/go-datatrails-smoketest/logger"
)

// newZipkinLogger sends reporter errors to the zap logger when there is one.
func newZipkinLogger() *log.Logger {
	if logger.Plain == nil {
		return zap.NewStdLog(zap.NewNop())
	}
	return zap.NewStdLog(logger.Plain.Named("zipkin"))
}
