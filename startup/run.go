// Package startup runs a smoke test binary with logging and tracing set up and
// turns the outcome into a process exit code.
package startup

import (
	"os"

	"github.com/google/uuid"

	"github.com/datatrails/go-datatrails-smoketest/environment"
	"github.com/datatrails/go-datatrails-smoketest/logger"
	"github.com/datatrails/go-datatrails-smoketest/tracing"
)

const (
	runIDKey = "runid"
)

type Runner func(logger.Logger) error

// Execute initialises the logger from LOGLEVEL, tags it with the service name
// and a fresh run id, starts tracing if configured and calls run. It returns
// 0 if run succeeds and 1 otherwise.
func Execute(serviceName string, run Runner) int {
	logger.New(environment.GetLogLevel())
	log := logger.Sugar.WithServiceName(serviceName).WithIndex(runIDKey, uuid.NewString())

	exitCode := func() int {
		closer, err := tracing.NewFromEnv(log, serviceName, tracing.EndpointEnv, tracing.DisableEnv)
		if err != nil {
			log.Infof("Error configuring tracing: %v", err)
			return 1
		}
		defer closer.Close()

		err = run(log)
		if err != nil {
			log.Infof("Error: %v", err)
			return 1
		}
		return 0
	}()

	log.Infof("Shutting down")
	logger.OnExit()

	return exitCode
}

// Run calls Execute and exits with its code. defers do not work in main()
// because of the os.Exit.
func Run(serviceName string, run Runner) {
	os.Exit(Execute(serviceName, run))
}
