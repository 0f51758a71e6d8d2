package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/datatrails/go-datatrails-smoketest/logger"
	"github.com/datatrails/go-datatrails-smoketest/startup"
)

const (
	serviceName = "elasticsearch-smoke-test"
)

func main() {
	startup.Run(serviceName, run)
}

func run(log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newRootCmd(log).ExecuteContext(ctx)
}
