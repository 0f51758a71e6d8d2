package main

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/datatrails/go-datatrails-smoketest/environment"
	"github.com/datatrails/go-datatrails-smoketest/logger"
	"github.com/datatrails/go-datatrails-smoketest/metrics"
	"github.com/datatrails/go-datatrails-smoketest/redis"
)

const (
	serviceNameFlag = "service-name"
	metricsKind     = "redis"
)

func newRootCmd(log logger.Logger) *cobra.Command {
	var boundService string

	cmd := &cobra.Command{
		Use:          serviceName,
		Short:        "Smoke tests for a bound redis service",
		Long:         "Loads keys into the bound redis service, counts them and flushes the instance. Exits non zero if the counts are not as expected.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return smokeTest(cmd.Context(), log, boundService, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&boundService, serviceNameFlag, "s", "", "The name of the service")
	_ = cmd.MarkFlagRequired(serviceNameFlag)

	return cmd
}

func smokeTest(ctx context.Context, log logger.Logger, boundService string, w io.Writer) (err error) {
	log = log.WithIndex("boundservice", boundService)

	recorder := metrics.New(log, metricsKind, boundService)
	start := time.Now()
	defer func() {
		recorder.Observe(start, err)
		if perr := recorder.PushFromEnv(); perr != nil {
			log.Infof("unable to push metrics: %v", perr)
		}
	}()

	cfg, err := redis.ConfigFromEnv(log, boundService)
	if err != nil {
		return err
	}

	n := environment.GetIntWithDefault(redis.RecordsPerSeedEnv, redis.DefaultRecordsPerSeed)
	tester, err := redis.NewSmokeTester(ctx, cfg, redis.WithRecordsPerSeed(n))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := tester.Close(); cerr != nil {
			log.Infof("close: %v", cerr)
		}
	}()

	return tester.Check(ctx, w)
}
