package main

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/datatrails/go-datatrails-smoketest/elasticsearch"
	"github.com/datatrails/go-datatrails-smoketest/logger"
	"github.com/datatrails/go-datatrails-smoketest/metrics"
)

const (
	serviceNameFlag = "service-name"
	metricsKind     = "elasticsearch"
)

func newRootCmd(log logger.Logger) *cobra.Command {
	var boundService string

	cmd := &cobra.Command{
		Use:          serviceName,
		Short:        "Smoke tests for aws-elasticsearch service",
		Long:         "Indexes a sample document into the bound search domain and reads it back. Exits non zero if what comes back differs from what was written.",
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

	cfg, err := elasticsearch.ConfigFromEnv(log, boundService)
	if err != nil {
		return err
	}

	tester, err := elasticsearch.NewSmokeTester(cfg)
	if err != nil {
		return err
	}

	return tester.Check(ctx, w)
}
