package redis

import (
	"github.com/go-redis/redis/v8"

	"github.com/datatrails/go-datatrails-smoketest/vcap"
)

// NewSmokeTesterWithMockedRedis returns a tester wired to a mock client. No
// connection is attempted.
func NewSmokeTesterWithMockedRedis(
	log Logger,
	serviceName string,
	opts ...SmokeTesterOption,
) (*SmokeTester, *mockClient) {
	mClient := &mockClient{}
	t := &SmokeTester{
		cfg: &clientConfig{
			log:         log,
			serviceName: serviceName,
			source:      vcap.DefaultFallback,
			options:     redis.Options{Addr: serviceName + ":6379"},
		},
		client:         mClient, // Don't use the real thing.
		recordsPerSeed: DefaultRecordsPerSeed,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t, mClient
}
