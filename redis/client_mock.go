package redis

// Defines Mocks for the redis client

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/stretchr/testify/mock"
)

// mockClient is a mock redis Client
type mockClient struct {
	mock.Mock
}

func (mc *mockClient) Ping(ctx context.Context) *redis.StatusCmd {
	arguments := mc.Called()
	return arguments.Get(0).(*redis.StatusCmd)
}

func (mc *mockClient) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	arguments := mc.Called(key, value, expiration)
	return arguments.Get(0).(*redis.StatusCmd)
}

func (mc *mockClient) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	arguments := mc.Called(key, expiration)
	return arguments.Get(0).(*redis.BoolCmd)
}

func (mc *mockClient) Get(ctx context.Context, key string) *redis.StringCmd {
	arguments := mc.Called(key)
	return arguments.Get(0).(*redis.StringCmd)
}

func (mc *mockClient) TTL(ctx context.Context, key string) *redis.DurationCmd {
	arguments := mc.Called(key)
	return arguments.Get(0).(*redis.DurationCmd)
}

func (mc *mockClient) Keys(ctx context.Context, pattern string) *redis.StringSliceCmd {
	arguments := mc.Called(pattern)
	return arguments.Get(0).(*redis.StringSliceCmd)
}

func (mc *mockClient) FlushAll(ctx context.Context) *redis.StatusCmd {
	arguments := mc.Called()
	return arguments.Get(0).(*redis.StatusCmd)
}

func (mc *mockClient) Close() error {
	arguments := mc.Called()
	return arguments.Error(0)
}
