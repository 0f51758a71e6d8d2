package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/datatrails/go-datatrails-smoketest/vcap"
)

const (
	// DefaultPort is used when no service registry is available
	DefaultPort = 6379

	// RecordsPerSeedEnv optionally overrides DefaultRecordsPerSeed
	RecordsPerSeedEnv = "REDIS_RECORDS_PER_SEED"

	credentialHost     = "host"
	credentialPort     = "port"
	credentialPassword = "password"

	connectTimeout = 30 * time.Second

	// go-redis retries 3 times by default, -1 disables
	noRetries = -1
)

type RedisConfig interface {
	GetOptions() (*redis.Options, error)
	ServiceName() string
	Source() vcap.Source
	URL() string
	Log() Logger
}

type RedisClient interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
	Keys(ctx context.Context, pattern string) *redis.StringSliceCmd
	FlushAll(ctx context.Context) *redis.StatusCmd
	Close() error
}

type clientConfig struct {
	log         Logger
	serviceName string
	source      vcap.Source
	options     redis.Options
}

// ConfigFromEnv resolves connection settings for serviceName. If the service
// registry is present the named binding must exist and supply host, port and
// password, and the connection uses TLS. Otherwise the service name is used as
// the host on the default port, unauthenticated and in the clear.
func ConfigFromEnv(log Logger, serviceName string) (RedisConfig, error) {
	if serviceName == "" {
		return nil, ErrNoServiceName
	}

	cfg := clientConfig{
		log:         log,
		serviceName: serviceName,
		options: redis.Options{
			Addr:       net.JoinHostPort(serviceName, strconv.Itoa(DefaultPort)),
			MaxRetries: noRetries,
		},
	}

	binding, source, err := vcap.Lookup(serviceName)
	cfg.source = source
	if err != nil {
		return nil, err
	}
	if binding == nil {
		log.Infof("no service registry, defaulting to %s", cfg.URL())
		return &cfg, nil
	}

	host, err := binding.Credentials.String(credentialHost)
	if err != nil {
		return nil, err
	}
	port, err := binding.Credentials.Int(credentialPort)
	if err != nil {
		return nil, err
	}
	password, err := binding.Credentials.String(credentialPassword)
	if err != nil {
		return nil, err
	}

	cfg.options.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	cfg.options.Password = password
	// elasticache presents certificates we are not able to verify
	//nolint:gosec
	cfg.options.TLSConfig = &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: true,
	}
	log.Infof("service registry binding %s (%s) at %s", binding.Name, binding.Plan, cfg.URL())

	return &cfg, nil
}

func (cfg *clientConfig) Log() Logger {
	return cfg.log
}

func (cfg *clientConfig) ServiceName() string {
	return cfg.serviceName
}

func (cfg *clientConfig) Source() vcap.Source {
	return cfg.source
}

func (cfg *clientConfig) URL() string {
	return cfg.options.Addr
}

// GetOptions returns a copy so callers can not alter the resolved config
func (cfg *clientConfig) GetOptions() (*redis.Options, error) {
	if cfg.options.Addr == "" {
		return nil, fmt.Errorf("no redis address configured for %s", cfg.serviceName)
	}
	opts := cfg.options
	return &opts, nil
}

// NewRedisClient creates a client and checks it can reach the server.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (RedisClient, error) {
	log := cfg.Log()

	opts, err := cfg.GetOptions()
	if err != nil {
		return nil, err
	}

	log.Infof("connecting to redis: %s (%s, tls=%v)", cfg.URL(), cfg.Source(), opts.TLSConfig != nil)
	c := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	status := c.Ping(ctx)
	if status.Err() != nil {
		log.Infof("failed ping: %v (%v)", status.Err(), status.FullName())
		_ = c.Close()
		return nil, ConnectError(status.Err(), cfg.URL())
	}
	return c, nil
}
