package redis

import (
	"context"
	"fmt"
	"io"
	"time"

	otrace "github.com/opentracing/opentracing-go"

	"github.com/datatrails/go-datatrails-smoketest/report"
)

const (
	DefaultRecordsPerSeed = 10

	// RecordTTL is applied to both ttl categories after they are written
	RecordTTL = 1000 * time.Second

	keyStrFmt    = "key-str-%d"
	keyNumFmt    = "key-num-%d"
	keyTTLStrFmt = "key-ttl-str-%d"
	keyTTLNumFmt = "key-ttl-num-%d"

	// The ttl categories use a distinct "key-ttl-" prefix so that none of
	// these patterns matches keys from another category.
	keyStrPattern    = "key-str*"
	keyNumPattern    = "key-num*"
	keyTTLStrPattern = "key-ttl-str*"
	keyTTLNumPattern = "key-ttl-num*"
)

type Counts struct {
	KeysStr    int `json:"keys_str"`
	KeysNum    int `json:"keys_num"`
	KeysStrTTL int `json:"keys_str_ttl"`
	KeysNumTTL int `json:"keys_num_ttl"`
}

// Result is comparable with == so observed and expected can be checked
// directly.
type Result struct {
	Counts Counts `json:"counts"`
}

// SmokeTester seeds a redis instance, counts what it wrote and then flushes
// it. FLUSHALL is used so it must only be pointed at a disposable instance.
type SmokeTester struct {
	cfg            RedisConfig
	client         RedisClient
	recordsPerSeed int
}

type SmokeTesterOption func(*SmokeTester)

func WithRecordsPerSeed(n int) SmokeTesterOption {
	return func(t *SmokeTester) {
		t.recordsPerSeed = n
	}
}

// NewSmokeTester connects to the configured instance. A connection failure is
// returned rather than deferred to the first operation.
func NewSmokeTester(ctx context.Context, cfg RedisConfig, opts ...SmokeTesterOption) (*SmokeTester, error) {
	if cfg == nil || cfg.ServiceName() == "" {
		return nil, ErrNoServiceName
	}

	t := &SmokeTester{
		cfg:            cfg,
		recordsPerSeed: DefaultRecordsPerSeed,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.recordsPerSeed < 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadRecordsPerSeed, t.recordsPerSeed)
	}

	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	t.client = client
	return t, nil
}

func (t *SmokeTester) Log() Logger {
	return t.cfg.Log()
}

func (t *SmokeTester) RecordsPerSeed() int {
	return t.recordsPerSeed
}

// Close releases the client connection.
func (t *SmokeTester) Close() error {
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	if err != nil {
		return CloseError(err, t.cfg.URL())
	}
	return nil
}

// GetExpected is the result a healthy instance produces. It never touches
// redis.
func (t *SmokeTester) GetExpected() Result {
	n := t.recordsPerSeed
	return Result{
		Counts: Counts{
			KeysStr:    n,
			KeysNum:    n,
			KeysStrTTL: n,
			KeysNumTTL: n,
		},
	}
}

// LoadData writes recordsPerSeed keys for each category.
func (t *SmokeTester) LoadData(ctx context.Context) error {
	span, ctx := otrace.StartSpanFromContext(ctx, "redis.smoketest.LoadData")
	defer span.Finish()

	log := t.Log().FromContext(ctx)
	defer log.Close()

	n := t.recordsPerSeed
	log.Debugf("LoadData: %d records per seed", n)

	for i := range n {
		if err := t.set(ctx, fmt.Sprintf(keyStrFmt, i), fmt.Sprintf("value=%d", i)); err != nil {
			return err
		}
	}
	for i := range n {
		if err := t.set(ctx, fmt.Sprintf(keyNumFmt, i), i*2); err != nil {
			return err
		}
	}
	for i := range n {
		if err := t.setWithTTL(ctx, fmt.Sprintf(keyTTLStrFmt, i), fmt.Sprintf("value-with-ttl=%d", i)); err != nil {
			return err
		}
	}
	for i := range n {
		if err := t.setWithTTL(ctx, fmt.Sprintf(keyTTLNumFmt, i), i*2); err != nil {
			return err
		}
	}
	return nil
}

func (t *SmokeTester) set(ctx context.Context, key string, value any) error {
	if err := t.client.Set(ctx, key, value, 0).Err(); err != nil {
		return LoadError(err, key)
	}
	return nil
}

// setWithTTL mirrors SET followed by EXPIRE so both commands are exercised
func (t *SmokeTester) setWithTTL(ctx context.Context, key string, value any) error {
	if err := t.set(ctx, key, value); err != nil {
		return err
	}
	ok, err := t.client.Expire(ctx, key, RecordTTL).Result()
	if err != nil {
		return LoadError(err, key)
	}
	if !ok {
		return LoadError(ErrRedisExpireNotFound, key)
	}
	return nil
}

// GetData counts the keys in each category.
func (t *SmokeTester) GetData(ctx context.Context) (Result, error) {
	span, ctx := otrace.StartSpanFromContext(ctx, "redis.smoketest.GetData")
	defer span.Finish()

	log := t.Log().FromContext(ctx)
	defer log.Close()

	var result Result
	var err error

	if result.Counts.KeysStr, err = t.count(ctx, keyStrPattern); err != nil {
		return Result{}, err
	}
	if result.Counts.KeysNum, err = t.count(ctx, keyNumPattern); err != nil {
		return Result{}, err
	}
	if result.Counts.KeysStrTTL, err = t.count(ctx, keyTTLStrPattern); err != nil {
		return Result{}, err
	}
	if result.Counts.KeysNumTTL, err = t.count(ctx, keyTTLNumPattern); err != nil {
		return Result{}, err
	}

	log.DebugR("GetData: keys_str, keys_num, keys_str_ttl, keys_num_ttl",
		result.Counts.KeysStr, result.Counts.KeysNum, result.Counts.KeysStrTTL, result.Counts.KeysNumTTL)
	return result, nil
}

func (t *SmokeTester) count(ctx context.Context, pattern string) (int, error) {
	keys, err := t.client.Keys(ctx, pattern).Result()
	if err != nil {
		return 0, QueryError(err, pattern)
	}
	return len(keys), nil
}

// Flush deletes every key in every database of the instance.
func (t *SmokeTester) Flush(ctx context.Context) error {
	span, ctx := otrace.StartSpanFromContext(ctx, "redis.smoketest.Flush")
	defer span.Finish()

	log := t.Log().FromContext(ctx)
	defer log.Close()

	log.Debugf("Flush: %s", t.cfg.URL())
	if err := t.client.FlushAll(ctx).Err(); err != nil {
		return FlushError(err, t.cfg.URL())
	}
	return nil
}

// Inspect returns the value stored at key and its remaining time to live. A
// key without expiry reports a negative ttl.
func (t *SmokeTester) Inspect(ctx context.Context, key string) (string, time.Duration, error) {
	value, err := t.client.Get(ctx, key).Result()
	if err != nil {
		return "", 0, InspectError(err, key)
	}
	ttl, err := t.client.TTL(ctx, key).Result()
	if err != nil {
		return "", 0, InspectError(err, key)
	}
	return value, ttl, nil
}

// Run loads, counts and flushes, returning the counts. The first error stops
// the sequence.
func (t *SmokeTester) Run(ctx context.Context) (Result, error) {
	span, ctx := otrace.StartSpanFromContext(ctx, "redis.smoketest.Run")
	defer span.Finish()

	if err := t.LoadData(ctx); err != nil {
		return Result{}, err
	}
	results, err := t.GetData(ctx)
	if err != nil {
		return Result{}, err
	}
	if err := t.Flush(ctx); err != nil {
		return Result{}, err
	}
	return results, nil
}

// Check runs the smoke test and compares the outcome with GetExpected. On a
// mismatch both values are written to w and ErrResultsMismatch is returned.
func (t *SmokeTester) Check(ctx context.Context, w io.Writer) error {
	span, ctx := otrace.StartSpanFromContext(ctx, "redis.smoketest.Check")
	defer span.Finish()

	log := t.Log().FromContext(ctx)
	defer log.Close()

	results, err := t.Run(ctx)
	if err != nil {
		return err
	}

	expected := t.GetExpected()
	if results != expected {
		log.InfoR("redis results did not match", results, expected)
		if err := report.Mismatch(w, results, expected); err != nil {
			log.Infof("unable to write mismatch report: %v", err)
		}
		return ErrResultsMismatch
	}

	log.Infof("redis smoke test passed for %s", t.cfg.ServiceName())
	return report.Passed(w, t.cfg.ServiceName())
}
