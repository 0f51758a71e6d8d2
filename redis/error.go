package redis

import (
	"errors"
	"fmt"
)

var (
	ErrNoServiceName       = errors.New("no service name supplied")
	ErrBadRecordsPerSeed   = errors.New("records per seed must not be negative")
	ErrRedisClose          = errors.New("redis close error")
	ErrRedisConnect        = errors.New("redis connect error")
	ErrRedisLoad           = errors.New("redis load error")
	ErrRedisQuery          = errors.New("redis query error")
	ErrRedisFlush          = errors.New("redis flush error")
	ErrRedisInspect        = errors.New("redis inspect error")
	ErrRedisExpireNotFound = errors.New("redis expire found no key")
	ErrResultsMismatch     = errors.New("results did not match")
)

func CloseError(err error, name string) error {
	return fmt.Errorf("%w %s: %w", ErrRedisClose, name, err)
}

func ConnectError(err error, name string) error {
	return fmt.Errorf("%w %s: %w", ErrRedisConnect, name, err)
}

func LoadError(err error, key string) error {
	return fmt.Errorf("%w %s: %w", ErrRedisLoad, key, err)
}

func QueryError(err error, pattern string) error {
	return fmt.Errorf("%w %s: %w", ErrRedisQuery, pattern, err)
}

func FlushError(err error, name string) error {
	return fmt.Errorf("%w %s: %w", ErrRedisFlush, name, err)
}

func InspectError(err error, key string) error {
	return fmt.Errorf("%w %s: %w", ErrRedisInspect, key, err)
}
