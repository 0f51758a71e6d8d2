package elasticsearch

import (
	"errors"
	"fmt"
)

var (
	ErrNoServiceName     = errors.New("no service name supplied")
	ErrNoServiceRegistry = errors.New("service registry not present")
	ErrClient            = errors.New("elasticsearch client error")
	ErrIndex             = errors.New("elasticsearch index error")
	ErrGet               = errors.New("elasticsearch get error")
	ErrDelete            = errors.New("elasticsearch delete error")
	ErrResponse          = errors.New("unexpected elasticsearch response")
	ErrSign              = errors.New("request signing error")
	ErrResultsMismatch   = errors.New("results did not match")
)

func IndexError(err error, path string) error {
	return fmt.Errorf("%w %s: %w", ErrIndex, path, err)
}

func GetError(err error, path string) error {
	return fmt.Errorf("%w %s: %w", ErrGet, path, err)
}

func DeleteError(err error, path string) error {
	return fmt.Errorf("%w %s: %w", ErrDelete, path, err)
}

// ResponseError records a non 2xx status along with whatever body came back.
func ResponseError(status int, body string) error {
	return fmt.Errorf("%w: status %d: %s", ErrResponse, status, body)
}

func ClientError(err error, address string) error {
	return fmt.Errorf("%w %s: %w", ErrClient, address, err)
}
