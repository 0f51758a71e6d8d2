// Package vcap resolves bound service credentials from the Cloud Foundry
// service registry (VCAP_SERVICES).
package vcap

import (
	"encoding/json"
	"errors"
	"fmt"

	cfenv "github.com/cloudfoundry-community/go-cfenv"
	"github.com/spf13/cast"

	"github.com/datatrails/go-datatrails-smoketest/environment"
)

const (
	ServicesEnv = "VCAP_SERVICES"
)

var (
	ErrBadServices       = errors.New("malformed " + ServicesEnv)
	ErrServiceNotFound   = errors.New("service not bound")
	ErrMissingCredential = errors.New("missing credential")
	ErrBadCredential     = errors.New("bad credential")
)

// Source records where connection settings came from.
type Source int

const (
	DefaultFallback Source = iota
	RegistryLookup
)

func (s Source) String() string {
	switch s {
	case RegistryLookup:
		return "registry-lookup"
	case DefaultFallback:
		return "default-fallback"
	}
	return fmt.Sprintf("Source(%d)", int(s))
}

// Credentials of a bound service. Brokers are inconsistent about emitting
// numbers as strings so accessors coerce.
type Credentials map[string]any

func (c Credentials) String(key string) (string, error) {
	v, ok := c[key]
	if !ok || v == nil {
		return "", fmt.Errorf("%w: %s", ErrMissingCredential, key)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("%w %s: %w", ErrBadCredential, key, err)
	}
	return s, nil
}

func (c Credentials) Int(key string) (int, error) {
	v, ok := c[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%w: %s", ErrMissingCredential, key)
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("%w %s: %w", ErrBadCredential, key, err)
	}
	return i, nil
}

// Binding is a single named service instance bound to the app.
type Binding struct {
	Name        string
	Label       string
	Plan        string
	Credentials Credentials
}

// Present reports whether the service registry is available in this process.
func Present() bool {
	_, ok := environment.Lookup(ServicesEnv)
	return ok
}

// Lookup finds serviceName in VCAP_SERVICES. When the registry is absent the
// returned source is DefaultFallback and the binding is nil.
func Lookup(serviceName string) (*Binding, Source, error) {
	raw, ok := environment.Lookup(ServicesEnv)
	if !ok {
		return nil, DefaultFallback, nil
	}
	b, err := Parse(raw, serviceName)
	if err != nil {
		return nil, RegistryLookup, err
	}
	return b, RegistryLookup, nil
}

// Parse finds serviceName in the raw VCAP_SERVICES json.
func Parse(raw string, serviceName string) (*Binding, error) {
	services := cfenv.Services{}
	if err := json.Unmarshal([]byte(raw), &services); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadServices, err)
	}

	svc, err := services.WithName(serviceName)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrServiceNotFound, serviceName, err)
	}

	return &Binding{
		Name:        svc.Name,
		Label:       svc.Label,
		Plan:        svc.Plan,
		Credentials: Credentials(svc.Credentials),
	}, nil
}
