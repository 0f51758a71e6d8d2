package elasticsearch

import (
	"fmt"
	"net"
	"strconv"

	"github.com/datatrails/go-datatrails-smoketest/environment"
	"github.com/datatrails/go-datatrails-smoketest/vcap"
)

const (
	// RegionEnv overrides DefaultRegion for request signing
	RegionEnv     = "AWS_REGION"
	DefaultRegion = "us-gov-west-1"

	// SigningService is the SigV4 service name for the managed search domain
	SigningService = "es"

	// The bound port is ignored, domains only listen on 443.
	DefaultPort   = 443
	DefaultScheme = "https"

	credentialHost      = "host"
	credentialAccessKey = "access_key"
	credentialSecretKey = "secret_key"
)

// Config holds everything needed to reach and sign requests for one search
// domain.
type Config struct {
	Log         Logger
	ServiceName string
	Scheme      string
	Host        string
	Port        int
	AccessKey   string
	SecretKey   string
	Region      string
}

// ConfigFromEnv resolves serviceName from the service registry, which must be
// present.
func ConfigFromEnv(log Logger, serviceName string) (Config, error) {
	if serviceName == "" {
		return Config{}, ErrNoServiceName
	}

	if !vcap.Present() {
		return Config{}, fmt.Errorf("%w: %s", ErrNoServiceRegistry, vcap.ServicesEnv)
	}
	binding, _, err := vcap.Lookup(serviceName)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Log:         log,
		ServiceName: serviceName,
		Scheme:      DefaultScheme,
		Port:        DefaultPort,
		Region:      environment.GetWithDefault(RegionEnv, DefaultRegion),
	}
	if cfg.Host, err = binding.Credentials.String(credentialHost); err != nil {
		return Config{}, err
	}
	if cfg.AccessKey, err = binding.Credentials.String(credentialAccessKey); err != nil {
		return Config{}, err
	}
	if cfg.SecretKey, err = binding.Credentials.String(credentialSecretKey); err != nil {
		return Config{}, err
	}

	log.Infof("service registry binding %s (%s) at %s region %s", binding.Name, binding.Plan, cfg.Address(), cfg.Region)
	return cfg, nil
}

// Address is the base url of the domain
func (cfg Config) Address() string {
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = DefaultScheme
	}
	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}
	return scheme + "://" + net.JoinHostPort(cfg.Host, strconv.Itoa(port))
}
