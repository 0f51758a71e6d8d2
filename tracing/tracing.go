// Package tracing reports smoke test spans to zipkin when an endpoint is
// configured and traces outgoing http requests.
package tracing

import (
	"fmt"
	"io"
	"net/http"
	"sync"

	otnethttp "github.com/opentracing-contrib/go-stdlib/nethttp"
	opentracing "github.com/opentracing/opentracing-go"

	zipkinot "github.com/openzipkin-contrib/zipkin-go-opentracing"
	zipkin "github.com/openzipkin/zipkin-go"
	zipkinhttp "github.com/openzipkin/zipkin-go/reporter/http"

	"github.com/datatrails/go-datatrails-smoketest/environment"
	"github.com/datatrails/go-datatrails-smoketest/logger"
)

const (
	EndpointEnv = "ZIPKIN_ENDPOINT"
	DisableEnv  = "DISABLE_ZIPKIN"

	prefixTracerState = "x-b3-"
	TraceID           = prefixTracerState + "traceid"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewFromEnv initialises tracing if endpointVar is set, unless disableVar is
// truthy (strconv.ParseBool -> true). When tracing is not configured the
// global tracer is left as the opentracing no-op and the returned closer does
// nothing.
func NewFromEnv(log logger.Logger, service string, endpointVar, disableVar string) (io.Closer, error) {
	ze, ok := environment.Lookup(endpointVar)
	if !ok || ze == "" {
		log.Debugf("zipkin not configured, '%s' is not set", endpointVar)
		return nopCloser{}, nil
	}
	// zipkin conf is available, disable it if disableVar is truthy
	if environment.GetTruthy(disableVar) {
		log.Infof("'%s' set, zipkin disabled", disableVar)
		return nopCloser{}, nil
	}
	return New(log, service, ze)
}

// New initialises tracing using the zipkin client tracer. The returned closer
// flushes any spans still buffered in the reporter.
func New(log logger.Logger, service string, zipkinEndpoint string) (io.Closer, error) {
	// a cli has no listener so the endpoint is just the service name
	localEndpoint, err := zipkin.NewEndpoint(service, "")
	if err != nil {
		return nil, fmt.Errorf("unable to create zipkin local endpoint service '%s': %w", service, err)
	}

	reporter := zipkinhttp.NewReporter(zipkinEndpoint, zipkinhttp.Logger(newZipkinLogger()))

	nativeTracer, err := zipkin.NewTracer(
		reporter,
		zipkin.WithLocalEndpoint(localEndpoint),
		zipkin.WithSharedSpans(false),
	)
	if err != nil {
		_ = reporter.Close()
		return nil, fmt.Errorf("unable to create zipkin tracer: %w", err)
	}

	// use zipkin-go-opentracing to wrap our tracer
	opentracing.SetGlobalTracer(zipkinot.Wrap(nativeTracer))
	log.Infof("zipkin tracing to %s", zipkinEndpoint)

	return reporter, nil
}

// Transport gives every request made in the context of a span its own client
// span and sends that span's context as b3 headers. Requests without a span
// go straight to next.
type Transport struct {
	traced *otnethttp.Transport
	name   string
}

func NewTransport(next http.RoundTripper, operationName string) *Transport {
	return &Transport{
		traced: &otnethttp.Transport{RoundTripper: next},
		name:   operationName,
	}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if opentracing.SpanFromContext(req.Context()) == nil {
		return t.traced.RoundTripper.RoundTrip(req)
	}

	req, ht := otnethttp.TraceRequest(
		opentracing.GlobalTracer(),
		req,
		otnethttp.OperationName(t.name),
		otnethttp.ClientTrace(false),
	)
	res, err := t.traced.RoundTrip(req)
	if err != nil {
		ht.Finish()
		return nil, err
	}
	res.Body = &finishOnClose{ReadCloser: res.Body, finish: ht.Finish}
	return res, nil
}

// finishOnClose ends the request span once the caller is done with the body.
type finishOnClose struct {
	io.ReadCloser
	finish func()
	once   sync.Once
}

func (f *finishOnClose) Close() error {
	err := f.ReadCloser.Close()
	f.once.Do(f.finish)
	return err
}
