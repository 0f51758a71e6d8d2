package logger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	_ "github.com/KimMachineGun/automemlimit"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	opentracing "github.com/opentracing/opentracing-go"
)

var (
	Plain        *zap.Logger
	Sugar        *WrappedLogger
	undoLogger   func()
	undoMaxProcs func()
	Recorded     *observer.ObservedLogs
)

const (
	serviceNameKey = "servicename"
	// repeated here to avoid importing the tracing package
	TraceIDKey = "x-b3-traceid"
)

type WrappedLogger struct {
	*zap.SugaredLogger
}

// keyValues turns positional args into arg0, v0, arg1, v1 ...
func keyValues(args []any) []any {
	keyVals := make([]any, 0, 2*len(args))
	for i, v := range args {
		keyVals = append(keyVals, fmt.Sprintf("arg%d", i), v)
	}
	return keyVals
}

func (wl *WrappedLogger) InfoR(msg string, args ...any) {
	wl.Desugar().WithOptions(zap.AddCallerSkip(1)).Sugar().Infow(msg, keyValues(args)...)
}

func (wl *WrappedLogger) DebugR(msg string, args ...any) {
	wl.Desugar().WithOptions(zap.AddCallerSkip(1)).Sugar().Debugw(msg, keyValues(args)...)
}

// OnExit should be deferred immediately after calling New()
func OnExit() {
	if Sugar != nil {
		_ = Sugar.Sync()
	}
	if Plain != nil {
		_ = Plain.Sync()
	}
	if undoMaxProcs != nil {
		undoMaxProcs()
		undoMaxProcs = nil
	}
	if undoLogger != nil {
		undoLogger()
		undoLogger = nil
	}
	Recorded = nil
}

// New creates the plain and sugared loggers as package globals according to
// level ("DEBUG", "NOOP", "TEST", anything else is "INFO"). Output from the
// standard library logger is redirected to the INFO level of Plain.
func New(level string, zopts ...zap.Option) {
	var err error
	switch strings.ToUpper(level) {
	case DebugLevel:
		Plain, err = zap.NewDevelopment(zopts...)

	case NoopLevel:
		Plain = zap.NewNop()

	case TestLevel:
		core, recorded := observer.New(zapcore.DebugLevel)
		Plain = zap.New(core, zopts...)
		Recorded = recorded

	default:
		Plain, err = zap.NewProduction(zopts...)
	}
	if err != nil {
		log.Panicf("cannot initialise zap logger: %v", err)
	}

	undoLogger = zap.RedirectStdLog(Plain)
	Sugar = &WrappedLogger{
		Plain.Sugar(),
	}

	Sugar.Debugf("Go version %s", runtime.Version())

	// GOMAXPROCS must match the container cpu quota otherwise gc stalls on
	// cores we do not actually have.
	undoMaxProcs, err = maxprocs.Set(maxprocs.Logger(Sugar.Debugf))
	if err != nil {
		Sugar.Infof("Error for automaxprocs: %v", err)
	}
	Sugar.Debugf("Cores allocation GOMAXPROCS %v", runtime.GOMAXPROCS(-1))

	// automemlimit sets GOMEMLIMIT to 90% of the cgroup limit unless
	// GOMEMLIMIT or AUTOMEMLIMIT=off is already set.
	Sugar.Debugf("Memory Limit GOMEMLIMIT %v", debug.SetMemoryLimit(-1))
}

// FromContext returns a child logger carrying the trace id of the span in ctx,
// or the receiver if there is no span.
func (wl *WrappedLogger) FromContext(ctx context.Context) *WrappedLogger {
	span := opentracing.SpanFromContext(ctx)
	if span == nil {
		return wl
	}
	carrier := opentracing.TextMapCarrier{}
	err := opentracing.GlobalTracer().Inject(span.Context(), opentracing.TextMap, carrier)
	if err != nil {
		wl.Debugf("FromContext: can't inject span: %v", err)
		return wl
	}

	traceID, found := carrier[TraceIDKey]
	if !found || traceID == "" {
		return wl
	}
	return &WrappedLogger{
		SugaredLogger: wl.With(zap.String(TraceIDKey, traceID)),
	}
}

func (wl *WrappedLogger) WithServiceName(servicename string) *WrappedLogger {
	return wl.WithIndex(serviceNameKey, servicename)
}

func (wl *WrappedLogger) WithIndex(key, value string) *WrappedLogger {
	return &WrappedLogger{
		SugaredLogger: wl.With(zap.String(key, strings.ToLower(value))),
	}
}

// Close attempts to flush any buffered log entries.
func (wl *WrappedLogger) Close() {
	err := wl.Sync()

	// usually 'sync /dev/stderr invalid argument' which is pointless
	if err != nil && !errors.Is(err, syscall.EINVAL) {
		wl.Debugf("Close: Failed to flush log: %v", err)
	}
}
