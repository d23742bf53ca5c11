// Package telemetry wires slog and the OpenTelemetry SDK together and carries
// trace context across NATS messages.
package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	slogmulti "github.com/samber/slog-multi"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"

	"github.com/taldoflemis/cassa/pacchetto"
)

// shutdownStack runs registered cleanups once, joining their errors.
type shutdownStack []func(context.Context) error

func (s *shutdownStack) push(fn func(context.Context) error) {
	*s = append(*s, fn)
}

func (s *shutdownStack) run(ctx context.Context) error {
	var err error
	for i := len(*s) - 1; i >= 0; i-- {
		err = errors.Join(err, (*s)[i](ctx))
	}
	*s = nil
	return err
}

// SetupOTelSDK installs the tracer, meter and logger providers along with the
// default slog logger. When OpenTelemetry is disabled the providers are
// no-ops and logs only go to stdout as JSON. Call shutdown on exit.
func SetupOTelSDK(
	ctx context.Context,
	app pacchetto.AppSettings,
	cfg pacchetto.OpenTelemetrySettings,
) (shutdown func(context.Context) error, err error) {
	var stack shutdownStack
	shutdown = stack.run

	res, err := resource.New(
		ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(app.Name),
			semconv.ServiceVersionKey.String(app.Version),
			semconv.ServiceNamespaceKey.String("cassa"),
			semconv.ServiceInstanceIDKey.String(uuid.NewString()),
			semconv.DeploymentEnvironmentKey.String(app.Env),
		),
	)
	if err != nil {
		return nil, err
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	tracerProvider, err := newTraceProvider(ctx, cfg, res)
	if err != nil {
		return nil, errors.Join(err, stack.run(ctx))
	}
	stack.push(tracerProvider.Shutdown)
	otel.SetTracerProvider(tracerProvider)

	meterProvider, err := newMeterProvider(ctx, cfg, res)
	if err != nil {
		return nil, errors.Join(err, stack.run(ctx))
	}
	stack.push(meterProvider.Shutdown)
	otel.SetMeterProvider(meterProvider)

	if err := runtime.Start(runtime.WithMeterProvider(meterProvider)); err != nil {
		return nil, errors.Join(err, stack.run(ctx))
	}

	loggerProvider, err := newLoggerProvider(ctx, app, cfg, res)
	if err != nil {
		return nil, errors.Join(err, stack.run(ctx))
	}
	stack.push(loggerProvider.Shutdown)
	global.SetLoggerProvider(loggerProvider)

	return shutdown, nil
}

func newTraceProvider(
	ctx context.Context,
	cfg pacchetto.OpenTelemetrySettings,
	res *resource.Resource,
) (*trace.TracerProvider, error) {
	if !cfg.Enabled {
		return trace.NewTracerProvider(), nil
	}

	exporter, err := otlptracegrpc.New(
		ctx,
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	return trace.NewTracerProvider(
		trace.WithBatcher(exporter,
			trace.WithBatchTimeout(seconds(cfg.Traces.TimeoutInSec)),
			trace.WithMaxQueueSize(cfg.Traces.MaxQueueSize),
			trace.WithMaxExportBatchSize(cfg.Traces.BatchSize),
		),
		trace.WithSampler(trace.ParentBased(
			trace.TraceIDRatioBased(float64(cfg.Traces.SampleRate)),
		)),
		trace.WithResource(res),
	), nil
}

func newMeterProvider(
	ctx context.Context,
	cfg pacchetto.OpenTelemetrySettings,
	res *resource.Resource,
) (*metric.MeterProvider, error) {
	if !cfg.Enabled {
		return metric.NewMeterProvider(), nil
	}

	exporter, err := otlpmetricgrpc.New(
		ctx,
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	return metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(
			exporter,
			metric.WithInterval(seconds(cfg.Metrics.IntervalInSec)),
			metric.WithTimeout(seconds(cfg.Metrics.TimeoutInSec)),
		)),
		metric.WithResource(res),
	), nil
}

// newLoggerProvider also replaces the default slog logger. Records always
// reach stdout; with OpenTelemetry enabled they are fanned out to the OTLP
// exporter too.
func newLoggerProvider(
	ctx context.Context,
	app pacchetto.AppSettings,
	cfg pacchetto.OpenTelemetrySettings,
	res *resource.Resource,
) (*log.LoggerProvider, error) {
	stdout := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true})
	pipeline := slogmulti.Pipe(slogmulti.NewHandleInlineMiddleware(errorFormattingMiddleware))

	if !cfg.Enabled {
		slog.SetDefault(slog.New(pipeline.Handler(stdout)))
		return log.NewLoggerProvider(), nil
	}

	exporter, err := otlploggrpc.New(
		ctx,
		otlploggrpc.WithEndpoint(cfg.Endpoint),
		otlploggrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	provider := log.NewLoggerProvider(
		log.WithResource(res),
		log.WithProcessor(log.NewBatchProcessor(exporter,
			log.WithMaxQueueSize(cfg.Logs.MaxQueueSize),
			log.WithExportMaxBatchSize(cfg.Logs.BatchSize),
			log.WithExportTimeout(seconds(cfg.Logs.TimeoutInSec)),
			log.WithExportInterval(seconds(cfg.Logs.IntervalInSec)),
		)),
	)

	otelHandler := otelslog.NewHandler(
		app.Name,
		otelslog.WithLoggerProvider(provider),
		otelslog.WithVersion(app.Version),
		otelslog.WithSource(true),
	)

	logger := slog.New(pipeline.Handler(slogmulti.Fanout(stdout, otelHandler)))
	slog.SetDefault(logger)
	logger.InfoContext(ctx, "Logger initialized", slog.String("endpoint", cfg.Endpoint))

	return provider, nil
}

func seconds(n int64) time.Duration {
	return time.Duration(n) * time.Second
}
