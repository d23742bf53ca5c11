package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"google.golang.org/grpc/health"
	healthgrpc "google.golang.org/grpc/health/grpc_health_v1"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/taldoflemis/cassa/events"
	"github.com/taldoflemis/cassa/pacchetto"
	"github.com/taldoflemis/cassa/pacchetto/telemetry"
	"github.com/taldoflemis/cassa/repository"
	"github.com/taldoflemis/cassa/storeapi"
)

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()
	retcode := 0
	defer func() {
		os.Exit(retcode)
	}()

	slog.InfoContext(ctx, "Launching maestro")

	slog.InfoContext(ctx, "Loading config")
	settings, err := LoadConfig()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", slog.Any("err", err))
		retcode = 1
		return
	}

	slog.InfoContext(ctx, "Setting up opentelemetry")
	otelShutdown, err := telemetry.SetupOTelSDK(ctx, settings.App, settings.OpenTelemetry)
	if err != nil {
		slog.Error("failed to setup telemetry", slog.Any("err", err))
		retcode = 1
		return
	}

	defer func() {
		err = errors.Join(err, otelShutdown(context.Background()))
		if err != nil {
			slog.ErrorContext(
				ctx,
				"failed to shutdown opentelemetry providers",
				slog.Any("err", err),
			)
			retcode = 1
		}
	}()

	slog.InfoContext(ctx, "Connecting to NATS server")
	nc, err := settings.Nats.GetNatsClient()
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to NATS server", slog.Any("err", err))
		retcode = 1
		return
	}
	defer nc.Drain()

	js, err := jetstream.New(nc)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create jetstream context", slog.Any("err", err))
		retcode = 1
		return
	}

	stream, err := events.EnsureStream(ctx, js, settings.Nats.Stream, settings.Nats.Subject)
	if err != nil {
		retcode = 1
		return
	}

	repo, err := repository.New(ctx, js)
	if err != nil {
		retcode = 1
		return
	}

	publish := func(ctx context.Context, ev events.OrderEvent) error {
		return events.Publish(ctx, js, settings.Nats.Subject, ev)
	}
	maestro, err := newMaestroHandler(settings.Maestro, storeapi.New(settings.StoreAPI), repo, publish)
	if err != nil {
		retcode = 1
		return
	}
	if err := maestro.attachConsumer(ctx, stream, settings.Nats.Subject); err != nil {
		retcode = 1
		return
	}

	slog.InfoContext(ctx, "Creating gRPC server")
	server := pacchetto.CreateGRPCServer()
	healthcheck := health.NewServer()
	healthgrpc.RegisterHealthServer(server, healthcheck)

	if settings.GRPCServer.EnableReflection {
		reflection.Register(server)
	}

	go watchHealth(ctx, healthcheck, nc, time.Duration(settings.GRPCServer.AsyncHealthIntervalInSeconds)*time.Second)

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%s", settings.GRPCServer.Host, strconv.Itoa(settings.GRPCServer.Port)))
	if err != nil {
		slog.ErrorContext(ctx, "failed to listen", slog.Any("err", err))
		retcode = 1
		return
	}

	slog.InfoContext(ctx, "Starting gRPC server", slog.Any("addr", lis.Addr()))

	errChan := make(chan error, 1)
	go func() {
		if err := server.Serve(lis); err != nil {
			slog.ErrorContext(ctx, "failed to serve", slog.Any("err", err))
			errChan <- err
		}
	}()

	slog.InfoContext(ctx, "Starting to listen to submitted orders")
	turnDone := make(chan struct{})
	go func() {
		defer close(turnDone)
		maestro.startTurn(ctx)
	}()

	select {
	case err = <-errChan:
		slog.ErrorContext(ctx, "gRPC server stopped", slog.Any("err", err))
		retcode = 1
		stop()
	case <-ctx.Done():
		// Wait for first Signal arrives
	}

	<-turnDone
	slog.InfoContext(ctx, "Shutting down gRPC server")
	healthcheck.Shutdown()
	server.GracefulStop()
	slog.InfoContext(ctx, "gRPC server stopped")
}

// watchHealth reports the server as serving while the NATS connection is
// up.
func watchHealth(ctx context.Context, healthcheck *health.Server, nc *nats.Conn, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status := healthpb.HealthCheckResponse_SERVING
		if !nc.IsConnected() {
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		healthcheck.SetServingStatus("", status)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
