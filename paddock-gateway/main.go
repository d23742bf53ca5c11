package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	healthgo "github.com/hellofresh/health-go/v5"
	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	"github.com/nats-io/nats.go"
	echoSwagger "github.com/swaggo/echo-swagger"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/taldoflemis/cassa/pacchetto"
	"github.com/taldoflemis/cassa/pacchetto/telemetry"
	_ "github.com/taldoflemis/cassa/paddock-gateway/docs"
	"github.com/taldoflemis/cassa/repository"
	"github.com/taldoflemis/cassa/storeapi"
)

// @title						Paddock Gateway
// @version						1.0
// @host						localhost:8080
// @BasePath  					/
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

	slog.InfoContext(ctx, "Launching paddock-gateway")

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

	checks := []healthgo.Config{}

	var (
		repo           *repository.Repository
		orderPubSubber OrderPubSubber
	)
	switch settings.Storage.Driver {
	case "memory":
		slog.WarnContext(ctx, "Using in-memory storage, saved entities are lost on restart")
		repo = repository.NewMemory()
		orderPubSubber = NewGoChannelOrderPubSubber()
	default:
		slog.InfoContext(ctx, "Connecting to NATS server")
		var nc *nats.Conn
		nc, err = settings.Nats.GetNatsClient()
		if err != nil {
			slog.ErrorContext(ctx, "failed to connect to NATS server", slog.Any("err", err))
			retcode = 1
			return
		}
		defer nc.Close()

		var natsPubSubber *NATSOrderPubSubber
		natsPubSubber, err = NewNATSOrderPubSubber(ctx, nc, settings.Nats.Subject, settings.Nats.Stream)
		if err != nil {
			slog.ErrorContext(ctx, "failed to create order pub/subber", slog.Any("err", err))
			retcode = 1
			return
		}
		orderPubSubber = natsPubSubber

		repo, err = repository.New(ctx, natsPubSubber.JetStream())
		if err != nil {
			slog.ErrorContext(ctx, "failed to open repository", slog.Any("err", err))
			retcode = 1
			return
		}

		checks = append(checks, healthgo.Config{
			Name: "nats",
			Check: func(ctx context.Context) error {
				if !nc.IsConnected() {
					return errors.New("NATS connection is not active")
				}
				return nil
			},
		})
	}

	slog.InfoContext(ctx, "Connecting to maestro", slog.String("address", settings.MaestroClient.Address))
	maestroConn, err := pacchetto.CreateGRPCClient(ctx, settings.MaestroClient)
	if err != nil {
		retcode = 1
		return
	}
	defer maestroConn.Close()
	maestroHealth := healthpb.NewHealthClient(maestroConn)

	checks = append(checks, healthgo.Config{
		Name:      "maestro",
		Timeout:   2 * time.Second,
		SkipOnErr: true,
		Check: func(ctx context.Context) error {
			return pacchetto.CheckGRPCHealth(ctx, maestroHealth, "")
		},
	})

	slog.InfoContext(ctx, "Setting up health checker")
	health, err := healthgo.New(
		healthgo.WithComponent(healthgo.Component{
			Name:    settings.App.Name,
			Version: settings.App.Version,
		}),
		healthgo.WithChecks(checks...),
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create health checker", slog.Any("err", err))
		retcode = 1
		return
	}

	sessions := NewSessionRegistry(
		storeapi.New(settings.StoreAPI),
		time.Duration(settings.Sessions.IdleTimeoutInMinutes)*time.Minute,
	)
	go sessions.RunSweeper(ctx, time.Duration(settings.Sessions.SweepIntervalInSeconds)*time.Second)

	server := echo.New()
	NewMainHandler(server, settings, sessions, repo, orderPubSubber, health)
	server.GET("/swagger/*", echoSwagger.WrapHandler)
	pprof.Register(server)

	errChan := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "listening for requests", slog.String("ip", settings.HTTP.IP), slog.String("port", settings.HTTP.Port))
		errChan <- server.Start(fmt.Sprintf("%s:%s", settings.HTTP.IP, settings.HTTP.Port))
	}()

	select {
	case err = <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "error when running server", slog.Any("err", err))
			retcode = 1
		}
		return
	case <-ctx.Done():
		// Wait for first Signal arrives
	}

	if err := server.Shutdown(context.Background()); err != nil {
		slog.ErrorContext(ctx, "failed to shutdown gracefully the server", slog.Any("err", err))
	}
}
