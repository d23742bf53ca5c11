package main

import (
	_ "embed"

	"github.com/taldoflemis/cassa/pacchetto"
)

//go:embed base.yaml
var baseConfig []byte

type MaestroSettings struct {
	OrderBatchSize        int `mapstructure:"order-batch-size" validate:"required,min=1,max=256"`
	FetchMaxWaitInSeconds int `mapstructure:"fetch-max-wait-in-seconds" validate:"required,min=1"`
	// MaxDeliveries bounds how often a submission is retried after a
	// transport failure before it is reported as failed.
	MaxDeliveries         int `mapstructure:"max-deliveries" validate:"required,min=1"`
	RetryDelayInSeconds   int `mapstructure:"retry-delay-in-seconds" validate:"required,min=1"`
	OrderTimeoutInSeconds int `mapstructure:"order-timeout-in-seconds" validate:"required,min=1"`
	// A placed order is acked even if announcing it keeps failing, so these
	// only bound how hard maestro tries before giving up on the event.
	PublishRetries                   int `mapstructure:"publish-retries" validate:"min=0,max=10"`
	PublishBackoffBaseInMilliseconds int `mapstructure:"publish-backoff-base-in-milliseconds" validate:"required,min=1"`
}

type Settings struct {
	App           pacchetto.AppSettings           `mapstructure:"app" validate:"required"`
	Maestro       MaestroSettings                 `mapstructure:"maestro" validate:"required"`
	Nats          pacchetto.NatsSettings          `mapstructure:"nats" validate:"required"`
	StoreAPI      pacchetto.StoreAPISettings      `mapstructure:"store-api" validate:"required"`
	OpenTelemetry pacchetto.OpenTelemetrySettings `mapstructure:"opentelemetry" validate:"required"`
	GRPCServer    pacchetto.GRPCServerSettings    `mapstructure:"grpc-server" validate:"required"`
}

func LoadConfig() (*Settings, error) {
	return pacchetto.LoadConfig[Settings]("MAESTRO", baseConfig)
}
