package main

import (
	_ "embed"

	"github.com/taldoflemis/cassa/pacchetto"
)

//go:embed base.yaml
var baseConfig []byte

type StorageSettings struct {
	// Driver is "nats" for JetStream key value buckets or "memory" for a
	// process-local store.
	Driver string `mapstructure:"driver" validate:"required,oneof=nats memory"`
}

type SessionSettings struct {
	IdleTimeoutInMinutes   int `mapstructure:"idle-timeout-in-minutes" validate:"required,min=1"`
	SweepIntervalInSeconds int `mapstructure:"sweep-interval-in-seconds" validate:"required,min=1"`
}

type Settings struct {
	App           pacchetto.AppSettings           `mapstructure:"app" validate:"required"`
	HTTP          pacchetto.HTTPSettings          `mapstructure:"http" validate:"required"`
	Nats          pacchetto.NatsSettings          `mapstructure:"nats" validate:"required"`
	StoreAPI      pacchetto.StoreAPISettings      `mapstructure:"store-api" validate:"required"`
	MaestroClient pacchetto.GRPCClientSettings    `mapstructure:"maestro-client" validate:"required"`
	Storage       StorageSettings                 `mapstructure:"storage" validate:"required"`
	Sessions      SessionSettings                 `mapstructure:"sessions" validate:"required"`
	OpenTelemetry pacchetto.OpenTelemetrySettings `mapstructure:"opentelemetry" validate:"required"`
}

func LoadConfig() (*Settings, error) {
	return pacchetto.LoadConfig[Settings]("PADDOCKGATEWAY", baseConfig)
}
