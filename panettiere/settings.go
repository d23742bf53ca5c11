package main

import (
	_ "embed"

	"github.com/taldoflemis/cassa/pacchetto"
)

//go:embed base.yaml
var baseconfig []byte

type StoreSettings struct {
	EstimatedWaitMinutes    string            `mapstructure:"estimated-wait-minutes" validate:"required"`
	SizePrices              map[string]string `mapstructure:"size-prices" validate:"min=1,dive,keys,numeric,endkeys,numeric"`
	ToppingSurcharge        string            `mapstructure:"topping-surcharge" validate:"required,numeric"`
	Coupons                 map[string]string `mapstructure:"coupons" validate:"dive,keys,numeric,endkeys,numeric"`
	PlaceFailureProbability float64           `mapstructure:"place-failure-probability" validate:"min=0,max=1"`
}

type Settings struct {
	App           pacchetto.AppSettings           `mapstructure:"app" validate:"required"`
	HTTP          pacchetto.HTTPSettings          `mapstructure:"http" validate:"required"`
	Store         StoreSettings                   `mapstructure:"store" validate:"required"`
	OpenTelemetry pacchetto.OpenTelemetrySettings `mapstructure:"opentelemetry" validate:"required"`
}
