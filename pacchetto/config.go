package pacchetto

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

var allowedHeaders = map[string]struct{}{
	"Accept": {}, "Authorization": {}, "Content-Type": {}, "X-CSRF-Token": {},
}

// NewSettingsValidator returns a validator that knows the custom settings
// rules, such as baseheader for CORS headers.
func NewSettingsValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterValidation("baseheader", func(fl validator.FieldLevel) bool {
		_, ok := allowedHeaders[fl.Field().String()]
		return ok
	})
	return validate
}

// LoadConfig reads the embedded yaml, applies environment overrides under
// envPrefix (PREFIX_SECTION_KEY, dashes dropped) and validates the result.
func LoadConfig[T any](envPrefix string, baseConfig []byte) (*T, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(baseConfig)); err != nil {
		return nil, fmt.Errorf("read base config: %w", err)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", ""))
	v.AutomaticEnv()

	var cfg T
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := NewSettingsValidator().Struct(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
