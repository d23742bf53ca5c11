package pacchetto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSettings struct {
	App      AppSettings      `mapstructure:"app" validate:"required"`
	StoreAPI StoreAPISettings `mapstructure:"store-api" validate:"required"`
}

var testConfig = []byte(`
app:
  name: test
  version: 0.0.1
  env: dev
store-api:
  base-url: http://localhost:8090
  timeout-in-seconds: 5
  retries: 2
  exponential-backoff-base-in-milliseconds: 100
`)

func TestLoadConfig(t *testing.T) {
	// Act
	cfg, err := LoadConfig[testSettings]("CASSATEST", testConfig)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "test", cfg.App.Name)
	assert.Equal(t, "http://localhost:8090", cfg.StoreAPI.BaseURL)
	assert.Equal(t, 2, cfg.StoreAPI.Retries)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	// Arrange
	t.Setenv("CASSATEST_STOREAPI_BASEURL", "http://store.internal:9000")
	t.Setenv("CASSATEST_STOREAPI_RETRIES", "4")

	// Act
	cfg, err := LoadConfig[testSettings]("CASSATEST", testConfig)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "http://store.internal:9000", cfg.StoreAPI.BaseURL)
	assert.Equal(t, 4, cfg.StoreAPI.Retries)
}

func TestLoadConfigValidates(t *testing.T) {
	t.Setenv("CASSATEST_STOREAPI_TIMEOUTINSECONDS", "0")

	_, err := LoadConfig[testSettings]("CASSATEST", testConfig)

	assert.ErrorContains(t, err, "TimeoutInSeconds")
}

func TestCORSSettingsValidation(t *testing.T) {
	// Arrange
	validate := NewSettingsValidator()

	tests := []struct {
		name    string
		cors    CORSSettings
		wantErr bool
	}{
		{
			name: "valid cors",
			cors: CORSSettings{
				Origins: []string{"https://example.com"},
				Methods: []string{"GET", "POST"},
				Headers: []string{"Accept", "Authorization"},
			},
		},
		{
			name: "invalid method",
			cors: CORSSettings{
				Origins: []string{"https://example.com"},
				Methods: []string{"FOO"},
				Headers: []string{"Accept"},
			},
			wantErr: true,
		},
		{
			name: "invalid header",
			cors: CORSSettings{
				Origins: []string{"https://example.com"},
				Methods: []string{"GET"},
				Headers: []string{"X-INVALID"},
			},
			wantErr: true,
		},
		{
			name: "invalid origin",
			cors: CORSSettings{
				Origins: []string{"*"},
				Methods: []string{"GET"},
				Headers: []string{"Accept"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		// Act
		err := validate.Struct(tt.cors)

		// Assert
		if tt.wantErr {
			assert.Error(t, err, tt.name)
		} else {
			assert.NoError(t, err, tt.name)
		}
	}
}
