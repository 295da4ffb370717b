package ukvd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"vehicle-techdata-workers/internal/common/config"
	"vehicle-techdata-workers/internal/common/errors"
	httpclient "vehicle-techdata-workers/internal/common/http"
	"vehicle-techdata-workers/internal/common/logger"
	"vehicle-techdata-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okBody = `{
	"ResponseInformation": {"StatusCode": 0, "StatusMessage": "Success"},
	"Results": {
		"VehicleDetails": {
			"VehicleIdentification": {"Vin": "WF0XXXGCDXGA12345", "DvlaFuelType": "DIESEL", "YearOfManufacture": 2016},
			"DvlaTechnicalDetails": {"EngineCapacityCc": 1560, "EuroStatus": "EURO 6"}
		},
		"ModelDetails": {
			"ModelIdentification": {"Make": "FORD", "Model": "FOCUS"},
			"Transmission": {"TransmissionType": "Manual"}
		}
	}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, apiKey string) (*Client, *url.Values) {
	t.Helper()
	var captured url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		captured = r.PostForm
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := config.UKVDConfig{BaseURL: srv.URL, APIKey: apiKey, PackageName: "VehicleDetails"}
	return NewClient(cfg, httpclient.NewClient(2*time.Second), logger.NewNoOpLogger()), &captured
}

func TestFetchVehicleDetails(t *testing.T) {
	c, form := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(okBody))
	}, "ukvd-key")

	details, err := c.FetchVehicleDetails(context.Background(), "YM14NFL")

	require.NoError(t, err)
	assert.Equal(t, &models.VehicleDetails{
		VIN:               "WF0XXXGCDXGA12345",
		Make:              "FORD",
		Model:             "FOCUS",
		FuelType:          "DIESEL",
		YearOfManufacture: 2016,
		EngineCapacityCC:  1560,
		Transmission:      "Manual",
		EuroStatus:        "EURO 6",
	}, details)

	assert.Equal(t, "ukvd-key", form.Get("ApiKey"))
	assert.Equal(t, "VehicleDetails", form.Get("PackageName"))
	assert.Equal(t, "YM14NFL", form.Get("Vrm"))
}

func TestFetchVehicleDetails_NonZeroStatusIsEmpty(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ResponseInformation":{"StatusCode":25,"StatusMessage":"No vehicle found"}}`))
	}, "ukvd-key")

	details, err := c.FetchVehicleDetails(context.Background(), "YM14NFL")

	assert.Nil(t, details)
	assert.True(t, errors.HasCode(err, errors.ErrCodeProviderEmptyResult))
}

func TestFetchVehicleDetails_MissingStatusIsEmpty(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"Results":{}}`))
	}, "ukvd-key")

	_, err := c.FetchVehicleDetails(context.Background(), "YM14NFL")
	assert.True(t, errors.HasCode(err, errors.ErrCodeProviderEmptyResult))
}

func TestFetchVehicleDetails_NotConfigured(t *testing.T) {
	called := false
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}, "")

	_, err := c.FetchVehicleDetails(context.Background(), "YM14NFL")

	assert.True(t, errors.HasCode(err, errors.ErrCodeProviderNotConfigured))
	assert.False(t, called)
}

func TestFetchVehicleDetails_ServerError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, "ukvd-key")

	_, err := c.FetchVehicleDetails(context.Background(), "YM14NFL")
	assert.True(t, errors.HasCode(err, errors.ErrCodeProviderTransportFailed))
}

func TestEnrich(t *testing.T) {
	identity := &models.Identity{FullName: "FORD FOCUS", Make: "FORD", FuelType: "Diesel"}
	Enrich(identity, &models.VehicleDetails{VIN: "WF0X", Make: "Ford Motor", Model: "FOCUS", FuelType: "DIESEL", YearOfManufacture: 2016})

	assert.Equal(t, &models.Identity{
		FullName: "FORD FOCUS",
		Make:     "FORD",
		Model:    "FOCUS",
		FuelType: "Diesel",
		YearFrom: 2016,
		VIN:      "WF0X",
	}, identity)

	assert.NotPanics(t, func() { Enrich(nil, &models.VehicleDetails{}) })
}

func TestAtoi(t *testing.T) {
	assert.Equal(t, 1560, atoi("1560"))
	assert.Equal(t, 2016, atoi(" 2016 "))
	assert.Equal(t, 0, atoi(""))
	assert.Equal(t, 1, atoi("1.6"))
}
