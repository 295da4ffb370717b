// Package ukvd looks up DVLA-backed vehicle details (VIN, make, model, engine) from the
// vehicle-details provider. It enriches an identity and never creates one.
package ukvd

import (
	"context"
	"net/url"
	"strings"

	"vehicle-techdata-workers/internal/common/config"
	"vehicle-techdata-workers/internal/common/errors"
	"vehicle-techdata-workers/internal/models"
	"vehicle-techdata-workers/internal/techdata/envelope"
	"vehicle-techdata-workers/internal/techdata/plate"
	"vehicle-techdata-workers/internal/techdata/provider"
)

const ProviderName = "ukvd"

// ActionLookup labels the single lookup in logs and metrics. The provider has no action field.
const ActionLookup = "VRM_LOOKUP"

type Client struct {
	apiKey      string
	packageName string
	caller      *provider.Caller
}

func NewClient(cfg config.UKVDConfig, transport provider.Transport, log provider.Logger) *Client {
	return &Client{
		apiKey:      cfg.APIKey,
		packageName: cfg.PackageName,
		caller:      provider.NewCaller(ProviderName, cfg.BaseURL, transport, log),
	}
}

func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type lookupResponse struct {
	ResponseInformation struct {
		StatusCode    *int   `json:"StatusCode"`
		StatusMessage string `json:"StatusMessage"`
	} `json:"ResponseInformation"`
	Results struct {
		VehicleDetails struct {
			VehicleIdentification struct {
				Vin               string              `json:"Vin"`
				DvlaFuelType      string              `json:"DvlaFuelType"`
				YearOfManufacture envelope.FlexString `json:"YearOfManufacture"`
			} `json:"VehicleIdentification"`
			DvlaTechnicalDetails struct {
				EngineCapacityCc envelope.FlexString `json:"EngineCapacityCc"`
				EuroStatus       string              `json:"EuroStatus"`
			} `json:"DvlaTechnicalDetails"`
		} `json:"VehicleDetails"`
		ModelDetails struct {
			ModelIdentification struct {
				Make  string `json:"Make"`
				Model string `json:"Model"`
			} `json:"ModelIdentification"`
			Transmission struct {
				TransmissionType string `json:"TransmissionType"`
			} `json:"Transmission"`
		} `json:"ModelDetails"`
	} `json:"Results"`
}

// FetchVehicleDetails returns the provider's view of the vehicle. A non-zero status code, or a
// result with no VIN and no make, is an empty result.
func (c *Client) FetchVehicleDetails(ctx context.Context, vrm plate.VRM) (*models.VehicleDetails, error) {
	if !c.Configured() {
		return nil, errors.NewProviderNotConfiguredError(ProviderName, "api_key")
	}

	form := url.Values{}
	form.Set("ApiKey", c.apiKey)
	form.Set("PackageName", c.packageName)
	form.Set("Vrm", vrm.String())

	var resp lookupResponse
	if err := c.caller.Decode(ctx, ActionLookup, vrm, form, &resp); err != nil {
		return nil, err
	}

	if code := resp.ResponseInformation.StatusCode; code == nil || *code != 0 {
		return nil, c.caller.Report(ActionLookup, vrm,
			errors.NewProviderEmptyResultError(ProviderName, ActionLookup).
				WithMetadata("statusMessage", resp.ResponseInformation.StatusMessage))
	}

	vd := resp.Results.VehicleDetails
	md := resp.Results.ModelDetails
	details := &models.VehicleDetails{
		VIN:               strings.TrimSpace(vd.VehicleIdentification.Vin),
		Make:              strings.TrimSpace(md.ModelIdentification.Make),
		Model:             strings.TrimSpace(md.ModelIdentification.Model),
		FuelType:          strings.TrimSpace(vd.VehicleIdentification.DvlaFuelType),
		YearOfManufacture: atoi(vd.VehicleIdentification.YearOfManufacture.String()),
		EngineCapacityCC:  atoi(vd.DvlaTechnicalDetails.EngineCapacityCc.String()),
		Transmission:      strings.TrimSpace(md.Transmission.TransmissionType),
		EuroStatus:        strings.TrimSpace(vd.DvlaTechnicalDetails.EuroStatus),
	}

	if details.VIN == "" && details.Make == "" {
		return nil, c.caller.Report(ActionLookup, vrm, errors.NewProviderEmptyResultError(ProviderName, ActionLookup))
	}
	return details, nil
}

// Enrich fills gaps in identity from details. The VIN always comes from details when present;
// other fields only when identity lacks them.
func Enrich(identity *models.Identity, details *models.VehicleDetails) {
	if identity == nil || details == nil {
		return
	}
	if details.VIN != "" {
		identity.VIN = details.VIN
	}
	if identity.Make == "" {
		identity.Make = details.Make
	}
	if identity.Model == "" {
		identity.Model = details.Model
	}
	if identity.FuelType == "" {
		identity.FuelType = details.FuelType
	}
	if identity.YearFrom == 0 {
		identity.YearFrom = details.YearOfManufacture
	}
}

func atoi(s string) int {
	n := 0
	for _, r := range strings.TrimSpace(s) {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}
