// Package sws talks to the technical-data provider: vehicle identity, capacities, lubricants
// and the repair-time tree. Every call is a form POST carrying the API key, an action code and
// the registration.
package sws

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"vehicle-techdata-workers/internal/common/config"
	"vehicle-techdata-workers/internal/common/errors"
	"vehicle-techdata-workers/internal/models"
	"vehicle-techdata-workers/internal/techdata/plate"
	"vehicle-techdata-workers/internal/techdata/provider"
)

const ProviderName = "sws"

const (
	ActionInitialSubjects  = "GET_INITIAL_SUBJECTS"
	ActionAdjustments      = "GET_ADJUSTMENTS"
	ActionLubricants       = "GET_LUBRICANTS"
	ActionRepairIDs        = "REPAIR_IDS"
	ActionRepairCategories = "REPAIR_CATEGORIES"
	ActionRepairInfo       = "PROCESS_REPAIR_INFO"
)

// RootNodeID addresses the top of the repair-time tree.
const RootNodeID = "root"

type Client struct {
	apiKey string
	caller *provider.Caller
}

// NewClient builds a client for cfg.BaseURL. The transport carries auth and timeouts.
func NewClient(cfg config.SWSConfig, transport provider.Transport, log provider.Logger) *Client {
	return &Client{
		apiKey: cfg.APIKey,
		caller: provider.NewCaller(ProviderName, cfg.BaseURL, transport, log),
	}
}

// Configured reports whether the client has credentials.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

func (c *Client) checkConfigured() error {
	if !c.Configured() {
		return errors.NewProviderNotConfiguredError(ProviderName, "api_key")
	}
	return nil
}

func (c *Client) form(action string, vrm plate.VRM, repID, nodeID string) url.Values {
	form := url.Values{}
	form.Set("APIKey", c.apiKey)
	form.Set("ACTION", action)
	form.Set("VRM", vrm.String())
	if repID != "" {
		form.Set("REPID", repID)
	}
	if nodeID != "" {
		form.Set("NODEID", nodeID)
	}
	return form
}

// ==========================
// Identity
// ==========================

// FetchIdentity returns the vehicle identity. A payload without fullName counts as empty:
// the provider does not know the vehicle.
func (c *Client) FetchIdentity(ctx context.Context, vrm plate.VRM) (*models.Identity, error) {
	if err := c.checkConfigured(); err != nil {
		return nil, err
	}

	var p initialSubjectsPayload
	if err := c.caller.Decode(ctx, ActionInitialSubjects, vrm, c.form(ActionInitialSubjects, vrm, "", ""), &p); err != nil {
		return nil, err
	}

	fullName := strings.TrimSpace(p.FullName)
	if fullName == "" {
		return nil, c.caller.Report(ActionInitialSubjects, vrm, errors.NewProviderEmptyResultError(ProviderName, ActionInitialSubjects))
	}

	return &models.Identity{
		FullName: fullName,
		Make:     makeFromFullName(fullName),
		Model:    strings.TrimSpace(p.Name),
		FuelType: strings.TrimSpace(p.FuelType),
		YearFrom: parseYear(p.MadeFrom.String()),
		YearTo:   parseYear(p.MadeUntil.String()),
	}, nil
}

func makeFromFullName(fullName string) string {
	fields := strings.Fields(fullName)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// parseYear reads the year out of "YYYY-MM" or "YYYY". Anything else is 0.
func parseYear(s string) int {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '-'); i >= 0 {
		s = s[:i]
	}
	year, err := strconv.Atoi(s)
	if err != nil || year < 1900 {
		return 0
	}
	return year
}
