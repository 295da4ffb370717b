package sws

import (
	"context"
	"strings"

	"vehicle-techdata-workers/internal/common/errors"
	"vehicle-techdata-workers/internal/techdata/capacity"
	"vehicle-techdata-workers/internal/techdata/lubricant"
	"vehicle-techdata-workers/internal/techdata/plate"
)

// FetchCapacities indexes the "Capacities" adjustments group. A response without that group,
// or an empty one, gives an empty index and no error.
func (c *Client) FetchCapacities(ctx context.Context, vrm plate.VRM) (capacity.Index, error) {
	if err := c.checkConfigured(); err != nil {
		return nil, err
	}

	var p adjustmentsPayload
	err := c.caller.Decode(ctx, ActionAdjustments, vrm, c.form(ActionAdjustments, vrm, "", ""), &p)
	if errors.HasCode(err, errors.ErrCodeProviderEmptyResult) {
		return capacity.Index{}, nil
	}
	if err != nil {
		return nil, err
	}

	var entries []capacity.Entry
	for _, g := range p.ExtAdjustment {
		if g.Name != capacity.GroupName {
			continue
		}
		for _, it := range g.SubAdjustments.Item {
			entries = append(entries, capacity.Entry{
				Label: it.Name,
				Value: it.Value.String(),
				Unit:  it.Unit,
			})
		}
	}

	return capacity.Build(entries), nil
}

// FetchLubricantGroups returns the raw lubricant groups in provider order.
func (c *Client) FetchLubricantGroups(ctx context.Context, vrm plate.VRM) ([]lubricant.Group, error) {
	if err := c.checkConfigured(); err != nil {
		return nil, err
	}

	var p lubricantsPayload
	if err := c.caller.Decode(ctx, ActionLubricants, vrm, c.form(ActionLubricants, vrm, "", ""), &p); err != nil {
		return nil, err
	}

	groups := make([]lubricant.Group, 0, len(p.ExtLubricant))
	for _, g := range p.ExtLubricant {
		group := lubricant.Group{Name: strings.TrimSpace(g.Name)}
		for _, it := range g.SubLubricants.Item {
			group.Items = append(group.Items, lubricant.Item{
				Name:      strings.TrimSpace(it.Name),
				Quality:   it.Quality.String(),
				Viscosity: it.Viscosity.String(),
			})
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// FetchLubricants fetches lubricant groups and classifies them against idx.
func (c *Client) FetchLubricants(ctx context.Context, vrm plate.VRM, idx capacity.Index) (lubricant.Result, error) {
	groups, err := c.FetchLubricantGroups(ctx, vrm)
	if err != nil {
		return lubricant.Result{}, err
	}
	return lubricant.Classify(groups, idx), nil
}
