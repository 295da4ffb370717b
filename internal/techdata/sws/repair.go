package sws

import (
	"context"
	"encoding/json"
	"strings"

	"vehicle-techdata-workers/internal/common/errors"
	"vehicle-techdata-workers/internal/models"
	"vehicle-techdata-workers/internal/techdata/plate"
)

// RepairTypeID identifies a vehicle's repair-time catalogue. The zero value is not usable:
// one comes from FetchRepairTypeID or, for identifiers supplied by a caller, ParseRepairTypeID.
type RepairTypeID struct {
	value string
}

// ParseRepairTypeID accepts a non-blank identifier.
func ParseRepairTypeID(s string) (RepairTypeID, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RepairTypeID{}, false
	}
	return RepairTypeID{value: s}, true
}

func (id RepairTypeID) String() string {
	return id.value
}

func (id RepairTypeID) Valid() bool {
	return id.value != ""
}

// FetchRepairTypeID is step one of the repair-tree lookup.
func (c *Client) FetchRepairTypeID(ctx context.Context, vrm plate.VRM) (RepairTypeID, error) {
	if err := c.checkConfigured(); err != nil {
		return RepairTypeID{}, err
	}

	var p repairIDsPayload
	if err := c.caller.Decode(ctx, ActionRepairIDs, vrm, c.form(ActionRepairIDs, vrm, "", ""), &p); err != nil {
		return RepairTypeID{}, err
	}

	id, ok := ParseRepairTypeID(p.ExtRepairtimeType.RepairtimeTypeID.String())
	if !ok {
		return RepairTypeID{}, c.caller.Report(ActionRepairIDs, vrm, errors.NewProviderEmptyResultError(ProviderName, ActionRepairIDs))
	}
	return id, nil
}

// FetchRepairNodes lists the children of nodeID (RootNodeID for the top level). An empty node
// list is reported as an empty result.
func (c *Client) FetchRepairNodes(ctx context.Context, vrm plate.VRM, id RepairTypeID, nodeID string) ([]models.RepairCategoryNode, error) {
	if err := c.checkConfigured(); err != nil {
		return nil, err
	}
	if !id.Valid() {
		return nil, errors.NewInvalidJobInputError("repair type id is required")
	}
	if strings.TrimSpace(nodeID) == "" {
		nodeID = RootNodeID
	}

	var p repairCategoriesPayload
	if err := c.caller.Decode(ctx, ActionRepairCategories, vrm, c.form(ActionRepairCategories, vrm, id.String(), nodeID), &p); err != nil {
		return nil, err
	}

	nodes := make([]models.RepairCategoryNode, 0, len(p.Nodes))
	for _, n := range p.Nodes {
		if n.ID == "" {
			continue
		}
		nodes = append(nodes, models.RepairCategoryNode{
			ID:          n.ID.String(),
			Label:       strings.TrimSpace(n.Description),
			HasChildren: bool(n.HasChildren),
		})
	}

	if len(nodes) == 0 {
		return nil, c.caller.Report(ActionRepairCategories, vrm, errors.NewProviderEmptyResultError(ProviderName, ActionRepairCategories))
	}
	return nodes, nil
}

// FetchRepairDetails asks for labour-time details of nodeIDs in one call.
func (c *Client) FetchRepairDetails(ctx context.Context, vrm plate.VRM, id RepairTypeID, nodeIDs []string) (json.RawMessage, error) {
	if err := c.checkConfigured(); err != nil {
		return nil, err
	}
	if !id.Valid() || len(nodeIDs) == 0 {
		return nil, errors.NewInvalidJobInputError("repair type id and node ids are required")
	}

	return c.caller.Call(ctx, ActionRepairInfo, vrm, c.form(ActionRepairInfo, vrm, id.String(), strings.Join(nodeIDs, ",")))
}

// FetchRepairTree runs REPAIR_IDS and, only when it yields an identifier, REPAIR_CATEGORIES
// for the root. With detailNodes > 0 the details of the first detailNodes nodes are attached;
// a details failure leaves the tree intact.
func (c *Client) FetchRepairTree(ctx context.Context, vrm plate.VRM, detailNodes int) (*models.RepairTimes, error) {
	id, err := c.FetchRepairTypeID(ctx, vrm)
	if err != nil {
		return nil, err
	}

	nodes, err := c.FetchRepairNodes(ctx, vrm, id, RootNodeID)
	if err != nil {
		return nil, err
	}

	tree := &models.RepairTimes{
		RepairTypeID: id.String(),
		Nodes:        nodes,
	}

	if detailNodes > 0 {
		n := detailNodes
		if n > len(nodes) {
			n = len(nodes)
		}
		ids := make([]string, 0, n)
		for _, node := range nodes[:n] {
			ids = append(ids, node.ID)
		}
		if details, err := c.FetchRepairDetails(ctx, vrm, id, ids); err == nil {
			tree.Details = details
		}
	}

	return tree, nil
}
