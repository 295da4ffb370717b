package fetchrepairnodes

import "vehicle-techdata-workers/internal/models"

type Input struct {
	Registration string `json:"registration"`
	RepairTypeID string `json:"repairTypeId"`
	NodeID       string `json:"nodeId,omitempty"`
}

type Output struct {
	RepairTypeID string                      `json:"repairTypeId"`
	NodeID       string                      `json:"nodeId"`
	Nodes        []models.RepairCategoryNode `json:"nodes"`
}

const inputSchema = `{
	"type": "object",
	"required": ["registration", "repairTypeId"],
	"properties": {
		"registration": {
			"type": "string",
			"minLength": 1,
			"maxLength": 16
		},
		"repairTypeId": {
			"type": "string",
			"minLength": 1
		},
		"nodeId": {
			"type": "string"
		}
	}
}`
