package fetchtechnicalprofile

import "vehicle-techdata-workers/internal/models"

type Input struct {
	Registration string `json:"registration"`
}

type Output struct {
	TechnicalProfile *models.TechnicalProfile `json:"technicalProfile"`
	VehicleFound     bool                     `json:"vehicleFound"`
}

// inputSchema validates the job variables. Other process variables are allowed through.
const inputSchema = `{
	"type": "object",
	"required": ["registration"],
	"properties": {
		"registration": {
			"type": "string",
			"minLength": 1,
			"maxLength": 16
		}
	}
}`
