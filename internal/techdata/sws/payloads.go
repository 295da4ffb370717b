package sws

import "vehicle-techdata-workers/internal/techdata/envelope"

// Typed payloads, decoded after the envelope has been stripped.

type initialSubjectsPayload struct {
	FullName  string              `json:"fullName"`
	Name      string              `json:"name"`
	FuelType  string              `json:"fuelType"`
	MadeFrom  envelope.FlexString `json:"madeFrom"`
	MadeUntil envelope.FlexString `json:"madeUntil"`
}

type adjustmentsPayload struct {
	ExtAdjustment envelope.OneOrMany[adjustmentGroup] `json:"ExtAdjustment"`
}

type adjustmentGroup struct {
	Name           string `json:"name"`
	SubAdjustments struct {
		Item envelope.OneOrMany[adjustmentItem] `json:"item"`
	} `json:"subAdjustments"`
}

type adjustmentItem struct {
	Name  string              `json:"name"`
	Value envelope.FlexString `json:"value"`
	Unit  string              `json:"unit"`
}

type lubricantsPayload struct {
	ExtLubricant envelope.OneOrMany[lubricantGroup] `json:"ExtLubricant"`
}

type lubricantGroup struct {
	Name          string `json:"name"`
	SubLubricants struct {
		Item envelope.OneOrMany[lubricantItem] `json:"item"`
	} `json:"subLubricants"`
}

type lubricantItem struct {
	Name      string              `json:"name"`
	Quality   envelope.FlexString `json:"quality"`
	Viscosity envelope.FlexString `json:"viscosity"`
}

type repairIDsPayload struct {
	ExtRepairtimeType struct {
		RepairtimeTypeID envelope.FlexString `json:"repairtimeTypeId"`
	} `json:"ExtRepairtimeType"`
}

type repairCategoriesPayload struct {
	Nodes envelope.OneOrMany[repairNode] `json:"nodes"`
}

type repairNode struct {
	ID          envelope.FlexString `json:"id"`
	Description string              `json:"description"`
	HasChildren envelope.FlexBool   `json:"hasChildren"`
}
