// Package lubricant turns provider lubricant groups into technical-profile lubricant items and
// an air-conditioning spec.
package lubricant

import (
	"strings"

	"vehicle-techdata-workers/internal/models"
	"vehicle-techdata-workers/internal/techdata/capacity"
)

// Item is one provider lubricant row.
type Item struct {
	Name      string
	Quality   string
	Viscosity string
}

// Group is a named list of lubricant rows.
type Group struct {
	Name  string
	Items []Item
}

// Result is the classifier output. Lubricants keep discovery order.
type Result struct {
	Lubricants []models.LubricantItem
	Aircon     *models.AirconSpec
}

type keywordRule struct {
	keyword  string
	category models.LubricantCategory
}

// keywordRules is evaluated in order; the first keyword found in the group or item name wins.
var keywordRules = []keywordRule{
	{keyword: "engine", category: models.CategoryEngineOil},
	{keyword: "brake", category: models.CategoryBrakeFluid},
	{keyword: "cooling", category: models.CategoryCoolant},
	{keyword: "manual transmission", category: models.CategoryGearboxOil},
	{keyword: "refrigerant", category: models.CategoryRefrigerant},
}

// preferredLabels lists the capacity labels for each category, most specific first.
var preferredLabels = map[models.LubricantCategory][]string{
	models.CategoryEngineOil:  {"engine sump including filter"},
	models.CategoryCoolant:    {"cooling system"},
	models.CategoryBrakeFluid: {"brake system"},
	models.CategoryGearboxOil: {"manual transmission", "gearbox refill"},
}

const genericRefrigerantLabel = "refrigerant"

// refrigerantLabels maps a refrigerant family to its type-specific capacity label.
var refrigerantLabels = []struct {
	family string
	label  string
}{
	{family: "r1234yf", label: "with r1234yf refrigerant"},
	{family: "r134a", label: "with r134a refrigerant"},
}

// Specification joins the non-empty quality and viscosity with a space.
func Specification(quality, viscosity string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{quality, viscosity} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// CategoryOf classifies a row by its group and item names. ok is false for rows that belong to
// no technical-profile category.
func CategoryOf(groupName, itemName string) (models.LubricantCategory, bool) {
	group := strings.ToLower(groupName)
	item := strings.ToLower(itemName)
	for _, r := range keywordRules {
		if strings.Contains(group, r.keyword) || strings.Contains(item, r.keyword) {
			return r.category, true
		}
	}
	return "", false
}

// Classify walks groups in order. Rows without a specification or category are dropped.
// Refrigerant rows update a single aircon spec, the last one seen setting its type.
func Classify(groups []Group, idx capacity.Index) Result {
	var res Result

	for _, g := range groups {
		for _, it := range g.Items {
			spec := Specification(it.Quality, it.Viscosity)
			if spec == "" {
				continue
			}

			category, ok := CategoryOf(g.Name, it.Name)
			if !ok {
				continue
			}

			if category == models.CategoryRefrigerant {
				res.Aircon = updateAircon(res.Aircon, spec, idx)
				continue
			}

			description := strings.TrimSpace(it.Name)
			if description == "" {
				description = strings.TrimSpace(g.Name)
			}

			item := models.LubricantItem{
				Description:   description,
				Category:      category,
				Specification: spec,
			}
			item.Capacity, _ = CapacityFor(category, idx)
			res.Lubricants = append(res.Lubricants, item)
		}
	}

	return res
}

// CapacityFor looks up the category's preferred labels. It never guesses.
func CapacityFor(category models.LubricantCategory, idx capacity.Index) (string, bool) {
	labels, ok := preferredLabels[category]
	if !ok {
		return "", false
	}
	return idx.First(labels...)
}

// AttachCapacity fills in capacities on items that lack one. Items keep their order.
func AttachCapacity(items []models.LubricantItem, idx capacity.Index) []models.LubricantItem {
	out := make([]models.LubricantItem, len(items))
	for i, it := range items {
		if it.Capacity == "" {
			it.Capacity, _ = CapacityFor(it.Category, idx)
		}
		out[i] = it
	}
	return out
}

// RefrigerantQuantity resolves the charge for a refrigerant type, falling back to the generic
// refrigerant label.
func RefrigerantQuantity(refrigerantType string, idx capacity.Index) (string, bool) {
	lowered := strings.ToLower(refrigerantType)
	for _, r := range refrigerantLabels {
		if strings.Contains(lowered, r.family) {
			if v, ok := idx.Lookup(r.label); ok {
				return v, true
			}
			break
		}
	}
	return idx.Lookup(genericRefrigerantLabel)
}

func updateAircon(current *models.AirconSpec, spec string, idx capacity.Index) *models.AirconSpec {
	next := &models.AirconSpec{Type: spec}
	if current != nil {
		next.Quantity = current.Quantity
	}
	if q, ok := RefrigerantQuantity(spec, idx); ok {
		next.Quantity = q
	}
	return next
}
