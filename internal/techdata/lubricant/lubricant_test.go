package lubricant

import (
	"testing"

	"vehicle-techdata-workers/internal/models"
	"vehicle-techdata-workers/internal/techdata/capacity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleIndex() capacity.Index {
	return capacity.Build([]capacity.Entry{
		{Label: "Engine sump, including filter", Value: "4.3", Unit: "l"},
		{Label: "Cooling system", Value: "7.5", Unit: "l"},
		{Label: "Gearbox refill", Value: "1.7", Unit: "l"},
		{Label: "With R1234yf refrigerant", Value: "450", Unit: "g"},
		{Label: "Refrigerant", Value: "500", Unit: "g"},
	})
}

func TestSpecification(t *testing.T) {
	assert.Equal(t, "ACEA C3 5W-30", Specification("ACEA C3", "5W-30"))
	assert.Equal(t, "DOT 4", Specification("DOT 4", ""))
	assert.Equal(t, "5W-30", Specification(" ", "5W-30"))
	assert.Equal(t, "", Specification("", ""))
}

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		group string
		item  string
		want  models.LubricantCategory
		ok    bool
	}{
		{group: "Engine", item: "Engine oil", want: models.CategoryEngineOil, ok: true},
		{group: "Brakes", item: "Brake fluid", want: models.CategoryBrakeFluid, ok: true},
		{group: "Cooling system", item: "Antifreeze", want: models.CategoryCoolant, ok: true},
		{group: "Transmission", item: "Manual transmission oil", want: models.CategoryGearboxOil, ok: true},
		{group: "Air conditioning", item: "Refrigerant", want: models.CategoryRefrigerant, ok: true},
		{group: "Power steering", item: "Hydraulic fluid", ok: false},
		// group keyword takes precedence in table order, not position
		{group: "Engine cooling", item: "Coolant", want: models.CategoryEngineOil, ok: true},
	}

	for _, tt := range tests {
		got, ok := CategoryOf(tt.group, tt.item)
		assert.Equal(t, tt.ok, ok, "%s/%s", tt.group, tt.item)
		assert.Equal(t, tt.want, got, "%s/%s", tt.group, tt.item)
	}
}

func TestClassify(t *testing.T) {
	groups := []Group{
		{Name: "Engine", Items: []Item{{Name: "Engine oil", Quality: "ACEA C3", Viscosity: "5W-30"}}},
		{Name: "Brakes", Items: []Item{{Name: "Brake fluid", Quality: "DOT 4"}}},
		{Name: "Power steering", Items: []Item{{Name: "Hydraulic fluid", Quality: "CHF 11S"}}},
		{Name: "Cooling system", Items: []Item{{Name: "", Quality: "G13"}}},
		{Name: "Transmission", Items: []Item{{Name: "Manual transmission", Viscosity: "75W-90"}}},
		{Name: "Air conditioning", Items: []Item{{Name: "Refrigerant", Quality: "R1234yf"}}},
		{Name: "Engine", Items: []Item{{Name: "Engine oil alt", Quality: "", Viscosity: ""}}},
	}

	res := Classify(groups, sampleIndex())

	require.Len(t, res.Lubricants, 4)
	assert.Equal(t, models.LubricantItem{
		Description: "Engine oil", Category: models.CategoryEngineOil, Specification: "ACEA C3 5W-30", Capacity: "4.3 l",
	}, res.Lubricants[0])
	assert.Equal(t, models.LubricantItem{
		Description: "Brake fluid", Category: models.CategoryBrakeFluid, Specification: "DOT 4",
	}, res.Lubricants[1], "brake system is not in the index so no capacity")
	assert.Equal(t, "Cooling system", res.Lubricants[2].Description)
	assert.Equal(t, "7.5 l", res.Lubricants[2].Capacity)
	assert.Equal(t, "1.7 l", res.Lubricants[3].Capacity, "gearbox refill synonym")

	require.NotNil(t, res.Aircon)
	assert.Equal(t, models.AirconSpec{Type: "R1234yf", Quantity: "450 g"}, *res.Aircon)
}

func TestClassify_EmptyIndexNeverInventsCapacity(t *testing.T) {
	groups := []Group{{Name: "Engine", Items: []Item{{Name: "Engine oil", Viscosity: "0W-20"}}}}

	res := Classify(groups, nil)

	require.Len(t, res.Lubricants, 1)
	assert.Empty(t, res.Lubricants[0].Capacity)
	assert.Nil(t, res.Aircon)
}

func TestClassify_AirconUpdates(t *testing.T) {
	idx := capacity.Build([]capacity.Entry{{Label: "Refrigerant", Value: "500", Unit: "g"}})

	res := Classify([]Group{{Name: "Air conditioning", Items: []Item{
		{Name: "Refrigerant", Quality: "R134a"},
		{Name: "Refrigerant oil", Quality: "PAG 46"},
	}}}, idx)

	require.NotNil(t, res.Aircon)
	assert.Equal(t, "PAG 46", res.Aircon.Type, "last refrigerant row sets the type")
	assert.Equal(t, "500 g", res.Aircon.Quantity)
	assert.Empty(t, res.Lubricants)
}

func TestRefrigerantQuantity(t *testing.T) {
	idx := capacity.Build([]capacity.Entry{
		{Label: "With R134a refrigerant", Value: "550", Unit: "g"},
		{Label: "Refrigerant", Value: "500", Unit: "g"},
	})

	q, ok := RefrigerantQuantity("R134a", idx)
	assert.True(t, ok)
	assert.Equal(t, "550 g", q)

	q, ok = RefrigerantQuantity("R1234yf", idx)
	assert.True(t, ok)
	assert.Equal(t, "500 g", q, "falls back to generic label")

	_, ok = RefrigerantQuantity("R1234yf", nil)
	assert.False(t, ok)
}

func TestAttachCapacity(t *testing.T) {
	items := []models.LubricantItem{
		{Description: "Engine Oil", Category: models.CategoryEngineOil, Specification: "5W-30"},
		{Description: "Brake Fluid", Category: models.CategoryBrakeFluid, Specification: "DOT 4"},
	}

	out := AttachCapacity(items, sampleIndex())

	assert.Equal(t, "4.3 l", out[0].Capacity)
	assert.Empty(t, out[1].Capacity)
	assert.Empty(t, items[0].Capacity, "input is not modified")
}
