package schema

import (
	"testing"

	"github.com/castlemilk/budgetsync/internal/budget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeNilYieldsDefaults(t *testing.T) {
	assert.Equal(t, budget.Defaults(), Normalize(nil))
}

func TestNormalizeMigratesLegacyBudget(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want float64
	}{
		{name: "budget only", raw: map[string]any{"budget": 3000.0}, want: 3000},
		{name: "budget as string", raw: map[string]any{"budget": "2500"}, want: 2500},
		{name: "income still zero", raw: map[string]any{"budget": 3000.0, "income": 0.0}, want: 3000},
		{name: "income wins when set", raw: map[string]any{"budget": 3000.0, "income": 4500.0}, want: 4500},
		{name: "garbage budget", raw: map[string]any{"budget": "lots"}, want: 0},
		{name: "null budget", raw: map[string]any{"budget": nil, "income": 12.0}, want: 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw).Income)
		})
	}
}

func TestMigrateDoesNotMutateInput(t *testing.T) {
	raw := map[string]any{"budget": 10.0}
	Migrate(raw)
	assert.NotContains(t, raw, "income")
}

func TestDetect(t *testing.T) {
	assert.Equal(t, V0, Detect(map[string]any{"budget": 1}))
	assert.Equal(t, V1, Detect(map[string]any{"income": 1}))
	assert.Equal(t, V1, Detect(map[string]any{}))
}

func TestNormalizeShapes(t *testing.T) {
	state := Normalize(map[string]any{
		"income":       "100",
		"expenses":     "not a list",
		"categories":   []any{},
		"budgetLimits": []any{1, 2},
		"settings":     map[string]any{"theme": "dark"},
	})

	assert.Equal(t, 100.0, state.Income)
	assert.Empty(t, state.Expenses)
	assert.NotNil(t, state.Expenses)
	assert.Equal(t, budget.SeedCategories(), state.Categories)
	assert.Empty(t, state.BudgetLimits)
	assert.Equal(t, budget.Settings{Currency: "₹", Theme: "dark"}, state.Settings)
}

func TestNormalizeSkipsMalformedEntries(t *testing.T) {
	state := Normalize(map[string]any{
		"expenses": []any{
			map[string]any{"id": "e1", "amount": "9.5", "categoryId": "1"},
			"junk",
			nil,
		},
		"categories": []any{42, map[string]any{"id": "c", "name": "Only", "color": "#fff"}},
	})

	require.Len(t, state.Expenses, 1)
	assert.Equal(t, 9.5, state.Expenses[0].Amount)
	assert.Equal(t, []budget.Category{{ID: "c", Name: "Only", Color: "#fff"}}, state.Categories)
}

func TestNormalizeAcceptsTypedNestedMaps(t *testing.T) {
	state := Normalize(map[string]any{
		"budgetLimits": map[string]float64{"1": 40},
		"settings":     map[string]string{"currency": "€"},
	})
	assert.Equal(t, 40.0, state.BudgetLimits["1"])
	assert.Equal(t, "€", state.Settings.Currency)
	assert.Equal(t, budget.ThemeLight, state.Settings.Theme)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []map[string]any{
		nil,
		{},
		{"budget": 3000.0},
		{"income": 5000.0, "expenses": []any{map[string]any{"id": "e1", "amount": 10.0, "categoryId": "1"}}},
		{"categories": []any{map[string]any{"id": "x", "name": "X"}}, "settings": map[string]any{"currency": "$"}},
		{"budgetLimits": map[string]any{"1": "12", "ghost": 4.0}, "settings": "broken"},
	}

	for _, raw := range inputs {
		once := Normalize(raw)
		twice := Normalize(once.ToMap())
		assert.Equal(t, once, twice)
		assert.NotEmpty(t, once.Categories)
	}
}

func TestParseJSON(t *testing.T) {
	raw, ok := ParseJSON([]byte(`{"budget": 700}`))
	require.True(t, ok)
	assert.Equal(t, 700.0, Normalize(raw).Income)

	for _, bad := range []string{`{broken`, `null`, `[1]`} {
		_, ok := ParseJSON([]byte(bad))
		assert.False(t, ok, bad)
	}
}
