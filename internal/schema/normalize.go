// Package schema coerces raw persisted snapshots, in any historical shape,
// into the canonical budget state.
//
// Snapshots pass through an ordered chain of migrations, each a total and
// side-effect-free function over a copy of the raw document, and are then
// decoded into budget.State. Running the chain on an already canonical
// document is a no-op, which makes Normalize idempotent.
package schema

import (
	"encoding/json"

	"github.com/castlemilk/budgetsync/internal/budget"
)

// Version identifies a snapshot shape.
type Version int

const (
	// V0 stored the monthly amount under "budget".
	V0 Version = iota
	// V1 stores it under "income".
	V1
)

// Migration upgrades a raw document by one version.
type Migration struct {
	From, To Version
	Apply    func(raw map[string]any) map[string]any
}

// Chain is the ordered list of migrations applied to every snapshot.
var Chain = []Migration{
	{From: V0, To: V1, Apply: migrateBudgetToIncome},
}

// Detect reports the shape of a raw document.
func Detect(raw map[string]any) Version {
	if _, ok := raw["budget"]; ok {
		return V0
	}
	return V1
}

// migrateBudgetToIncome moves the legacy "budget" amount into "income" when
// income is missing or still at its default of 0.
func migrateBudgetToIncome(raw map[string]any) map[string]any {
	legacy, ok := raw["budget"]
	if !ok || legacy == nil {
		return raw
	}
	income, hasIncome := raw["income"]
	if !hasIncome || income == nil || budget.ToNumber(income) == 0 {
		raw["income"] = budget.ToNumber(legacy)
	}
	return raw
}

// Migrate runs every applicable migration on a copy of raw.
func Migrate(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	v := Detect(out)
	for _, m := range Chain {
		if m.From < v {
			continue
		}
		out = m.Apply(out)
		v = m.To
	}
	return out
}

// Normalize converts a raw snapshot into canonical state. It never fails: a
// nil document yields the defaults and malformed fields fall back to theirs.
func Normalize(raw map[string]any) budget.State {
	if raw == nil {
		return budget.Defaults()
	}
	return decode(Migrate(raw))
}

// ParseJSON decodes a serialized snapshot into a raw document.
func ParseJSON(data []byte) (map[string]any, bool) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return nil, false
	}
	return raw, true
}

func decode(raw map[string]any) budget.State {
	out := budget.Defaults()
	out.Income = budget.ToNumber(raw["income"])

	if items, ok := raw["expenses"].([]any); ok {
		out.Expenses = make([]budget.Expense, 0, len(items))
		for _, item := range items {
			if m, ok := asMap(item); ok {
				out.Expenses = append(out.Expenses, budget.ExpenseFromMap(m))
			}
		}
	}

	if items, ok := raw["categories"].([]any); ok {
		categories := make([]budget.Category, 0, len(items))
		for _, item := range items {
			if m, ok := asMap(item); ok {
				categories = append(categories, budget.CategoryFromMap(m))
			}
		}
		if len(categories) > 0 {
			out.Categories = categories
		}
	}

	if limits, ok := asMap(raw["budgetLimits"]); ok {
		for id, v := range limits {
			out.BudgetLimits[id] = budget.ToNumber(v)
		}
	}

	if settings, ok := asMap(raw["settings"]); ok {
		if currency, ok := settings["currency"].(string); ok {
			out.Settings.Currency = currency
		}
		if theme, ok := settings["theme"].(string); ok {
			out.Settings.Theme = theme
		}
	}
	return out
}

// asMap accepts both JSON-decoded objects and typed documents such as
// Firestore returns for nested maps.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[string]float64:
		out := make(map[string]any, len(m))
		for k, f := range m {
			out[k] = f
		}
		return out, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	default:
		return nil, false
	}
}
