// Package budget holds the canonical budget state, the store that mutates it
// and the values derived from it.
package budget

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Theme values accepted in Settings.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// DefaultCategoryColor is used when a category is added without a color.
const DefaultCategoryColor = "#3b82f6"

// Expense is a single spending entry.
type Expense struct {
	ID         string  `json:"id" firestore:"id"`
	Amount     float64 `json:"amount" firestore:"amount"`
	CategoryID string  `json:"categoryId" firestore:"categoryId"`
	Note       string  `json:"note" firestore:"note"`
	Date       string  `json:"date" firestore:"date"`
	Timestamp  string  `json:"timestamp" firestore:"timestamp"`
}

// Category groups expenses and carries an optional spending limit.
type Category struct {
	ID    string `json:"id" firestore:"id"`
	Name  string `json:"name" firestore:"name"`
	Color string `json:"color" firestore:"color"`
}

// Settings are user display preferences.
type Settings struct {
	Currency string `json:"currency" firestore:"currency"`
	Theme    string `json:"theme" firestore:"theme"`
}

// State is the canonical, versionless budget snapshot.
type State struct {
	Income       float64            `json:"income" firestore:"income"`
	Expenses     []Expense          `json:"expenses" firestore:"expenses"`
	Categories   []Category         `json:"categories" firestore:"categories"`
	BudgetLimits map[string]float64 `json:"budgetLimits" firestore:"budgetLimits"`
	Settings     Settings           `json:"settings" firestore:"settings"`
}

var seedCategories = []Category{
	{ID: "1", Name: "Food & Dining", Color: "#ef4444"},
	{ID: "2", Name: "Transportation", Color: "#3b82f6"},
	{ID: "3", Name: "Shopping", Color: "#8b5cf6"},
	{ID: "4", Name: "Entertainment", Color: "#f59e0b"},
	{ID: "5", Name: "Bills & Utilities", Color: "#10b981"},
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() Settings {
	return Settings{Currency: "₹", Theme: ThemeLight}
}

// SeedCategories returns a fresh copy of the built-in categories.
func SeedCategories() []Category {
	out := make([]Category, len(seedCategories))
	copy(out, seedCategories)
	return out
}

// Defaults returns the built-in initial state.
func Defaults() State {
	return State{
		Income:       0,
		Expenses:     []Expense{},
		Categories:   SeedCategories(),
		BudgetLimits: map[string]float64{},
		Settings:     DefaultSettings(),
	}
}

// Clone returns a deep copy so callers cannot alias store internals.
func (s State) Clone() State {
	out := State{
		Income:       s.Income,
		Expenses:     make([]Expense, len(s.Expenses)),
		Categories:   make([]Category, len(s.Categories)),
		BudgetLimits: make(map[string]float64, len(s.BudgetLimits)),
		Settings:     s.Settings,
	}
	copy(out.Expenses, s.Expenses)
	copy(out.Categories, s.Categories)
	for k, v := range s.BudgetLimits {
		out.BudgetLimits[k] = v
	}
	return out
}

// ToMap renders the state as a plain document. Firestore merge writes only
// accept map data.
func (s State) ToMap() map[string]any {
	expenses := make([]any, 0, len(s.Expenses))
	for _, e := range s.Expenses {
		expenses = append(expenses, map[string]any{
			"id":         e.ID,
			"amount":     e.Amount,
			"categoryId": e.CategoryID,
			"note":       e.Note,
			"date":       e.Date,
			"timestamp":  e.Timestamp,
		})
	}
	categories := make([]any, 0, len(s.Categories))
	for _, c := range s.Categories {
		categories = append(categories, map[string]any{
			"id":    c.ID,
			"name":  c.Name,
			"color": c.Color,
		})
	}
	limits := make(map[string]any, len(s.BudgetLimits))
	for k, v := range s.BudgetLimits {
		limits[k] = v
	}
	return map[string]any{
		"income":       s.Income,
		"expenses":     expenses,
		"categories":   categories,
		"budgetLimits": limits,
		"settings": map[string]any{
			"currency": s.Settings.Currency,
			"theme":    s.Settings.Theme,
		},
	}
}

// ToNumber coerces a loosely typed value to a finite number, 0 when it cannot.
func ToNumber(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(s, 10)
	case int:
		return strconv.Itoa(s)
	default:
		return ""
	}
}

// ExpenseFromMap reads an expense out of a raw document entry. Missing fields
// stay empty; amounts are coerced.
func ExpenseFromMap(m map[string]any) Expense {
	return Expense{
		ID:         toString(m["id"]),
		Amount:     ToNumber(m["amount"]),
		CategoryID: toString(m["categoryId"]),
		Note:       toString(m["note"]),
		Date:       toString(m["date"]),
		Timestamp:  toString(m["timestamp"]),
	}
}

// CategoryFromMap reads a category out of a raw document entry.
func CategoryFromMap(m map[string]any) Category {
	return Category{
		ID:    toString(m["id"]),
		Name:  toString(m["name"]),
		Color: toString(m["color"]),
	}
}

// Score is a cheap richness heuristic over a raw snapshot, used only to pick
// among local backups.
func Score(raw map[string]any) float64 {
	if raw == nil {
		return 0
	}
	score := ToNumber(raw["income"])
	if expenses, ok := raw["expenses"].([]any); ok {
		score += float64(len(expenses))
	}
	return score
}
