package budget

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// ExportDocument is the JSON backup format users download and re-import.
type ExportDocument struct {
	Income       float64            `json:"income"`
	Expenses     []Expense          `json:"expenses"`
	Categories   []Category         `json:"categories"`
	BudgetLimits map[string]float64 `json:"budgetLimits"`
	Settings     Settings           `json:"settings"`
	ExportDate   string             `json:"exportDate"`
}

// Export captures a state for download.
func Export(s State, now time.Time) ExportDocument {
	c := s.Clone()
	return ExportDocument{
		Income:       c.Income,
		Expenses:     c.Expenses,
		Categories:   c.Categories,
		BudgetLimits: c.BudgetLimits,
		Settings:     c.Settings,
		ExportDate:   now.UTC().Format(time.RFC3339),
	}
}

// ExportFileName is the conventional file name for an export taken at now.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("budget-tracker-backup-%s.json", now.Format("2006-01-02"))
}

// ParseImport decodes an import payload into a raw document.
func ParseImport(r io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	if doc == nil {
		return nil, ErrInvalidImport
	}
	return doc, nil
}

// Import re-applies every present field of doc through the store operations,
// so the store's coercions hold for imported data too. Expenses and
// categories whose id already exists are skipped, making a repeated import a
// no-op.
func Import(s *Store, doc map[string]any) State {
	if v, ok := doc["income"]; ok {
		s.SetIncome(v)
	}
	if expenses, ok := doc["expenses"].([]any); ok {
		for _, item := range expenses {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			e := ExpenseFromMap(m)
			if e.ID != "" && s.hasExpense(e.ID) {
				continue
			}
			s.AddExpense(ExpenseInput{
				ID:         e.ID,
				Amount:     m["amount"],
				CategoryID: e.CategoryID,
				Note:       e.Note,
				Date:       e.Date,
				Timestamp:  e.Timestamp,
			})
		}
	}
	if categories, ok := doc["categories"].([]any); ok {
		for _, item := range categories {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			c := CategoryFromMap(m)
			if c.ID != "" && s.hasCategory(c.ID) {
				continue
			}
			s.AddCategory(CategoryInput{ID: c.ID, Name: c.Name, Color: c.Color})
		}
	}
	if limits, ok := doc["budgetLimits"].(map[string]any); ok {
		for id, limit := range limits {
			s.SetBudgetLimit(id, limit)
		}
	}
	if settings, ok := doc["settings"].(map[string]any); ok {
		var patch SettingsPatch
		if currency, ok := settings["currency"].(string); ok {
			patch.Currency = &currency
		}
		if theme, ok := settings["theme"].(string); ok {
			patch.Theme = &theme
		}
		s.UpdateSettings(patch)
	}
	return s.State()
}
