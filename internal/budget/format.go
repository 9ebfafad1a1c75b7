package budget

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatAmount renders an amount with its currency symbol and digit grouping,
// e.g. "₹12,500.00".
func FormatAmount(currency string, amount float64) string {
	if amount < 0 {
		return "-" + currency + printer.Sprintf("%.2f", -amount)
	}
	return currency + printer.Sprintf("%.2f", amount)
}

// Summary is a human-readable rendering of the headline numbers.
type Summary struct {
	Income     string            `json:"income"`
	Spent      string            `json:"spent"`
	Remaining  string            `json:"remaining"`
	Categories map[string]string `json:"categories"`
}

// Summarize formats the headline numbers using the state's currency.
func (s State) Summarize() Summary {
	cur := s.Settings.Currency
	d := s.Derive()
	out := Summary{
		Income:     FormatAmount(cur, s.Income),
		Spent:      FormatAmount(cur, d.TotalExpenses),
		Remaining:  FormatAmount(cur, d.RemainingBudget),
		Categories: make(map[string]string, len(d.CategoryExpenses)),
	}
	for _, c := range d.CategoryExpenses {
		if c.Budget > 0 {
			out.Categories[c.Name] = FormatAmount(cur, c.Spent) + " / " + FormatAmount(cur, c.Budget)
			continue
		}
		out.Categories[c.Name] = FormatAmount(cur, c.Spent)
	}
	return out
}
