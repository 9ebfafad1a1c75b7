package budget

// CategorySpend is a category annotated with what was spent against it and
// its configured limit.
type CategorySpend struct {
	Category
	Spent  float64 `json:"spent"`
	Budget float64 `json:"budget"`
}

// Derived bundles the values computed from a state on read.
type Derived struct {
	TotalExpenses    float64         `json:"totalExpenses"`
	RemainingBudget  float64         `json:"remainingBudget"`
	CategoryExpenses []CategorySpend `json:"categoryExpenses"`
}

// TotalExpenses sums every expense amount.
func (s State) TotalExpenses() float64 {
	var total float64
	for _, e := range s.Expenses {
		total += e.Amount
	}
	return total
}

// RemainingBudget is income minus total expenses.
func (s State) RemainingBudget() float64 {
	return s.Income - s.TotalExpenses()
}

// CategoryExpenses returns one entry per category in category order. Limits
// keyed by deleted categories are not reported.
func (s State) CategoryExpenses() []CategorySpend {
	spent := make(map[string]float64, len(s.Categories))
	for _, e := range s.Expenses {
		spent[e.CategoryID] += e.Amount
	}
	out := make([]CategorySpend, 0, len(s.Categories))
	for _, c := range s.Categories {
		out = append(out, CategorySpend{
			Category: c,
			Spent:    spent[c.ID],
			Budget:   s.BudgetLimits[c.ID],
		})
	}
	return out
}

// Derive computes all derived values at once.
func (s State) Derive() Derived {
	total := s.TotalExpenses()
	return Derived{
		TotalExpenses:    total,
		RemainingBudget:  s.Income - total,
		CategoryExpenses: s.CategoryExpenses(),
	}
}
