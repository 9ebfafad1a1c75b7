package budget

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestSetIncome(t *testing.T) {
	tests := []struct {
		name   string
		amount any
		want   float64
	}{
		{name: "float", amount: 5000.5, want: 5000.5},
		{name: "int", amount: 42, want: 42},
		{name: "numeric string", amount: " 1200 ", want: 1200},
		{name: "garbage string", amount: "abc", want: 0},
		{name: "nil", amount: nil, want: 0},
		{name: "bool", amount: true, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			got := s.SetIncome(tt.amount)
			assert.Equal(t, tt.want, got.Income)
		})
	}
}

func TestAddExpenseDefaults(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	s := NewStore(WithClock(fixedClock(now)))

	state := s.AddExpense(ExpenseInput{Amount: "12.5", CategoryID: "1"})

	require.Len(t, state.Expenses, 1)
	e := state.Expenses[0]
	assert.Equal(t, "1773480413000", e.ID)
	assert.Equal(t, 12.5, e.Amount)
	assert.Equal(t, "1", e.CategoryID)
	assert.Equal(t, "", e.Note)
	assert.Equal(t, "2026-03-14", e.Date)
	assert.Equal(t, "2026-03-14T09:26:53.000Z", e.Timestamp)
}

func TestAddExpenseDateFollowsUTCTimestamp(t *testing.T) {
	// 23:30 in UTC-5 is already the next day in UTC.
	zone := time.FixedZone("EST", -5*60*60)
	now := time.Date(2026, 3, 14, 23, 30, 0, 0, zone)
	s := NewStore(WithClock(fixedClock(now)))

	e := s.AddExpense(ExpenseInput{Amount: 1, CategoryID: "1"}).Expenses[0]
	assert.Equal(t, "2026-03-15", e.Date)
	assert.Equal(t, "2026-03-15T04:30:00.000Z", e.Timestamp)
}

func TestAddExpenseKeepsCallerValues(t *testing.T) {
	s := NewStore()

	state := s.AddExpense(ExpenseInput{
		ID:         "e1",
		Amount:     10,
		CategoryID: "2",
		Note:       "bus",
		Date:       "2025-12-31",
		Timestamp:  "2025-12-31T08:00:00.000Z",
	})

	assert.Equal(t, Expense{
		ID:         "e1",
		Amount:     10,
		CategoryID: "2",
		Note:       "bus",
		Date:       "2025-12-31",
		Timestamp:  "2025-12-31T08:00:00.000Z",
	}, state.Expenses[0])
}

func TestAddExpenseGeneratedIDsStayUnique(t *testing.T) {
	s := NewStore(WithClock(fixedClock(time.UnixMilli(1000))))

	s.AddExpense(ExpenseInput{Amount: 1})
	s.AddExpense(ExpenseInput{Amount: 2})
	state := s.AddExpense(ExpenseInput{Amount: 3})

	ids := []string{state.Expenses[0].ID, state.Expenses[1].ID, state.Expenses[2].ID}
	assert.Equal(t, []string{"1000", "1000-1", "1000-2"}, ids)
}

func TestTotalExpensesMatchesSumOfAmounts(t *testing.T) {
	amounts := []float64{10, 0.25, 99.75, 0, 1200, 3.5}
	s := NewStore()

	var want float64
	for i, a := range amounts {
		want += a
		state := s.AddExpense(ExpenseInput{Amount: a, CategoryID: "1"})
		assert.InDelta(t, want, state.TotalExpenses(), 1e-9, "after %d additions", i+1)
	}

	state := s.SetIncome(2000)
	assert.InDelta(t, 2000-want, state.RemainingBudget(), 1e-9)
}

func TestDeleteExpenseRemovesFirstMatchOnly(t *testing.T) {
	s := NewStore()
	s.AddExpense(ExpenseInput{ID: "dup", Amount: 1})
	s.AddExpense(ExpenseInput{ID: "other", Amount: 2})
	s.AddExpense(ExpenseInput{ID: "dup", Amount: 3})

	state := s.DeleteExpense("dup")

	require.Len(t, state.Expenses, 2)
	assert.Equal(t, "other", state.Expenses[0].ID)
	assert.Equal(t, 3.0, state.Expenses[1].Amount)

	unchanged := s.DeleteExpense("missing")
	assert.Equal(t, state, unchanged)
}

func TestAddCategoryGeneratesIDAndColor(t *testing.T) {
	s := NewStore(
		WithClock(fixedClock(time.UnixMilli(1700000000000))),
		WithIDSuffix(func() string { return "abc123xyz" }),
	)

	state := s.AddCategory(CategoryInput{Name: "Travel"})

	c := state.Categories[len(state.Categories)-1]
	assert.Equal(t, "1700000000000abc123xyz", c.ID)
	assert.Equal(t, "Travel", c.Name)
	assert.Equal(t, DefaultCategoryColor, c.Color)
}

func TestAddCategoryRandomSuffixesDiffer(t *testing.T) {
	s := NewStore(WithClock(fixedClock(time.UnixMilli(1))))

	s.AddCategory(CategoryInput{Name: "A"})
	state := s.AddCategory(CategoryInput{Name: "B"})

	n := len(state.Categories)
	assert.NotEqual(t, state.Categories[n-2].ID, state.Categories[n-1].ID)
}

func TestDeleteCategoryKeepsOrphanedLimit(t *testing.T) {
	s := NewStore()
	s.SetBudgetLimit("3", 250)

	state := s.DeleteCategory("3")

	assert.Len(t, state.Categories, 4)
	assert.Equal(t, 250.0, state.BudgetLimits["3"])
	for _, c := range state.CategoryExpenses() {
		assert.NotEqual(t, "3", c.ID)
	}
}

func TestSetBudgetLimitCoerces(t *testing.T) {
	s := NewStore()
	s.SetBudgetLimit("1", "300")
	state := s.SetBudgetLimit("2", "lots")

	assert.Equal(t, map[string]float64{"1": 300, "2": 0}, state.BudgetLimits)
}

func TestUpdateSettingsShallowMerge(t *testing.T) {
	s := NewStore()
	usd := "$"
	dark := ThemeDark
	bogus := "neon"

	state := s.UpdateSettings(SettingsPatch{Currency: &usd})
	assert.Equal(t, Settings{Currency: "$", Theme: ThemeLight}, state.Settings)

	state = s.UpdateSettings(SettingsPatch{Theme: &dark})
	assert.Equal(t, Settings{Currency: "$", Theme: ThemeDark}, state.Settings)

	state = s.UpdateSettings(SettingsPatch{Theme: &bogus})
	assert.Equal(t, ThemeDark, state.Settings.Theme)
}

func TestLoadDataReplacesFields(t *testing.T) {
	s := NewStore()
	s.AddExpense(ExpenseInput{ID: "old", Amount: 1})

	snapshot := Defaults()
	snapshot.Income = 5000
	snapshot.Expenses = []Expense{{ID: "e1", Amount: 20}}

	state := s.LoadData(snapshot)
	assert.Equal(t, snapshot, state)
}

func TestClearAllYieldsDefaults(t *testing.T) {
	s := NewStore()
	s.SetIncome(100)
	s.AddExpense(ExpenseInput{Amount: 5})
	s.AddCategory(CategoryInput{Name: "Pets"})
	s.SetBudgetLimit("1", 10)

	assert.Equal(t, Defaults(), s.ClearAll())
}

func TestStateIsCopied(t *testing.T) {
	s := NewStore()
	state := s.AddExpense(ExpenseInput{ID: "e1", Amount: 5})

	state.Expenses[0].Amount = 999
	state.BudgetLimits["x"] = 1

	fresh := s.State()
	assert.Equal(t, 5.0, fresh.Expenses[0].Amount)
	assert.NotContains(t, fresh.BudgetLimits, "x")
}

func TestCategoryExpenses(t *testing.T) {
	s := NewStore()
	s.SetBudgetLimit("1", 100)
	s.AddExpense(ExpenseInput{Amount: 30, CategoryID: "1"})
	s.AddExpense(ExpenseInput{Amount: 12, CategoryID: "1"})
	state := s.AddExpense(ExpenseInput{Amount: 7, CategoryID: "2"})

	spends := state.CategoryExpenses()
	require.Len(t, spends, 5)
	assert.Equal(t, CategorySpend{Category: state.Categories[0], Spent: 42, Budget: 100}, spends[0])
	assert.Equal(t, CategorySpend{Category: state.Categories[1], Spent: 7, Budget: 0}, spends[1])
	assert.Equal(t, 0.0, spends[2].Spent)
}

func TestCheckDeleteCategory(t *testing.T) {
	state := Defaults()
	assert.NoError(t, CheckDeleteCategory(state, "1"))
	assert.ErrorIs(t, CheckDeleteCategory(state, "nope"), ErrUnknownCategory)

	state.Categories = state.Categories[:1]
	assert.ErrorIs(t, CheckDeleteCategory(state, "1"), ErrLastCategory)
}

func TestScore(t *testing.T) {
	assert.Equal(t, 0.0, Score(nil))
	assert.Equal(t, 10.0, Score(map[string]any{"income": 10}))
	assert.Equal(t, 52.0, Score(map[string]any{"income": "50", "expenses": []any{1, 2}}))
	assert.Equal(t, 2.0, Score(map[string]any{"income": "x", "expenses": []any{1, 2}}))
}
