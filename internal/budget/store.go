package budget

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExpenseInput is the caller-facing payload for AddExpense. Amount is loosely
// typed because form and import payloads carry strings as often as numbers.
type ExpenseInput struct {
	ID         string `json:"id"`
	Amount     any    `json:"amount"`
	CategoryID string `json:"categoryId"`
	Note       string `json:"note"`
	Date       string `json:"date"`
	Timestamp  string `json:"timestamp"`
}

// CategoryInput is the caller-facing payload for AddCategory.
type CategoryInput struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// SettingsPatch is shallow-merged into Settings; nil fields are left alone.
type SettingsPatch struct {
	Currency *string `json:"currency,omitempty"`
	Theme    *string `json:"theme,omitempty"`
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides the time source used for default ids and dates.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDSuffix overrides the random suffix used for generated category ids.
func WithIDSuffix(suffix func() string) StoreOption {
	return func(s *Store) {
		s.suffix = suffix
	}
}

// Store holds the canonical state in memory and applies the action set.
// Every operation returns the new state and none fails: invalid inputs are
// coerced or ignored. A Store is not safe for concurrent use; the session
// that owns it serialises access.
type Store struct {
	state  State
	now    func() time.Time
	suffix func() string
}

// NewStore returns a store holding the built-in defaults.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		state:  Defaults(),
		now:    time.Now,
		suffix: randomSuffix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:9]
}

// State returns a copy of the current state.
func (s *Store) State() State {
	return s.state.Clone()
}

// SetIncome replaces the income, 0 when amount is not numeric.
func (s *Store) SetIncome(amount any) State {
	s.state.Income = ToNumber(amount)
	return s.State()
}

// AddExpense appends an expense, filling id, date and timestamp defaults.
func (s *Store) AddExpense(in ExpenseInput) State {
	now := s.now()
	e := Expense{
		ID:         in.ID,
		Amount:     ToNumber(in.Amount),
		CategoryID: in.CategoryID,
		Note:       in.Note,
		Date:       in.Date,
		Timestamp:  in.Timestamp,
	}
	if e.ID == "" {
		e.ID = s.uniqueExpenseID(strconv.FormatInt(now.UnixMilli(), 10))
	}
	if e.Date == "" {
		e.Date = now.UTC().Format("2006-01-02")
	}
	if e.Timestamp == "" {
		e.Timestamp = now.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	}
	s.state.Expenses = append(s.state.Expenses, e)
	return s.State()
}

// uniqueExpenseID keeps time-derived ids unique when several expenses are
// created within the same millisecond.
func (s *Store) uniqueExpenseID(base string) string {
	id := base
	for n := 1; s.hasExpense(id); n++ {
		id = base + "-" + strconv.Itoa(n)
	}
	return id
}

func (s *Store) hasExpense(id string) bool {
	for _, e := range s.state.Expenses {
		if e.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) hasCategory(id string) bool {
	for _, c := range s.state.Categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

// DeleteExpense removes the first expense with the given id.
func (s *Store) DeleteExpense(id string) State {
	for i, e := range s.state.Expenses {
		if e.ID == id {
			s.state.Expenses = append(s.state.Expenses[:i:i], s.state.Expenses[i+1:]...)
			break
		}
	}
	return s.State()
}

// AddCategory appends a category, generating an id and color when absent.
func (s *Store) AddCategory(in CategoryInput) State {
	c := Category{ID: in.ID, Name: in.Name, Color: in.Color}
	if c.ID == "" {
		c.ID = strconv.FormatInt(s.now().UnixMilli(), 10) + s.suffix()
	}
	if c.Color == "" {
		c.Color = DefaultCategoryColor
	}
	s.state.Categories = append(s.state.Categories, c)
	return s.State()
}

// DeleteCategory removes a category. Limits keyed by it are kept; see
// CheckDeleteCategory for the guard callers must apply first.
func (s *Store) DeleteCategory(id string) State {
	kept := make([]Category, 0, len(s.state.Categories))
	for _, c := range s.state.Categories {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.state.Categories = kept
	return s.State()
}

// SetBudgetLimit upserts a limit, 0 when limit is not numeric.
func (s *Store) SetBudgetLimit(categoryID string, limit any) State {
	if s.state.BudgetLimits == nil {
		s.state.BudgetLimits = map[string]float64{}
	}
	s.state.BudgetLimits[categoryID] = ToNumber(limit)
	return s.State()
}

// UpdateSettings shallow-merges patch into the settings. Unknown themes are ignored.
func (s *Store) UpdateSettings(patch SettingsPatch) State {
	if patch.Currency != nil {
		s.state.Settings.Currency = *patch.Currency
	}
	if patch.Theme != nil && (*patch.Theme == ThemeLight || *patch.Theme == ThemeDark) {
		s.state.Settings.Theme = *patch.Theme
	}
	return s.State()
}

// LoadData merges a normalized snapshot over the current state.
func (s *Store) LoadData(snapshot State) State {
	loaded := snapshot.Clone()
	s.state.Income = loaded.Income
	if snapshot.Expenses != nil {
		s.state.Expenses = loaded.Expenses
	}
	if len(snapshot.Categories) > 0 {
		s.state.Categories = loaded.Categories
	}
	if snapshot.BudgetLimits != nil {
		s.state.BudgetLimits = loaded.BudgetLimits
	}
	if snapshot.Settings != (Settings{}) {
		s.state.Settings = loaded.Settings
	}
	return s.State()
}

// ClearAll resets to the built-in defaults.
func (s *Store) ClearAll() State {
	s.state = Defaults()
	return s.State()
}
