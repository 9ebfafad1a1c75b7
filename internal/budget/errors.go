package budget

import "errors"

var (
	// ErrLastCategory is returned when a caller tries to remove the only category.
	ErrLastCategory = errors.New("budget: cannot delete the last category")
	// ErrUnknownCategory is returned when a category id is not present.
	ErrUnknownCategory = errors.New("budget: unknown category")
	// ErrInvalidImport is returned for import payloads that are not a JSON object.
	ErrInvalidImport = errors.New("budget: invalid import document")
)

// CheckDeleteCategory validates a category deletion before it reaches the
// store. The store itself performs no such check.
func CheckDeleteCategory(s State, categoryID string) error {
	found := false
	for _, c := range s.Categories {
		if c.ID == categoryID {
			found = true
			break
		}
	}
	if !found {
		return ErrUnknownCategory
	}
	if len(s.Categories) <= 1 {
		return ErrLastCategory
	}
	return nil
}
