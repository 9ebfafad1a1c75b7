package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/castlemilk/budgetsync/internal/budget"
)

type stateResponse struct {
	State   budget.State   `json:"state"`
	Derived budget.Derived `json:"derived"`
	Loading bool           `json:"loading"`
	Source  string         `json:"source,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decode reads a JSON body, keeping numbers as json.Number so loosely typed
// amounts reach the store's coercion intact.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
