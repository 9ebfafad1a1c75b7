//go:build ignore
// +build ignore

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

// Run with: go run scripts/seed-data.go
func main() {
	// Get API URL from environment or use default
	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8111"
	}

	// Get user ID from environment or use default local dev user
	userID := os.Getenv("USER_ID")
	if userID == "" {
		userID = "local-dev-user"
	}

	// Get auth token if provided (for authenticated requests)
	authToken := os.Getenv("AUTH_TOKEN")

	log.Printf("🌱 Seeding data for user: %s", userID)
	log.Printf("📡 API URL: %s", apiURL)

	c := &client{base: apiURL, user: userID, token: authToken, http: &http.Client{Timeout: 30 * time.Second}}
	if authToken != "" {
		log.Println("🔐 Using provided auth token")
	} else {
		log.Println("ℹ️  No auth token provided - backend must be running with SKIP_AUTH=true or ENV=local")
	}

	if err := c.call(http.MethodPost, "/v1/session", nil); err != nil {
		log.Fatalf("Failed to start session: %v", err)
	}

	if err := c.call(http.MethodPut, "/v1/income", map[string]any{"amount": 6500}); err != nil {
		log.Fatalf("Failed to seed income: %v", err)
	}

	if err := seedExpenses(c); err != nil {
		log.Fatalf("Failed to seed expenses: %v", err)
	}

	if err := seedLimits(c); err != nil {
		log.Fatalf("Failed to seed limits: %v", err)
	}

	log.Println("✅ Successfully seeded all test data!")

	log.Println("")
	log.Println("🔍 Verifying seeded data...")
	var state struct {
		Derived struct {
			TotalExpenses   float64 `json:"totalExpenses"`
			RemainingBudget float64 `json:"remainingBudget"`
		} `json:"derived"`
	}
	if err := c.get("/v1/state", &state); err != nil {
		log.Fatalf("❌ Verification failed: %v", err)
	}
	log.Printf("✅ Spent %.2f, remaining %.2f", state.Derived.TotalExpenses, state.Derived.RemainingBudget)
}

type client struct {
	base  string
	user  string
	token string
	http  *http.Client
}

func (c *client) do(method, path string, body any) (*http.Response, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else {
		req.Header.Set("X-Debug-Impersonate-User", c.user)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}
	return resp, nil
}

func (c *client) call(method, path string, body any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func (c *client) get(path string, out any) error {
	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}

func seedExpenses(c *client) error {
	log.Println("📝 Creating expenses...")

	// Category ids are the built-in seed categories.
	expenses := []struct {
		note     string
		amount   float64
		category string
		daysAgo  int
	}{
		{"Grocery shopping", 156.80, "1", 0},
		{"Streaming subscription", 22.99, "4", 1},
		{"Ride to work", 18.50, "2", 1},
		{"Coffee at local cafe", 6.50, "1", 2},
		{"Electricity bill", 185.00, "5", 3},
		{"Dinner at restaurant", 78.50, "1", 4},
		{"Headphones", 149.00, "3", 5},
		{"Petrol", 95.00, "2", 8},
		{"Phone bill", 79.00, "5", 9},
		{"Movie tickets", 36.00, "4", 11},
		{"Weekly groceries", 142.30, "1", 14},
		{"Internet bill", 89.00, "5", 15},
		{"New shoes", 189.00, "3", 22},
	}

	for _, exp := range expenses {
		date := time.Now().AddDate(0, 0, -exp.daysAgo)
		err := c.call(http.MethodPost, "/v1/expenses", map[string]any{
			"amount":     exp.amount,
			"categoryId": exp.category,
			"note":       exp.note,
			"date":       date.Format("2006-01-02"),
		})
		if err != nil {
			return fmt.Errorf("create expense %q: %w", exp.note, err)
		}
		log.Printf("   ✓ %s (%.2f)", exp.note, exp.amount)
	}
	return nil
}

func seedLimits(c *client) error {
	log.Println("💰 Setting category limits...")

	limits := map[string]float64{
		"1": 600,
		"2": 250,
		"3": 300,
		"4": 100,
		"5": 400,
	}
	for id, limit := range limits {
		if err := c.call(http.MethodPut, "/v1/limits/"+id, map[string]any{"limit": limit}); err != nil {
			return fmt.Errorf("set limit for %s: %w", id, err)
		}
	}
	return nil
}
