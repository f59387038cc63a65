package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	applog "finpal/internal/log"
	"finpal/internal/memory"
	"finpal/internal/services"
	"finpal/internal/snapshot"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	txService := services.NewTransactionService(store, nil)
	companionService := services.NewCompanionService(store, nil)
	builder := snapshot.NewBuilder(nil)

	srv := NewServer(Options{Addr: ":0"}, store, txService, companionService, builder)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv, store
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func signupUser(t *testing.T, srv *Server) string {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/auth/signup", map[string]any{
		"full_name": "Test User",
		"email":     "test@example.com",
		"password":  "secret123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	decodeBody(t, rec, &resp)
	if resp.User.ID == "" {
		t.Fatal("signup must return the user id")
	}
	return resp.User.ID
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, srv, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rec.Code)
		}
	}
}

func TestSignupAndLogin(t *testing.T) {
	srv, store := newTestServer(t)
	userID := signupUser(t, srv)

	// Starter companion exists
	if _, err := store.GetCompanion(context.Background(), userID); err != nil {
		t.Fatalf("starter companion missing: %v", err)
	}

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "test@example.com", "password": "secret123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("secret123")) {
		t.Fatal("login response must not leak the password")
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "test@example.com", "password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "ghost@example.com", "password": "secret123",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown email status = %d", rec.Code)
	}
}

func TestSignupWithMonthlyIncomeSeedsSalary(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/signup", map[string]any{
		"full_name":      "Earner",
		"email":          "earner@example.com",
		"password":       "pw",
		"monthly_income": "9000.00",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	decodeBody(t, rec, &resp)

	rec = doJSON(t, srv, http.MethodGet, "/api/data/"+resp.User.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("data status = %d", rec.Code)
	}
	var snap struct {
		Balance      float64 `json:"balance"`
		Transactions []struct {
			Description string `json:"description"`
			Category    string `json:"category"`
			Type        string `json:"type"`
		} `json:"transactions"`
	}
	decodeBody(t, rec, &snap)
	if snap.Balance != 9000 {
		t.Fatalf("balance = %v, want 9000", snap.Balance)
	}
	if len(snap.Transactions) != 1 || snap.Transactions[0].Description != "Initial Monthly Salary" {
		t.Fatalf("initial salary transaction expected, got %+v", snap.Transactions)
	}
}

func TestDataSnapshot(t *testing.T) {
	srv, _ := newTestServer(t)
	userID := signupUser(t, srv)

	rec := doJSON(t, srv, http.MethodGet, "/api/data/"+userID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("data status = %d: %s", rec.Code, rec.Body.String())
	}

	var snap struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Companion *struct {
			Name string `json:"name"`
		} `json:"companion"`
		Stage *struct {
			Rank string `json:"rank"`
		} `json:"stage"`
		DailyChallenges  []json.RawMessage `json:"dailyChallenges"`
		WeeklyChallenges []json.RawMessage `json:"weeklyChallenges"`
	}
	decodeBody(t, rec, &snap)
	if snap.User.ID != userID {
		t.Fatalf("user id = %s, want %s", snap.User.ID, userID)
	}
	if snap.Companion == nil || snap.Companion.Name != defaultCompanionName {
		t.Fatalf("companion wrong: %+v", snap.Companion)
	}
	if snap.Stage == nil || snap.Stage.Rank != "Bronze" {
		t.Fatalf("level 1 stage should be Bronze: %+v", snap.Stage)
	}
	if len(snap.DailyChallenges) != 2 || len(snap.WeeklyChallenges) != 2 {
		t.Fatalf("fallback challenges expected, got %d/%d", len(snap.DailyChallenges), len(snap.WeeklyChallenges))
	}
}

func TestDataUnknownUser(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/api/data/ghost", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestCreateTransactionInvalidatesSnapshot(t *testing.T) {
	srv, _ := newTestServer(t)
	userID := signupUser(t, srv)

	// Prime the cache
	if rec := doJSON(t, srv, http.MethodGet, "/api/data/"+userID, nil); rec.Code != http.StatusOK {
		t.Fatalf("data status = %d", rec.Code)
	}

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", map[string]any{
		"user_id":     userID,
		"description": "Groceries run",
		"amount":      "120.50",
		"type":        "expense",
		"category":    "Groceries",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/data/"+userID, nil)
	var snap struct {
		Balance      float64 `json:"balance"`
		Transactions []struct {
			Icon string `json:"icon"`
		} `json:"transactions"`
	}
	decodeBody(t, rec, &snap)
	if snap.Balance != -120.50 {
		t.Fatalf("balance = %v, want -120.50 (stale cache?)", snap.Balance)
	}
	if len(snap.Transactions) != 1 || snap.Transactions[0].Icon != "shopping-cart" {
		t.Fatalf("transaction icon wrong: %+v", snap.Transactions)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct {
		name string
		body map[string]any
		code int
	}{
		{"missing user", map[string]any{"description": "x", "amount": "1.00", "type": "expense", "category": "Food"}, http.StatusBadRequest},
		{"zero amount", map[string]any{"user_id": "u1", "description": "x", "amount": 0, "type": "expense", "category": "Food"}, http.StatusBadRequest},
		{"bad type", map[string]any{"user_id": "u1", "description": "x", "amount": "1.00", "type": "transfer", "category": "Food"}, http.StatusUnprocessableEntity},
		{"empty description", map[string]any{"user_id": "u1", "description": " ", "amount": "1.00", "type": "expense", "category": "Food"}, http.StatusUnprocessableEntity},
		{"bad date", map[string]any{"user_id": "u1", "description": "x", "amount": "1.00", "type": "expense", "category": "Food", "transaction_date": "junk"}, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/api/transactions", tc.body)
			if rec.Code != tc.code {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tc.code, rec.Body.String())
			}
		})
	}
}

func TestBudgetLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	userID := signupUser(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/budgets", map[string]any{
		"user_id":      userID,
		"category":     "Food",
		"limit_amount": "500.00",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var budget struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &budget)

	// Budget visible in the snapshot with derived spent
	doJSON(t, srv, http.MethodPost, "/api/transactions", map[string]any{
		"user_id": userID, "description": "Lunch", "amount": "30.00",
		"type": "expense", "category": "Food",
	})
	rec = doJSON(t, srv, http.MethodGet, "/api/data/"+userID, nil)
	var snap struct {
		Budgets []struct {
			Spent float64 `json:"spent"`
			Icon  string  `json:"icon"`
		} `json:"budgets"`
	}
	decodeBody(t, rec, &snap)
	if len(snap.Budgets) != 1 || snap.Budgets[0].Spent != 30 {
		t.Fatalf("budget spent wrong: %+v", snap.Budgets)
	}
	if snap.Budgets[0].Icon != "utensils" {
		t.Fatalf("budget icon = %s, want utensils", snap.Budgets[0].Icon)
	}

	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/budgets/%s?user_id=%s", budget.ID, userID), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/budgets/%s?user_id=%s", budget.ID, userID), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("double delete status = %d", rec.Code)
	}
}

func TestCompleteChallenge(t *testing.T) {
	srv, _ := newTestServer(t)
	userID := signupUser(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/challenges/dummy-daily-1/complete", map[string]string{
		"user_id": userID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("complete status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp completeChallengeResponse
	decodeBody(t, rec, &resp)
	if !resp.NewlyCompleted {
		t.Fatal("first completion must be newly")
	}
	if resp.Companion.XP != 10 {
		t.Fatalf("xp = %d, want 10", resp.Companion.XP)
	}

	// Repeat is idempotent
	rec = doJSON(t, srv, http.MethodPost, "/api/challenges/dummy-daily-1/complete", map[string]string{
		"user_id": userID,
	})
	decodeBody(t, rec, &resp)
	if resp.NewlyCompleted || resp.Companion.XP != 10 {
		t.Fatalf("repeat completion must not grant again: %+v", resp)
	}

	// The completed flag shows up in the snapshot
	rec = doJSON(t, srv, http.MethodGet, "/api/data/"+userID, nil)
	var snap struct {
		DailyChallenges []struct {
			ID        string `json:"id"`
			Completed bool   `json:"completed"`
		} `json:"dailyChallenges"`
	}
	decodeBody(t, rec, &snap)
	if len(snap.DailyChallenges) != 2 || !snap.DailyChallenges[0].Completed || snap.DailyChallenges[1].Completed {
		t.Fatalf("completed flags wrong: %+v", snap.DailyChallenges)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/challenges/nope/complete", map[string]string{
		"user_id": userID,
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown challenge status = %d", rec.Code)
	}
}

func TestUpdateSettings(t *testing.T) {
	srv, _ := newTestServer(t)
	userID := signupUser(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/user/settings", map[string]any{
		"user_id":             userID,
		"monthly_income":      "8000.00",
		"auto_deposit":        true,
		"auto_deposit_amount": "500.00",
		"auto_deposit_day":    15,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("settings status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		User struct {
			AutoDepositEnabled bool     `json:"auto_deposit_enabled"`
			AutoDepositAmount  *float64 `json:"auto_deposit_amount"`
			AutoDepositDay     *int     `json:"auto_deposit_day"`
		} `json:"user"`
	}
	decodeBody(t, rec, &resp)
	if !resp.User.AutoDepositEnabled || resp.User.AutoDepositAmount == nil || *resp.User.AutoDepositAmount != 500 {
		t.Fatalf("auto deposit not applied: %+v", resp.User)
	}

	// Disabling clears amount and day
	rec = doJSON(t, srv, http.MethodPost, "/api/user/settings", map[string]any{
		"user_id":      userID,
		"auto_deposit": false,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("disable status = %d: %s", rec.Code, rec.Body.String())
	}
	decodeBody(t, rec, &resp)
	if resp.User.AutoDepositEnabled || resp.User.AutoDepositAmount != nil || resp.User.AutoDepositDay != nil {
		t.Fatalf("disable must clear amount and day: %+v", resp.User)
	}

	// Enabling without amount and day is rejected
	rec = doJSON(t, srv, http.MethodPost, "/api/user/settings", map[string]any{
		"user_id":      userID,
		"auto_deposit": true,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid enable status = %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct{ method, path string }{
		{http.MethodGet, "/api/auth/login"},
		{http.MethodGet, "/api/transactions"},
		{http.MethodPost, "/api/data/u1"},
		{http.MethodPost, "/api/budgets/b1"},
		{http.MethodDelete, "/api/user/settings"},
	}
	for _, tc := range cases {
		rec := doJSON(t, srv, tc.method, tc.path, nil)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s %s status = %d, want 405", tc.method, tc.path, rec.Code)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/api/data/ghost", nil)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("X-Frame-Options = %q", got)
	}
}

func TestRequestLoggingUsesStructuredFields(t *testing.T) {
	srv, _ := newTestServer(t)

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	doJSON(t, srv, http.MethodGet, "/api/data/nobody", nil)

	logged := buf.String()
	for _, want := range []string{
		applog.FieldComponent + "=" + applog.ComponentHTTP,
		applog.FieldRequestID + "=req_",
		applog.FieldMethod + "=GET",
		applog.FieldPath + "=/api/data/nobody",
		applog.FieldClientIP + "=",
		applog.FieldStatusCode + "=404",
	} {
		if !strings.Contains(logged, want) {
			t.Errorf("request log missing %q in:\n%s", want, logged)
		}
	}
}
