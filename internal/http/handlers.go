package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"finpal/internal/core"
	applog "finpal/internal/log"
	"finpal/internal/services"
)

const defaultCompanionName = "Penny"

// --- auth ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	User core.UserProfile `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = sanitizeInput(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, storedPassword, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		slog.ErrorContext(r.Context(), "Login lookup failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// TODO: replace the direct comparison with bcrypt once real auth lands
	if req.Password != storedPassword {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	writeJSON(w, http.StatusOK, userResponse{User: user})
}

type signupRequest struct {
	FullName           string      `json:"full_name"`
	Email              string      `json:"email"`
	Password           string      `json:"password"`
	DateOfBirth        string      `json:"date_of_birth"`
	MonthlyIncome      *core.Money `json:"monthly_income"`
	MonthlySavingsGoal *core.Money `json:"monthly_savings_goal"`
	CompanionName      string      `json:"companion_name"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.FullName = sanitizeInput(req.FullName)
	req.Email = sanitizeInput(req.Email)
	switch {
	case req.FullName == "":
		writeError(w, http.StatusUnprocessableEntity, core.ErrEmptyName.Error())
		return
	case req.Email == "":
		writeError(w, http.StatusUnprocessableEntity, core.ErrEmptyEmail.Error())
		return
	case req.Password == "":
		writeError(w, http.StatusUnprocessableEntity, "password is required")
		return
	}

	var dob time.Time
	if req.DateOfBirth != "" {
		parsed, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid date_of_birth, want YYYY-MM-DD")
			return
		}
		dob = parsed
	}

	now := time.Now()
	user := core.UserProfile{
		ID:                 uuid.NewString(),
		FullName:           req.FullName,
		Email:              req.Email,
		DateOfBirth:        dob,
		MonthlyIncome:      req.MonthlyIncome,
		MonthlySavingsGoal: req.MonthlySavingsGoal,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.store.CreateUser(r.Context(), user, req.Password); err != nil {
		slog.ErrorContext(r.Context(), "Signup failed", applog.FieldError, err, "email", req.Email)
		writeError(w, http.StatusConflict, "could not create user")
		return
	}

	companionName := sanitizeInput(req.CompanionName)
	if companionName == "" {
		companionName = defaultCompanionName
	}
	companion := core.Companion{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		Name:          companionName,
		Level:         1,
		XP:            0,
		XPToNextLevel: 100,
		Energy:        100,
		Happiness:     100,
		WealthPower:   0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateCompanion(r.Context(), companion); err != nil {
		// The account still exists; the companion can be recreated later
		slog.ErrorContext(r.Context(), "Failed to create starter companion",
			applog.FieldError, err, applog.FieldUserID, user.ID)
	}

	// A declared monthly income seeds the ledger with the first salary row
	if req.MonthlyIncome != nil && req.MonthlyIncome.Cents > 0 {
		_, err := s.transactions.CreateTransaction(r.Context(), services.TransactionInput{
			UserID:      user.ID,
			Description: "Initial Monthly Salary",
			Amount:      *req.MonthlyIncome,
			Type:        core.Income,
			Category:    "Salary",
		})
		if err != nil {
			slog.ErrorContext(r.Context(), "Failed to add initial salary transaction",
				applog.FieldError, err, applog.FieldUserID, user.ID)
		}
	}

	writeJSON(w, http.StatusCreated, userResponse{User: user})
}

// --- data snapshot ---

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	userID := strings.TrimPrefix(r.URL.Path, "/api/data/")
	if userID == "" || strings.Contains(userID, "/") {
		writeError(w, http.StatusBadRequest, "missing user id")
		return
	}

	if snap, found := s.snapshotCache.Get(userID); found {
		slog.DebugContext(r.Context(), "Snapshot cache hit", applog.FieldUserID, userID)
		writeJSON(w, http.StatusOK, snap)
		return
	}

	rows, err := s.store.FetchUserData(r.Context(), userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		slog.ErrorContext(r.Context(), "Data fetch failed", applog.FieldError, err, applog.FieldUserID, userID)
		writeError(w, http.StatusBadGateway, "data fetch failed")
		return
	}

	snap := s.builder.Build(rows)
	s.snapshotCache.Set(userID, snap)
	writeJSON(w, http.StatusOK, snap)
}

// --- transactions ---

type createTransactionRequest struct {
	UserID          string     `json:"user_id"`
	Description     string     `json:"description"`
	Amount          core.Money `json:"amount"`
	Type            string     `json:"type"`
	Category        string     `json:"category"`
	TransactionDate string     `json:"transaction_date"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	var txDate time.Time
	if req.TransactionDate != "" {
		parsed, err := parseFlexibleDate(req.TransactionDate)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid transaction_date")
			return
		}
		txDate = parsed
	}

	tx, err := s.transactions.CreateTransaction(r.Context(), services.TransactionInput{
		UserID:          req.UserID,
		Description:     sanitizeInput(req.Description),
		Amount:          req.Amount,
		Type:            core.TransactionType(req.Type),
		Category:        sanitizeInput(req.Category),
		TransactionDate: txDate,
	})
	if err != nil {
		status := http.StatusUnprocessableEntity
		if !isValidationError(err) {
			slog.ErrorContext(r.Context(), "Transaction create failed", applog.FieldError, err, applog.FieldUserID, req.UserID)
			status = http.StatusInternalServerError
		}
		writeError(w, status, err.Error())
		return
	}

	s.invalidateSnapshot(req.UserID)
	writeJSON(w, http.StatusCreated, tx)
}

// parseFlexibleDate accepts RFC 3339 or a bare calendar date.
func parseFlexibleDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrInvalidAmount, core.ErrEmptyDescription, core.ErrEmptyCategory,
		core.ErrInvalidType, core.ErrInvalidDay,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// --- budgets ---

type createBudgetRequest struct {
	UserID      string     `json:"user_id"`
	Category    string     `json:"category"`
	LimitAmount core.Money `json:"limit_amount"`
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	var req createBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	budget := core.Budget{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		Category:    sanitizeInput(req.Category),
		LimitAmount: req.LimitAmount,
		CreatedAt:   time.Now(),
	}
	if err := budget.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.CreateBudget(r.Context(), budget); err != nil {
		slog.ErrorContext(r.Context(), "Budget create failed", applog.FieldError, err, applog.FieldUserID, req.UserID)
		writeError(w, http.StatusConflict, "could not create budget")
		return
	}

	s.invalidateSnapshot(req.UserID)
	writeJSON(w, http.StatusCreated, budget)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, "DELETE")
		return
	}

	budgetID := strings.TrimPrefix(r.URL.Path, "/api/budgets/")
	userID := r.URL.Query().Get("user_id")
	if budgetID == "" || userID == "" {
		writeError(w, http.StatusBadRequest, "budget id and user_id are required")
		return
	}

	if err := s.store.DeleteBudget(r.Context(), userID, budgetID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, http.StatusNotFound, "budget not found")
			return
		}
		slog.ErrorContext(r.Context(), "Budget delete failed", applog.FieldError, err, applog.FieldBudgetID, budgetID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.invalidateSnapshot(userID)
	w.WriteHeader(http.StatusNoContent)
}

// --- challenges ---

type completeChallengeRequest struct {
	UserID string `json:"user_id"`
}

type completeChallengeResponse struct {
	Companion      core.Companion `json:"companion"`
	NewlyCompleted bool           `json:"newly_completed"`
}

func (s *Server) handleCompleteChallenge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/challenges/")
	challengeID, ok := strings.CutSuffix(rest, "/complete")
	if !ok || challengeID == "" || strings.Contains(challengeID, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	var req completeChallengeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	companion, newly, err := s.companions.CompleteChallenge(r.Context(), req.UserID, challengeID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, http.StatusNotFound, "challenge or companion not found")
			return
		}
		slog.ErrorContext(r.Context(), "Challenge completion failed",
			applog.FieldError, err, applog.FieldUserID, req.UserID, applog.FieldChallengeID, challengeID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.invalidateSnapshot(req.UserID)
	writeJSON(w, http.StatusOK, completeChallengeResponse{
		Companion:      companion,
		NewlyCompleted: newly,
	})
}

// --- settings ---

type updateSettingsRequest struct {
	UserID string `json:"user_id"`
	core.SettingsUpdate
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	var req updateSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if err := req.SettingsUpdate.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	user, err := s.store.UpdateUserSettings(r.Context(), req.UserID, req.SettingsUpdate)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		slog.ErrorContext(r.Context(), "Settings update failed", applog.FieldError, err, applog.FieldUserID, req.UserID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.invalidateSnapshot(req.UserID)
	writeJSON(w, http.StatusOK, userResponse{User: user})
}
