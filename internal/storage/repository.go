// Package storage persists the application's rows in SQLite and serves the
// single logical per-user fetch the snapshot builder consumes.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finpal/internal/core"
	applog "finpal/internal/log"
	"finpal/internal/snapshot"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Timestamps are stored as RFC 3339 strings so rows stay readable in the
// sqlite shell. The fractional seconds are padded to fixed width so that
// lexicographic comparison in SQL agrees with chronological order;
// RFC3339Nano would strip trailing zeros and break that.
const (
	storeTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"
	parseTimeLayout = time.RFC3339Nano
)

func formatTime(t time.Time) string {
	return t.UTC().Format(storeTimeLayout)
}

// parseRowTime turns a stored timestamp back into time.Time. A malformed
// value yields the zero time, which the aggregation passes skip; corrupting
// a group key with a garbage date is worse than dropping the row.
func parseRowTime(ctx context.Context, s, column string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(parseTimeLayout, s)
	if err != nil {
		slog.WarnContext(ctx, "Malformed timestamp in row, treating as unset",
			applog.FieldComponent, applog.ComponentStorage,
			"column", column, "value", s, "error", err)
		return time.Time{}
	}
	return t
}

func nullCents(m *core.Money) sql.NullInt64 {
	if m == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: m.Cents, Valid: true}
}

func centsPtr(v sql.NullInt64) *core.Money {
	if !v.Valid {
		return nil
	}
	return &core.Money{Cents: v.Int64}
}

// --- users ---

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.UserProfile, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (
			id, full_name, email, password_hash, date_of_birth,
			monthly_income_cents, monthly_savings_goal_cents,
			auto_deposit_enabled, auto_deposit_amount_cents, auto_deposit_day,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.FullName, u.Email, passwordHash, formatTime(u.DateOfBirth),
		nullCents(u.MonthlyIncome), nullCents(u.MonthlySavingsGoal),
		u.AutoDepositEnabled, nullCents(u.AutoDepositAmount), nullInt(u.AutoDepositDay),
		formatTime(u.CreatedAt), formatTime(u.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	slog.InfoContext(ctx, "User created", applog.FieldUserID, u.ID, "email", u.Email)
	return nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

const userColumns = `id, full_name, email, password_hash, date_of_birth,
	monthly_income_cents, monthly_savings_goal_cents,
	auto_deposit_enabled, auto_deposit_amount_cents, auto_deposit_day,
	created_at, updated_at`

func (r *SQLiteRepository) scanUser(ctx context.Context, row *sql.Row) (core.UserProfile, string, error) {
	var (
		u                      core.UserProfile
		hash                   string
		dob, created, updated  string
		income, goal, depAmt   sql.NullInt64
		depDay                 sql.NullInt64
	)
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &hash, &dob,
		&income, &goal, &u.AutoDepositEnabled, &depAmt, &depDay,
		&created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.UserProfile{}, "", core.ErrNotFound
	}
	if err != nil {
		return core.UserProfile{}, "", fmt.Errorf("scan user: %w", err)
	}

	u.DateOfBirth = parseRowTime(ctx, dob, "date_of_birth")
	u.MonthlyIncome = centsPtr(income)
	u.MonthlySavingsGoal = centsPtr(goal)
	u.AutoDepositAmount = centsPtr(depAmt)
	if depDay.Valid {
		day := int(depDay.Int64)
		u.AutoDepositDay = &day
	}
	u.CreatedAt = parseRowTime(ctx, created, "created_at")
	u.UpdatedAt = parseRowTime(ctx, updated, "updated_at")
	return u, hash, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, userID string) (core.UserProfile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, userID)
	u, _, err := r.scanUser(ctx, row)
	if err != nil {
		return core.UserProfile{}, fmt.Errorf("get user %s: %w", userID, err)
	}
	return u, nil
}

// GetUserByEmail returns the profile together with the stored password hash
// for the login comparison.
func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.UserProfile, string, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, hash, err := r.scanUser(ctx, row)
	if err != nil {
		return core.UserProfile{}, "", fmt.Errorf("get user by email: %w", err)
	}
	return u, hash, nil
}

func (r *SQLiteRepository) UpdateUserSettings(ctx context.Context, userID string, upd core.SettingsUpdate) (core.UserProfile, error) {
	current, err := r.GetUser(ctx, userID)
	if err != nil {
		return core.UserProfile{}, err
	}

	updated := upd.Apply(current)
	updated.UpdatedAt = time.Now()

	_, err = r.db.ExecContext(ctx, `
		UPDATE users SET
			monthly_income_cents = ?,
			monthly_savings_goal_cents = ?,
			auto_deposit_enabled = ?,
			auto_deposit_amount_cents = ?,
			auto_deposit_day = ?,
			updated_at = ?
		WHERE id = ?`,
		nullCents(updated.MonthlyIncome), nullCents(updated.MonthlySavingsGoal),
		updated.AutoDepositEnabled, nullCents(updated.AutoDepositAmount),
		nullInt(updated.AutoDepositDay), formatTime(updated.UpdatedAt), userID,
	)
	if err != nil {
		return core.UserProfile{}, fmt.Errorf("update user settings: %w", err)
	}

	slog.InfoContext(ctx, "User settings updated", applog.FieldUserID, userID)
	return updated, nil
}

// --- companions ---

func (r *SQLiteRepository) CreateCompanion(ctx context.Context, c core.Companion) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO companions (
			id, user_id, name, level, xp, xp_to_next_level,
			energy, happiness, wealth_power, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, c.Level, c.XP, c.XPToNextLevel,
		c.Energy, c.Happiness, c.WealthPower,
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert companion: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetCompanion(ctx context.Context, userID string) (core.Companion, error) {
	var (
		c                core.Companion
		created, updated string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, level, xp, xp_to_next_level,
			energy, happiness, wealth_power, created_at, updated_at
		FROM companions WHERE user_id = ?`, userID).
		Scan(&c.ID, &c.UserID, &c.Name, &c.Level, &c.XP, &c.XPToNextLevel,
			&c.Energy, &c.Happiness, &c.WealthPower, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Companion{}, fmt.Errorf("get companion for user %s: %w", userID, core.ErrNotFound)
	}
	if err != nil {
		return core.Companion{}, fmt.Errorf("get companion for user %s: %w", userID, err)
	}
	c.CreatedAt = parseRowTime(ctx, created, "created_at")
	c.UpdatedAt = parseRowTime(ctx, updated, "updated_at")
	return c, nil
}

func (r *SQLiteRepository) UpdateCompanion(ctx context.Context, c core.Companion) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE companions SET
			level = ?, xp = ?, xp_to_next_level = ?,
			energy = ?, happiness = ?, wealth_power = ?, updated_at = ?
		WHERE id = ?`,
		c.Level, c.XP, c.XPToNextLevel,
		c.Energy, c.Happiness, c.WealthPower, formatTime(time.Now()), c.ID,
	)
	if err != nil {
		return fmt.Errorf("update companion: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update companion %s: %w", c.ID, core.ErrNotFound)
	}
	return nil
}

// --- transactions ---

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (
			id, user_id, description, amount_cents, type, category,
			transaction_date, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Description, t.Amount.Cents, string(t.Type),
		t.Category, formatTime(t.TransactionDate), formatTime(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		applog.FieldTxID, t.ID,
		applog.FieldUserID, t.UserID,
		applog.FieldTxType, string(t.Type),
		applog.FieldCategory, t.Category,
		applog.FieldAmountCents, t.Amount.Cents)
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	var (
		t               core.Transaction
		txDate, created string
		txType          string
		cents           int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, description, amount_cents, type, category,
			transaction_date, created_at
		FROM transactions WHERE id = ?`, id).
		Scan(&t.ID, &t.UserID, &t.Description, &cents, &txType, &t.Category,
			&txDate, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	t.Amount = core.Money{Cents: cents}
	t.Type = core.TransactionType(txType)
	t.TransactionDate = parseRowTime(ctx, txDate, "transaction_date")
	t.CreatedAt = parseRowTime(ctx, created, "created_at")
	return t, nil
}

func (r *SQLiteRepository) listTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, description, amount_cents, type, category,
			transaction_date, created_at
		FROM transactions WHERE user_id = ?
		ORDER BY transaction_date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t               core.Transaction
			txDate, created string
			txType          string
			cents           int64
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Description, &cents, &txType,
			&t.Category, &txDate, &created); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Amount = core.Money{Cents: cents}
		t.Type = core.TransactionType(txType)
		t.TransactionDate = parseRowTime(ctx, txDate, "transaction_date")
		t.CreatedAt = parseRowTime(ctx, created, "created_at")
		out = append(out, t)
	}
	return out, rows.Err()
}

// --- budgets ---

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (id, user_id, category, limit_amount_cents, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.Category, b.LimitAmount.Cents, formatTime(b.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget saved",
		applog.FieldBudgetID, b.ID, applog.FieldUserID, b.UserID, applog.FieldCategory, b.Category,
		"limit_cents", b.LimitAmount.Cents)
	return nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, budgetID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND user_id = ?`, budgetID, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete budget %s: %w", budgetID, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) listBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	// Insertion order: the snapshot keeps budget ordering as stored
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, category, limit_amount_cents, created_at
		FROM budgets WHERE user_id = ? ORDER BY created_at ASC, rowid ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var (
			b       core.Budget
			cents   int64
			created string
		)
		if err := rows.Scan(&b.ID, &b.UserID, &b.Category, &cents, &created); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.LimitAmount = core.Money{Cents: cents}
		b.CreatedAt = parseRowTime(ctx, created, "created_at")
		out = append(out, b)
	}
	return out, rows.Err()
}

// --- challenges ---

func (r *SQLiteRepository) GetChallenge(ctx context.Context, id string) (core.Challenge, error) {
	var (
		c      core.Challenge
		cType  string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, description, reward_xp, type, is_active
		FROM challenges WHERE id = ?`, id).
		Scan(&c.ID, &c.Title, &c.Description, &c.RewardXP, &cType, &c.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Challenge{}, fmt.Errorf("get challenge %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Challenge{}, fmt.Errorf("get challenge %s: %w", id, err)
	}
	c.Type = core.ChallengeType(cType)
	return c, nil
}

func (r *SQLiteRepository) listActiveChallenges(ctx context.Context) ([]core.Challenge, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, description, reward_xp, type, is_active
		FROM challenges WHERE is_active = 1 ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("list active challenges: %w", err)
	}
	defer rows.Close()

	var out []core.Challenge
	for rows.Next() {
		var (
			c     core.Challenge
			cType string
		)
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.RewardXP, &cType, &c.IsActive); err != nil {
			return nil, fmt.Errorf("scan challenge: %w", err)
		}
		c.Type = core.ChallengeType(cType)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) listCompletedChallengeIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT challenge_id FROM user_challenges WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("list completed challenges: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan completed challenge id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// CompleteChallenge records a completion membership. Returns false when the
// challenge was already completed, so reward XP is only granted once.
func (r *SQLiteRepository) CompleteChallenge(ctx context.Context, userID string, challenge core.Challenge, completedAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO user_challenges (user_id, challenge_id, challenge_type, completed_at)
		VALUES (?, ?, ?, ?)`,
		userID, challenge.ID, string(challenge.Type), formatTime(completedAt),
	)
	if err != nil {
		return false, fmt.Errorf("insert challenge completion: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("challenge completion rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	slog.InfoContext(ctx, "Challenge completed",
		applog.FieldUserID, userID, applog.FieldChallengeID, challenge.ID, applog.FieldRewardXP, challenge.RewardXP)
	return true, nil
}

// ExpireChallengeCompletions removes completions older than the given
// cutoffs so daily and weekly challenges become redoable in their next
// period. Returns the number of removed memberships.
func (r *SQLiteRepository) ExpireChallengeCompletions(ctx context.Context, dailyBefore, weeklyBefore time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM user_challenges
		WHERE (challenge_type = 'daily' AND completed_at < ?)
		   OR (challenge_type = 'weekly' AND completed_at < ?)`,
		formatTime(dailyBefore), formatTime(weeklyBefore),
	)
	if err != nil {
		return 0, fmt.Errorf("expire challenge completions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expired completions rows affected: %w", err)
	}
	return n, nil
}

// --- row source ---

// FetchUserData implements snapshot.RowSource: one logical load of every
// row set a session needs. A missing user is a fetch failure; a missing
// companion is not.
func (r *SQLiteRepository) FetchUserData(ctx context.Context, userID string) (snapshot.Rows, error) {
	user, err := r.GetUser(ctx, userID)
	if err != nil {
		return snapshot.Rows{}, fmt.Errorf("fetch user data: %w", err)
	}

	rows := snapshot.Rows{User: &user}

	companion, err := r.GetCompanion(ctx, userID)
	switch {
	case err == nil:
		rows.Companion = &companion
	case errors.Is(err, core.ErrNotFound):
		// No companion yet: legal state for a fresh account
	default:
		return snapshot.Rows{}, fmt.Errorf("fetch user data: %w", err)
	}

	if rows.Transactions, err = r.listTransactions(ctx, userID); err != nil {
		return snapshot.Rows{}, fmt.Errorf("fetch user data: %w", err)
	}
	if rows.Budgets, err = r.listBudgets(ctx, userID); err != nil {
		return snapshot.Rows{}, fmt.Errorf("fetch user data: %w", err)
	}
	if rows.Challenges, err = r.listActiveChallenges(ctx); err != nil {
		return snapshot.Rows{}, fmt.Errorf("fetch user data: %w", err)
	}
	if rows.CompletedChallengeIDs, err = r.listCompletedChallengeIDs(ctx, userID); err != nil {
		return snapshot.Rows{}, fmt.Errorf("fetch user data: %w", err)
	}

	return rows, nil
}
