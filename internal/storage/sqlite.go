package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
)

// Compile-time interface check.
var _ domain.RecipeSource = (*SQLiteStore)(nil)

// Timestamps are stored as fixed-width UTC text so they sort lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// HistoryFilter selects which of a user's recipes to return.
type HistoryFilter int

const (
	FilterCooked HistoryFilter = iota
	FilterLiked
)

// String returns a human-readable filter name.
func (f HistoryFilter) String() string {
	if f == FilterLiked {
		return "liked"
	}
	return "cooked"
}

// SQLiteStore persists users, recipes, steps, cook/like history and
// learned user profiles.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.RWMutex
	log *logger.Logger
	now func() time.Time
}

// NewSQLiteStore opens (or creates) the database at path and migrates it.
func NewSQLiteStore(path string, log *logger.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection: keeps ":memory:" databases coherent and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &SQLiteStore{db: db, log: log, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	log.Debug("sqlite store ready at %s", path)
	return s, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	PRAGMA foreign_keys = ON;

	CREATE TABLE IF NOT EXISTS users (
		user_id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS recipes (
		recipe_id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		meal_type TEXT NOT NULL DEFAULT '',
		cooking_time INTEGER NOT NULL DEFAULT 0,
		skill_level TEXT NOT NULL DEFAULT '',
		dietary_restrictions TEXT NOT NULL DEFAULT '',
		ingredients TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS steps (
		step_id INTEGER PRIMARY KEY AUTOINCREMENT,
		recipe_id INTEGER NOT NULL REFERENCES recipes(recipe_id) ON DELETE CASCADE,
		step_number INTEGER NOT NULL,
		step_text TEXT NOT NULL,
		estimated_time INTEGER NOT NULL DEFAULT 0,
		tips TEXT NOT NULL DEFAULT '',
		UNIQUE(recipe_id, step_number)
	);

	CREATE TABLE IF NOT EXISTS user_recipe_history (
		history_id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(user_id),
		recipe_id INTEGER NOT NULL REFERENCES recipes(recipe_id) ON DELETE CASCADE,
		cooked INTEGER NOT NULL DEFAULT 0,
		liked INTEGER NOT NULL DEFAULT 0,
		added_at TEXT NOT NULL,
		cooked_date TEXT,
		last_step_completed INTEGER NOT NULL DEFAULT 0,
		UNIQUE(user_id, recipe_id)
	);

	CREATE TABLE IF NOT EXISTS user_profiles (
		user_id INTEGER PRIMARY KEY REFERENCES users(user_id),
		model TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_recipes_name ON recipes(name);
	CREATE INDEX IF NOT EXISTS idx_history_user ON user_recipe_history(user_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) stamp() string {
	return s.now().UTC().Format(tsLayout)
}

// ── Users ────────────────────────────────────────────────────────

// AddUser registers username and returns its ID. Registering an existing
// username returns the existing ID.
func (s *SQLiteStore) AddUser(ctx context.Context, username string) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return 0, fmt.Errorf("username is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, created_at) VALUES (?, ?) ON CONFLICT(username) DO NOTHING`,
		username, s.stamp())
	if err != nil {
		return 0, fmt.Errorf("adding user: %w", err)
	}

	var id int64
	if err := s.db.QueryRowContext(ctx, `SELECT user_id FROM users WHERE username = ?`, username).Scan(&id); err != nil {
		return 0, fmt.Errorf("looking up user: %w", err)
	}
	return id, nil
}

// ── Recipes ──────────────────────────────────────────────────────

// SaveRecipe stores r with its steps and returns the new recipe ID. When
// userID is non-zero the recipe is also added to that user's history.
func (s *SQLiteStore) SaveRecipe(ctx context.Context, r *domain.Recipe, userID int64) (string, error) {
	ingredients, err := json.Marshal(nonNil(r.Ingredients))
	if err != nil {
		return "", fmt.Errorf("marshal ingredients: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := s.stamp()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO recipes (name, meal_type, cooking_time, skill_level, dietary_restrictions, ingredients, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.Name, r.MealType, r.CookingTime, r.SkillLevel, r.DietaryRestrictions, string(ingredients), now)
	if err != nil {
		return "", fmt.Errorf("inserting recipe: %w", err)
	}
	recipeID, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("recipe id: %w", err)
	}

	for i, step := range r.Steps {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO steps (recipe_id, step_number, step_text, estimated_time, tips)
			VALUES (?, ?, ?, ?, ?)`,
			recipeID, i+1, step.Text, step.EstimatedTime, step.Tips)
		if err != nil {
			return "", fmt.Errorf("inserting step %d: %w", i+1, err)
		}
	}

	if userID != 0 {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO user_recipe_history (user_id, recipe_id, added_at) VALUES (?, ?, ?)`,
			userID, recipeID, now)
		if err != nil {
			return "", fmt.Errorf("recording history: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	id := strconv.FormatInt(recipeID, 10)
	s.log.Info("saved recipe %q as %s (%d steps)", r.Name, id, len(r.Steps))
	return id, nil
}

const summaryColumns = `
	r.recipe_id, r.name, r.meal_type, r.cooking_time, r.skill_level, r.created_at,
	(SELECT COUNT(*) FROM steps s WHERE s.recipe_id = r.recipe_id)`

// Get returns a recipe with its steps.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.Recipe, error) {
	recipeID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r := &domain.Recipe{ID: id}
	var ingredients, created string
	err = s.db.QueryRowContext(ctx, `
		SELECT name, meal_type, cooking_time, skill_level, dietary_restrictions, ingredients, created_at
		FROM recipes WHERE recipe_id = ?`, recipeID).
		Scan(&r.Name, &r.MealType, &r.CookingTime, &r.SkillLevel, &r.DietaryRestrictions, &ingredients, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading recipe %s: %w", id, err)
	}
	r.CreatedAt = parseStamp(created)
	if err := json.Unmarshal([]byte(ingredients), &r.Ingredients); err != nil {
		return nil, fmt.Errorf("decoding ingredients of recipe %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT step_number, step_text, estimated_time, tips
		FROM steps WHERE recipe_id = ? ORDER BY step_number`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("loading steps of recipe %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var st domain.Step
		if err := rows.Scan(&st.Number, &st.Text, &st.EstimatedTime, &st.Tips); err != nil {
			return nil, fmt.Errorf("scanning step: %w", err)
		}
		r.Steps = append(r.Steps, st)
	}
	return r, rows.Err()
}

// FindRecipe returns the ID of the newest stored recipe with the same
// name, steps and ingredients as r, or domain.ErrNotFound.
func (s *SQLiteStore) FindRecipe(ctx context.Context, r *domain.Recipe) (string, error) {
	ids, err := s.idsByName(ctx, r.Name)
	if err != nil {
		return "", err
	}
	for _, id := range ids {
		stored, err := s.Get(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return "", err
		}
		if slices.Equal(stored.StepTexts(), r.StepTexts()) && slices.Equal(stored.Ingredients, r.Ingredients) {
			return id, nil
		}
	}
	return "", domain.ErrNotFound
}

func (s *SQLiteStore) idsByName(ctx context.Context, name string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT recipe_id FROM recipes WHERE name = ?
		ORDER BY created_at DESC, recipe_id DESC`, name)
	if err != nil {
		return nil, fmt.Errorf("finding recipe %q: %w", name, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning recipe id: %w", err)
		}
		ids = append(ids, strconv.FormatInt(id, 10))
	}
	return ids, rows.Err()
}

// List returns every recipe, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.RecipeSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.querySummaries(ctx, `SELECT`+summaryColumns+`
		FROM recipes r ORDER BY r.created_at DESC, r.recipe_id DESC`)
}

// Search returns recipes whose name contains query, newest first.
func (s *SQLiteStore) Search(ctx context.Context, query string) ([]domain.RecipeSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.querySummaries(ctx, `SELECT`+summaryColumns+`
		FROM recipes r WHERE r.name LIKE ? ESCAPE '\'
		ORDER BY r.created_at DESC, r.recipe_id DESC`, "%"+escapeLike(strings.TrimSpace(query))+"%")
}

// SearchHistory returns the user's cooked or liked recipes, most recent first.
func (s *SQLiteStore) SearchHistory(ctx context.Context, userID int64, filter HistoryFilter) ([]domain.RecipeSummary, error) {
	cond := "h.cooked = 1"
	if filter == FilterLiked {
		cond = "h.liked = 1"
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.querySummaries(ctx, `SELECT`+summaryColumns+`
		FROM recipes r JOIN user_recipe_history h ON h.recipe_id = r.recipe_id
		WHERE h.user_id = ? AND `+cond+`
		ORDER BY COALESCE(h.cooked_date, h.added_at) DESC, h.history_id DESC`, userID)
}

func (s *SQLiteStore) querySummaries(ctx context.Context, query string, args ...any) ([]domain.RecipeSummary, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying recipes: %w", err)
	}
	defer rows.Close()

	var out []domain.RecipeSummary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner, extra ...any) (domain.RecipeSummary, error) {
	var (
		sum     domain.RecipeSummary
		id      int64
		created string
	)
	dest := append([]any{&id, &sum.Name, &sum.MealType, &sum.CookingTime, &sum.SkillLevel, &created, &sum.TotalSteps}, extra...)
	if err := row.Scan(dest...); err != nil {
		return sum, fmt.Errorf("scanning recipe: %w", err)
	}
	sum.ID = strconv.FormatInt(id, 10)
	sum.CreatedAt = parseStamp(created)
	return sum, nil
}

// ── History ──────────────────────────────────────────────────────

// MarkCooked records that the user cooked the recipe, and whether they
// liked it.
func (s *SQLiteStore) MarkCooked(ctx context.Context, userID int64, recipeID string, liked bool) error {
	rid, err := s.requireRecipe(ctx, recipeID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.stamp()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_recipe_history (user_id, recipe_id, cooked, liked, added_at, cooked_date)
		VALUES (?, ?, 1, ?, ?, ?)
		ON CONFLICT(user_id, recipe_id) DO UPDATE SET
			cooked = 1,
			liked = excluded.liked,
			cooked_date = excluded.cooked_date`,
		userID, rid, boolInt(liked), now, now)
	if err != nil {
		return fmt.Errorf("marking recipe %s cooked: %w", recipeID, err)
	}
	return nil
}

// RecordProgress stores the last step the user completed (1-based).
func (s *SQLiteStore) RecordProgress(ctx context.Context, userID int64, recipeID string, lastStep int) error {
	rid, err := s.requireRecipe(ctx, recipeID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_recipe_history (user_id, recipe_id, added_at, last_step_completed)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, recipe_id) DO UPDATE SET
			last_step_completed = excluded.last_step_completed`,
		userID, rid, s.stamp(), lastStep)
	if err != nil {
		return fmt.Errorf("recording progress on recipe %s: %w", recipeID, err)
	}
	return nil
}

// History returns every recipe in the user's history, most recent first.
func (s *SQLiteStore) History(ctx context.Context, userID int64) ([]domain.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT`+summaryColumns+`,
		h.cooked, h.liked, h.cooked_date, h.last_step_completed
		FROM recipes r JOIN user_recipe_history h ON h.recipe_id = r.recipe_id
		WHERE h.user_id = ?
		ORDER BY COALESCE(h.cooked_date, h.added_at) DESC, h.history_id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []domain.HistoryEntry
	for rows.Next() {
		var (
			e             domain.HistoryEntry
			cooked, liked int
			cookedAt      sql.NullString
		)
		sum, err := scanSummary(rows, &cooked, &liked, &cookedAt, &e.LastStepCompleted)
		if err != nil {
			return nil, err
		}
		e.Recipe = sum
		e.Cooked = cooked != 0
		e.Liked = liked != 0
		if cookedAt.Valid {
			e.CookedAt = parseStamp(cookedAt.String)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Stats summarizes the user's history.
func (s *SQLiteStore) Stats(ctx context.Context, userID int64) (domain.UserStats, error) {
	history, err := s.History(ctx, userID)
	if err != nil {
		return domain.UserStats{}, err
	}
	return ComputeStats(history), nil
}

// ComputeStats derives totals and rates from history entries. The
// completion rate is cooked/total and the like rate is liked/cooked,
// both as percentages rounded to one decimal.
func ComputeStats(history []domain.HistoryEntry) domain.UserStats {
	var st domain.UserStats
	st.Total = len(history)
	for _, e := range history {
		if e.Cooked {
			st.Cooked++
		}
		if e.Liked {
			st.Liked++
		}
	}
	if st.Total > 0 {
		st.CompletionRate = round1(float64(st.Cooked) / float64(st.Total) * 100)
	}
	if st.Cooked > 0 {
		st.LikeRate = round1(float64(st.Liked) / float64(st.Cooked) * 100)
	}
	return st
}

// ── Profiles ─────────────────────────────────────────────────────

// SaveProfile stores the user's learning model, replacing any previous one.
func (s *SQLiteStore) SaveProfile(ctx context.Context, userID int64, m *domain.UserModel) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_profiles (user_id, model, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET model = excluded.model, updated_at = excluded.updated_at`,
		userID, string(data), s.stamp())
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

// LoadProfile returns the stored learning model, or ErrNotFound.
func (s *SQLiteStore) LoadProfile(ctx context.Context, userID int64) (*domain.UserModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data string
	err := s.db.QueryRowContext(ctx, `SELECT model FROM user_profiles WHERE user_id = ?`, userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}

	m := domain.NewUserModel()
	if err := json.Unmarshal([]byte(data), m); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}
	if m.QuestionPatterns == nil {
		m.QuestionPatterns = make(map[domain.IntentType]int)
	}
	return m, nil
}

// ── Helpers ──────────────────────────────────────────────────────

func (s *SQLiteStore) requireRecipe(ctx context.Context, id string) (int64, error) {
	rid, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, domain.ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var one int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM recipes WHERE recipe_id = ?`, rid).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("checking recipe %s: %w", id, err)
	}
	return rid, nil
}

func parseStamp(s string) time.Time {
	t, err := time.Parse(tsLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
