package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"EmotionalDiary/internal/domain"
	"EmotionalDiary/internal/ports"
)

const (
	entriesTable      = "diary_entries"
	uniqueViolation   = "23505"
	userDayConstraint = "diary_entries_user_day_idx"
)

var entryColumns = []string{
	"id", "user_id", "content", "created_at",
	"user_mood_rating", "user_stress_level", "user_sleep_hours", "main_worry",
	"ai_emotion", "ai_intensity", "ai_summary", "ai_keywords",
}

var frequencyColumns = map[ports.Field]string{
	ports.FieldMainWorry:       "main_worry",
	ports.FieldDetectedEmotion: "ai_emotion",
}

// PostgresRepository persists journal entries into Postgres.
type PostgresRepository struct {
	db  *sql.DB
	loc *time.Location
	sb  sq.StatementBuilderType
}

var _ ports.EntryStore = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation; loc defines the
// calendar day stored alongside each entry.
func NewPostgresRepository(db *sql.DB, loc *time.Location) *PostgresRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &PostgresRepository{
		db:  db,
		loc: loc,
		sb:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Insert stores a new entry. The (user_id, entry_day) unique index turns a
// second entry on the same day into domain.ErrDuplicateEntry.
func (r *PostgresRepository) Insert(ctx context.Context, entry domain.JournalEntry) (domain.JournalEntry, error) {
	query, args, err := r.sb.Insert(entriesTable).
		Columns(
			"user_id", "content", "created_at", "entry_day",
			"user_mood_rating", "user_stress_level", "user_sleep_hours", "main_worry",
			"ai_emotion", "ai_intensity", "ai_summary", "ai_keywords",
		).
		Values(
			entry.UserID, entry.Content, entry.CreatedAt, dayKey(entry.CreatedAt, r.loc),
			nullInt(entry.MoodRating), nullInt(entry.StressLevel), nullInt(entry.SleepHours), nullString(entry.MainWorry),
			nullString(entry.DetectedEmotion), nullInt(entry.Intensity), nullString(entry.Summary), pq.Array(keywords(entry.Keywords)),
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return domain.JournalEntry{}, fmt.Errorf("build insert: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&entry.ID); err != nil {
		if isUniqueViolation(err) {
			return domain.JournalEntry{}, fmt.Errorf("insert entry for user %d: %w", entry.UserID, domain.ErrDuplicateEntry)
		}
		return domain.JournalEntry{}, fmt.Errorf("insert entry: %w", err)
	}

	return entry, nil
}

// Update overwrites content, metrics and analysis of an existing entry.
func (r *PostgresRepository) Update(ctx context.Context, entry domain.JournalEntry) (domain.JournalEntry, error) {
	query, args, err := r.sb.Update(entriesTable).
		SetMap(map[string]any{
			"content":           entry.Content,
			"user_mood_rating":  nullInt(entry.MoodRating),
			"user_stress_level": nullInt(entry.StressLevel),
			"user_sleep_hours":  nullInt(entry.SleepHours),
			"main_worry":        nullString(entry.MainWorry),
			"ai_emotion":        nullString(entry.DetectedEmotion),
			"ai_intensity":      nullInt(entry.Intensity),
			"ai_summary":        nullString(entry.Summary),
			"ai_keywords":       pq.Array(keywords(entry.Keywords)),
			"updated_at":        sq.Expr("NOW()"),
		}).
		Where(sq.Eq{"id": entry.ID}).
		Suffix("RETURNING user_id, created_at").
		ToSql()
	if err != nil {
		return domain.JournalEntry{}, fmt.Errorf("build update: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&entry.UserID, &entry.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.JournalEntry{}, fmt.Errorf("update entry %d: %w", entry.ID, domain.ErrNotFound)
		}
		return domain.JournalEntry{}, fmt.Errorf("update entry %d: %w", entry.ID, err)
	}

	return entry, nil
}

// GetByID returns a single entry.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (domain.JournalEntry, error) {
	query, args, err := r.sb.Select(entryColumns...).
		From(entriesTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.JournalEntry{}, fmt.Errorf("build select: %w", err)
	}

	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.JournalEntry{}, fmt.Errorf("get entry %d: %w", id, domain.ErrNotFound)
		}
		return domain.JournalEntry{}, fmt.Errorf("get entry %d: %w", id, err)
	}
	return entry, nil
}

// ListByUser returns the user's entries, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]domain.JournalEntry, error) {
	return r.list(ctx, r.sb.Select(entryColumns...).
		From(entriesTable).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC"))
}

// ListByUserInRange returns entries created in [start, end), oldest first.
func (r *PostgresRepository) ListByUserInRange(ctx context.Context, userID int64, start, end time.Time) ([]domain.JournalEntry, error) {
	return r.list(ctx, r.sb.Select(entryColumns...).
		From(entriesTable).
		Where(sq.Eq{"user_id": userID}).
		Where(sq.GtOrEq{"created_at": start}).
		Where(sq.Lt{"created_at": end}).
		OrderBy("created_at ASC", "id ASC"))
}

// TopFrequentValues ranks distinct non-blank values of field by count.
func (r *PostgresRepository) TopFrequentValues(ctx context.Context, userID int64, field ports.Field, exclude []string, limit int) ([]string, error) {
	column, ok := frequencyColumns[field]
	if !ok {
		return nil, fmt.Errorf("unsupported frequency field %q", field)
	}

	builder := r.sb.Select(column).
		From(entriesTable).
		Where(sq.Eq{"user_id": userID}).
		Where(sq.NotEq{column: nil}).
		Where(sq.Expr("TRIM(" + column + ") <> ''"))
	if len(exclude) > 0 {
		builder = builder.Where(sq.NotEq{column: exclude})
	}
	builder = builder.GroupBy(column).OrderBy("COUNT(*) DESC", "MIN(created_at) ASC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build frequency query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query frequent %s: %w", column, err)
	}

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan %s: %w", column, err)
		}
		values = append(values, v)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return values, nil
}

func (r *PostgresRepository) list(ctx context.Context, builder sq.SelectBuilder) ([]domain.JournalEntry, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}

	entries := make([]domain.JournalEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (domain.JournalEntry, error) {
	var (
		entry                          domain.JournalEntry
		mood, stress, sleep, intensity sql.NullInt64
		mainWorry, emotion, summary    sql.NullString
		kw                             pq.StringArray
	)

	err := row.Scan(
		&entry.ID, &entry.UserID, &entry.Content, &entry.CreatedAt,
		&mood, &stress, &sleep, &mainWorry,
		&emotion, &intensity, &summary, &kw,
	)
	if err != nil {
		return domain.JournalEntry{}, err
	}

	entry.MoodRating = int(mood.Int64)
	entry.StressLevel = int(stress.Int64)
	entry.SleepHours = int(sleep.Int64)
	entry.MainWorry = mainWorry.String
	entry.DetectedEmotion = emotion.String
	entry.Intensity = int(intensity.Int64)
	entry.Summary = summary.String
	entry.Keywords = []string(kw)
	return entry, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == uniqueViolation && (pqErr.Constraint == "" || pqErr.Constraint == userDayConstraint)
}

func nullInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func keywords(kw []string) []string {
	if kw == nil {
		return []string{}
	}
	return kw
}
