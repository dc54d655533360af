package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"EmotionalDiary/internal/domain"
	"EmotionalDiary/internal/ports"
)

func newMockRepository(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db, time.UTC), mock
}

func TestPostgresInsertReturnsID(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("INSERT INTO diary_entries").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	created := time.Date(2025, time.January, 10, 9, 0, 0, 0, time.UTC)
	entry, err := repo.Insert(context.Background(), domain.JournalEntry{
		UserID:      3,
		Content:     "texto",
		CreatedAt:   created,
		StressLevel: 6,
		Keywords:    []string{"trabajo"},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if entry.ID != 11 || entry.UserID != 3 {
		t.Fatalf("unexpected entry: %+v", entry)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresInsertMapsUniqueViolation(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("INSERT INTO diary_entries").
		WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: userDayConstraint})

	_, err := repo.Insert(context.Background(), domain.JournalEntry{UserID: 3, Content: "x", CreatedAt: time.Now()})
	if !errors.Is(err, domain.ErrDuplicateEntry) {
		t.Fatalf("expected duplicate entry, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresGetAndUpdateNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("SELECT (.+) FROM diary_entries WHERE id = \\$1").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(entryColumns))
	mock.ExpectQuery("UPDATE diary_entries SET").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "created_at"}))

	if _, err := repo.GetByID(context.Background(), 5); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on get, got %v", err)
	}
	if _, err := repo.Update(context.Background(), domain.JournalEntry{ID: 5, Content: "x"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on update, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresListByUserInRangeScansNullableColumns(t *testing.T) {
	repo, mock := newMockRepository(t)

	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 14)
	created := start.AddDate(0, 0, 3)

	rows := sqlmock.NewRows(entryColumns).
		AddRow(int64(1), int64(7), "texto", created, nil, int64(8), nil, "Trabajo", "ansiedad", int64(6), "resumen", "{plazos,jefe}").
		AddRow(int64(2), int64(7), "otro", created.AddDate(0, 0, 1), int64(5), nil, int64(7), nil, nil, nil, nil, "{}")
	mock.ExpectQuery("SELECT (.+) FROM diary_entries WHERE user_id = \\$1 AND created_at >= \\$2 AND created_at < \\$3 ORDER BY created_at ASC, id ASC").
		WithArgs(int64(7), start, end).
		WillReturnRows(rows)

	entries, err := repo.ListByUserInRange(context.Background(), 7, start, end)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	first := entries[0]
	if first.MoodRating != 0 || first.StressLevel != 8 || first.SleepHours != 0 {
		t.Fatalf("unexpected metrics: %+v", first)
	}
	if first.DetectedEmotion != "ansiedad" || first.Intensity != 6 || first.Summary != "resumen" {
		t.Fatalf("unexpected analysis: %+v", first)
	}
	if len(first.Keywords) != 2 || first.Keywords[0] != "plazos" || first.Keywords[1] != "jefe" {
		t.Fatalf("unexpected keywords: %v", first.Keywords)
	}

	second := entries[1]
	if second.MainWorry != "" || second.DetectedEmotion != "" || len(second.Keywords) != 0 {
		t.Fatalf("expected empty optional fields, got %+v", second)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresTopFrequentValues(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("SELECT main_worry FROM diary_entries WHERE user_id = \\$1 AND main_worry IS NOT NULL AND TRIM\\(main_worry\\) <> '' AND main_worry NOT IN \\(\\$2\\) GROUP BY main_worry ORDER BY COUNT\\(\\*\\) DESC, MIN\\(created_at\\) ASC LIMIT 1").
		WithArgs(int64(7), "Ninguna").
		WillReturnRows(sqlmock.NewRows([]string{"main_worry"}).AddRow("Trabajo"))

	values, err := repo.TopFrequentValues(context.Background(), 7, ports.FieldMainWorry, []string{"Ninguna"}, 1)
	if err != nil {
		t.Fatalf("top values: %v", err)
	}
	if len(values) != 1 || values[0] != "Trabajo" {
		t.Fatalf("unexpected values: %v", values)
	}

	if _, err := repo.TopFrequentValues(context.Background(), 7, ports.Field("content"), nil, 1); err == nil {
		t.Fatal("expected error for unsupported field")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresQueryErrorIsWrapped(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("SELECT (.+) FROM diary_entries").WillReturnError(sql.ErrConnDone)

	_, err := repo.ListByUser(context.Background(), 1)
	if !errors.Is(err, sql.ErrConnDone) {
		t.Fatalf("expected wrapped driver error, got %v", err)
	}
	if errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("did not expect not found, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
