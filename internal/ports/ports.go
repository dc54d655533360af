package ports

import (
	"context"
	"time"

	"EmotionalDiary/internal/domain"
)

// Field names a text column that frequency queries can rank.
type Field string

const (
	FieldMainWorry       Field = "main_worry"
	FieldDetectedEmotion Field = "ai_emotion"
)

// EntryStore persists journal entries.
type EntryStore interface {
	// Insert stores a new entry and returns it with its assigned ID. It fails
	// with domain.ErrDuplicateEntry when the user already has an entry on the
	// entry's calendar day.
	Insert(ctx context.Context, entry domain.JournalEntry) (domain.JournalEntry, error)
	// Update overwrites a stored entry; CreatedAt and UserID are never written.
	Update(ctx context.Context, entry domain.JournalEntry) (domain.JournalEntry, error)
	// GetByID fails with domain.ErrNotFound for unknown ids.
	GetByID(ctx context.Context, id int64) (domain.JournalEntry, error)
	// ListByUser returns the user's entries, newest first.
	ListByUser(ctx context.Context, userID int64) ([]domain.JournalEntry, error)
	// ListByUserInRange returns entries created in [start, end), oldest first.
	ListByUserInRange(ctx context.Context, userID int64, start, end time.Time) ([]domain.JournalEntry, error)
	// TopFrequentValues ranks distinct non-blank values of field by
	// occurrence count, skipping values in exclude.
	TopFrequentValues(ctx context.Context, userID int64, field Field, exclude []string, limit int) ([]string, error)
}

// SentimentAnalyzer classifies journal text through the external provider.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, text string) (domain.AnalysisResult, error)
}

// RecommendationGenerator asks the external provider for wellness suggestions.
type RecommendationGenerator interface {
	Recommend(ctx context.Context, contextText string) ([]domain.RecommendationItem, error)
}

// Clock returns the current instant; injected so time windows are testable.
type Clock func() time.Time
