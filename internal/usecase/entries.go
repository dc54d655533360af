package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"EmotionalDiary/internal/domain"
	"EmotionalDiary/internal/logging"
	"EmotionalDiary/internal/metrics"
	"EmotionalDiary/internal/ports"
)

// EntryDeps wires the driven adapters into the entry orchestrator.
type EntryDeps struct {
	Store    ports.EntryStore
	Analyzer ports.SentimentAnalyzer
	Clock    ports.Clock
	Location *time.Location
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

// EntryOrchestrator owns the entry lifecycle: one analysed entry per user
// per local calendar day.
type EntryOrchestrator struct {
	store    ports.EntryStore
	analyzer ports.SentimentAnalyzer
	clock    ports.Clock
	loc      *time.Location
	logger   *slog.Logger
	metrics  *metrics.Metrics
	locks    *userLocks
}

// NewEntryOrchestrator constructs the orchestrator.
func NewEntryOrchestrator(deps EntryDeps) *EntryOrchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &EntryOrchestrator{
		store:    deps.Store,
		analyzer: deps.Analyzer,
		clock:    orNow(deps.Clock),
		loc:      orUTC(deps.Location),
		logger:   logger,
		metrics:  deps.Metrics,
		locks:    newUserLocks(),
	}
}

// Create analyses and stores the user's entry for today. A second entry on
// the same local day fails with domain.ErrDuplicateEntry.
func (o *EntryOrchestrator) Create(ctx context.Context, userID int64, draft domain.Draft) (entry domain.JournalEntry, err error) {
	defer func() { o.metrics.ObserveEntry("create", entryOutcome(err)) }()

	now := o.clock()
	start, end := dayBounds(now, o.loc)

	// The lock covers check and insert; the store's unique index covers
	// other processes.
	unlock := o.locks.lock(userID)
	defer unlock()

	existing, err := o.store.ListByUserInRange(ctx, userID, start, end)
	if err != nil {
		o.logger.Error("check daily entry", "user_id", userID, "error", err)
		return domain.JournalEntry{}, fmt.Errorf("%w: check daily entry: %w", domain.ErrInternal, err)
	}
	if len(existing) > 0 {
		o.logger.Warn("daily entry already exists", "user_id", userID, "day", dayLabel(now, o.loc), "entry_id", existing[0].ID)
		return domain.JournalEntry{}, fmt.Errorf("user %d on %s: %w", userID, dayLabel(now, o.loc), domain.ErrDuplicateEntry)
	}

	if strings.TrimSpace(draft.Content) == "" {
		return domain.JournalEntry{}, fmt.Errorf("entry content is blank: %w", domain.ErrInvalidInput)
	}

	analysis, err := o.analyze(ctx, draft.Content)
	if err != nil {
		o.logger.Error("analyze new entry", "user_id", userID, "error", err)
		return domain.JournalEntry{}, err
	}

	entry = domain.JournalEntry{UserID: userID, CreatedAt: now}.
		WithDraft(draft).
		WithAnalysis(analysis)

	stored, err := o.store.Insert(ctx, entry)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEntry) {
			o.logger.Warn("daily entry inserted concurrently", "user_id", userID)
			return domain.JournalEntry{}, err
		}
		o.logger.Error("insert entry", "user_id", userID, "error", err)
		return domain.JournalEntry{}, fmt.Errorf("%w: insert entry: %w", domain.ErrInternal, err)
	}

	o.logger.Info("entry created", "user_id", userID, "entry_id", stored.ID, "emotion", stored.DetectedEmotion)
	return stored, nil
}

// Update overwrites the user-reported fields of an entry. Analysis is
// re-run only when the content changed; id, owner and creation time are
// kept.
func (o *EntryOrchestrator) Update(ctx context.Context, userID, entryID int64, draft domain.Draft) (entry domain.JournalEntry, err error) {
	defer func() { o.metrics.ObserveEntry("update", entryOutcome(err)) }()

	stored, err := o.lookup(ctx, entryID)
	if err != nil {
		return domain.JournalEntry{}, err
	}
	if stored.UserID != userID {
		o.logger.Warn("update of foreign entry rejected", "user_id", userID, "entry_id", entryID)
		return domain.JournalEntry{}, fmt.Errorf("entry %d: %w", entryID, domain.ErrForbidden)
	}

	if strings.TrimSpace(draft.Content) == "" {
		return domain.JournalEntry{}, fmt.Errorf("entry content is blank: %w", domain.ErrInvalidInput)
	}

	next := stored.WithDraft(draft)
	reanalysed := draft.Content != stored.Content
	if reanalysed {
		analysis, err := o.analyze(ctx, draft.Content)
		if err != nil {
			o.logger.Error("analyze updated entry", "user_id", userID, "entry_id", entryID, "error", err)
			return domain.JournalEntry{}, err
		}
		next = next.WithAnalysis(analysis)
	}

	saved, err := o.store.Update(ctx, next)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.JournalEntry{}, err
		}
		o.logger.Error("update entry", "entry_id", entryID, "error", err)
		return domain.JournalEntry{}, fmt.Errorf("%w: update entry: %w", domain.ErrInternal, err)
	}

	o.logger.Info("entry updated", "user_id", userID, "entry_id", entryID, "reanalysed", reanalysed)
	return saved, nil
}

// Get returns one of the user's entries. Entries of other users are
// reported as domain.ErrNotFound.
func (o *EntryOrchestrator) Get(ctx context.Context, userID, entryID int64) (domain.JournalEntry, error) {
	entry, err := o.lookup(ctx, entryID)
	if err != nil {
		return domain.JournalEntry{}, err
	}
	if entry.UserID != userID {
		return domain.JournalEntry{}, fmt.Errorf("entry %d: %w", entryID, domain.ErrNotFound)
	}
	return entry, nil
}

// List returns all of the user's entries, newest first.
func (o *EntryOrchestrator) List(ctx context.Context, userID int64) ([]domain.JournalEntry, error) {
	entries, err := o.store.ListByUser(ctx, userID)
	if err != nil {
		o.logger.Error("list entries", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: list entries: %w", domain.ErrInternal, err)
	}
	return entries, nil
}

func (o *EntryOrchestrator) lookup(ctx context.Context, entryID int64) (domain.JournalEntry, error) {
	entry, err := o.store.GetByID(ctx, entryID)
	if err == nil {
		return entry, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return domain.JournalEntry{}, err
	}
	o.logger.Error("load entry", "entry_id", entryID, "error", err)
	return domain.JournalEntry{}, fmt.Errorf("%w: load entry: %w", domain.ErrInternal, err)
}

// analyze calls the provider and guarantees every failure carries
// domain.ErrExternalService.
func (o *EntryOrchestrator) analyze(ctx context.Context, content string) (domain.AnalysisResult, error) {
	result, err := o.analyzer.Analyze(ctx, content)
	if err != nil {
		if errors.Is(err, domain.ErrExternalService) {
			return domain.AnalysisResult{}, err
		}
		return domain.AnalysisResult{}, fmt.Errorf("%w: %w", domain.ErrExternalService, err)
	}
	if strings.TrimSpace(result.Emotion) == "" {
		return domain.AnalysisResult{}, fmt.Errorf("%w: analysis has no emotion", domain.ErrExternalService)
	}
	return result, nil
}

func entryOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrDuplicateEntry):
		return "duplicate"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrExternalService):
		return "external_failure"
	default:
		return "error"
	}
}
