package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"EmotionalDiary/internal/domain"
	"EmotionalDiary/internal/ports"
)

// MemoryRepository keeps entries in process memory. It enforces the same
// one-entry-per-user-per-day constraint as the Postgres schema.
type MemoryRepository struct {
	mu      sync.RWMutex
	loc     *time.Location
	nextID  int64
	entries map[int64]domain.JournalEntry
}

var _ ports.EntryStore = (*MemoryRepository)(nil)

// NewMemoryRepository builds an empty store; loc defines calendar days.
func NewMemoryRepository(loc *time.Location) *MemoryRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &MemoryRepository{loc: loc, entries: map[int64]domain.JournalEntry{}}
}

// Insert stores a new entry and assigns its ID.
func (r *MemoryRepository) Insert(_ context.Context, entry domain.JournalEntry) (domain.JournalEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	day := dayKey(entry.CreatedAt, r.loc)
	for _, existing := range r.entries {
		if existing.UserID == entry.UserID && dayKey(existing.CreatedAt, r.loc) == day {
			return domain.JournalEntry{}, fmt.Errorf("insert entry for user %d on %s: %w", entry.UserID, day, domain.ErrDuplicateEntry)
		}
	}

	r.nextID++
	entry.ID = r.nextID
	entry = clone(entry)
	r.entries[entry.ID] = entry
	return clone(entry), nil
}

// Update overwrites the mutable fields of a stored entry.
func (r *MemoryRepository) Update(_ context.Context, entry domain.JournalEntry) (domain.JournalEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.entries[entry.ID]
	if !ok {
		return domain.JournalEntry{}, fmt.Errorf("update entry %d: %w", entry.ID, domain.ErrNotFound)
	}

	entry.UserID = stored.UserID
	entry.CreatedAt = stored.CreatedAt
	entry = clone(entry)
	r.entries[entry.ID] = entry
	return clone(entry), nil
}

// GetByID returns a single entry.
func (r *MemoryRepository) GetByID(_ context.Context, id int64) (domain.JournalEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[id]
	if !ok {
		return domain.JournalEntry{}, fmt.Errorf("get entry %d: %w", id, domain.ErrNotFound)
	}
	return clone(entry), nil
}

// ListByUser returns the user's entries, newest first.
func (r *MemoryRepository) ListByUser(_ context.Context, userID int64) ([]domain.JournalEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := r.filter(func(e domain.JournalEntry) bool { return e.UserID == userID })
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// ListByUserInRange returns entries created in [start, end), oldest first.
func (r *MemoryRepository) ListByUserInRange(_ context.Context, userID int64, start, end time.Time) ([]domain.JournalEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.inRange(userID, start, end), nil
}

// TopFrequentValues ranks distinct non-blank values of field by count; ties
// keep the order in which values first appeared.
func (r *MemoryRepository) TopFrequentValues(_ context.Context, userID int64, field ports.Field, exclude []string, limit int) ([]string, error) {
	value, err := fieldAccessor(field)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	entries := r.inRange(userID, time.Time{}, time.Time{})
	r.mu.RUnlock()

	skip := make(map[string]struct{}, len(exclude))
	for _, v := range exclude {
		skip[v] = struct{}{}
	}

	counts := map[string]int{}
	var order []string
	for _, entry := range entries {
		v := value(entry)
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, excluded := skip[v]; excluded {
			continue
		}
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if limit > 0 && len(order) > limit {
		order = order[:limit]
	}
	return order, nil
}

// inRange returns the user's entries oldest first; a zero bound is open.
// Callers must hold the lock.
func (r *MemoryRepository) inRange(userID int64, start, end time.Time) []domain.JournalEntry {
	result := r.filter(func(e domain.JournalEntry) bool {
		if e.UserID != userID {
			return false
		}
		if !start.IsZero() && e.CreatedAt.Before(start) {
			return false
		}
		if !end.IsZero() && !e.CreatedAt.Before(end) {
			return false
		}
		return true
	})
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

func (r *MemoryRepository) filter(keep func(domain.JournalEntry) bool) []domain.JournalEntry {
	result := make([]domain.JournalEntry, 0)
	for _, entry := range r.entries {
		if keep(entry) {
			result = append(result, clone(entry))
		}
	}
	return result
}

func fieldAccessor(field ports.Field) (func(domain.JournalEntry) string, error) {
	switch field {
	case ports.FieldMainWorry:
		return func(e domain.JournalEntry) string { return e.MainWorry }, nil
	case ports.FieldDetectedEmotion:
		return func(e domain.JournalEntry) string { return e.DetectedEmotion }, nil
	default:
		return nil, fmt.Errorf("unsupported frequency field %q", field)
	}
}

func clone(entry domain.JournalEntry) domain.JournalEntry {
	entry.Keywords = append([]string(nil), entry.Keywords...)
	return entry
}

func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(domain.DateLayout)
}
