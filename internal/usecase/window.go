package usecase

import (
	"sync"
	"time"

	"EmotionalDiary/internal/domain"
)

// dayStart returns local midnight of the calendar day containing t.
func dayStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// dayBounds returns the [start, end) interval of the local calendar day
// containing t. AddDate keeps midnights aligned across DST changes.
func dayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	start := dayStart(t, loc)
	return start, start.AddDate(0, 0, 1)
}

func dayLabel(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(domain.DateLayout)
}

func orUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

func orNow(clock func() time.Time) func() time.Time {
	if clock == nil {
		return time.Now
	}
	return clock
}

// userLocks hands out one mutex per user id. Entries are dropped once no
// goroutine holds or waits for them.
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: map[int64]*userLock{}}
}

// lock blocks until userID's mutex is held and returns its release func.
func (l *userLocks) lock(userID int64) func() {
	l.mu.Lock()
	entry, ok := l.locks[userID]
	if !ok {
		entry = &userLock{}
		l.locks[userID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}
