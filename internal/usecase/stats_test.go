package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"EmotionalDiary/internal/domain"
	"EmotionalDiary/internal/infrastructure/storage"
)

func seed(t *testing.T, store *storage.MemoryRepository, entries ...domain.JournalEntry) {
	t.Helper()
	for _, entry := range entries {
		if _, err := store.Insert(context.Background(), entry); err != nil {
			t.Fatalf("seed %v: %v", entry.CreatedAt, err)
		}
	}
}

func at(month time.Month, day, hour int) time.Time {
	return time.Date(2025, month, day, hour, 0, 0, 0, bogota)
}

func newAggregator(store *storage.MemoryRepository, now time.Time) *StatsAggregator {
	clock := &fakeClock{now: now}
	return NewStatsAggregator(StatsDeps{Store: store, Clock: clock.Now, Location: bogota})
}

func TestWeeklyStatsSingleEntry(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryRepository(bogota)
	seed(t, store, domain.JournalEntry{UserID: 1, Content: "x", CreatedAt: at(time.January, 17, 10), StressLevel: 8})

	stats, err := newAggregator(store, at(time.January, 20, 15)).WeeklyStats(context.Background(), 1)
	if err != nil {
		t.Fatalf("WeeklyStats: %v", err)
	}

	if stats.AverageStress != 8.0 || stats.PreviousWeekStress != 0.0 || stats.AverageSleep != 0.0 {
		t.Fatalf("unexpected averages: %+v", stats)
	}
	if stats.MainWorry != NoDominantWorry {
		t.Fatalf("expected placeholder worry, got %q", stats.MainWorry)
	}

	if len(stats.StressHistory) != 7 || len(stats.SleepStressData) != 7 {
		t.Fatalf("expected 7-point series, got %d and %d", len(stats.StressHistory), len(stats.SleepStressData))
	}
	if stats.StressHistory[0].Date != "2025-01-14" || stats.StressHistory[6].Date != "2025-01-20" {
		t.Fatalf("series must span today-6..today, got %s..%s", stats.StressHistory[0].Date, stats.StressHistory[6].Date)
	}
	for i, point := range stats.StressHistory {
		want := 0.0
		if i == 3 {
			want = 8.0
		}
		if point.Value != want {
			t.Fatalf("point %d (%s): want %.1f, got %.1f", i, point.Date, want, point.Value)
		}
	}
	if len(stats.WorriesDistribution) != 0 {
		t.Fatalf("expected empty histogram, got %+v", stats.WorriesDistribution)
	}
}

func TestWeeklyStatsPartitionsAndRanks(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryRepository(bogota)
	seed(t, store,
		domain.JournalEntry{UserID: 1, CreatedAt: at(time.December, 1, 12).AddDate(-1, 0, 0), MainWorry: "Dinero"},
		domain.JournalEntry{UserID: 1, CreatedAt: at(time.January, 8, 12), StressLevel: 4, MainWorry: "Dinero"},
		domain.JournalEntry{UserID: 1, CreatedAt: at(time.January, 15, 12), StressLevel: 6, SleepHours: 7, MainWorry: NoWorrySentinel},
		domain.JournalEntry{UserID: 1, CreatedAt: at(time.January, 16, 12), SleepHours: 5, MainWorry: NoWorrySentinel},
		domain.JournalEntry{UserID: 1, CreatedAt: at(time.January, 19, 12), StressLevel: 8, MainWorry: "Trabajo"},
		domain.JournalEntry{UserID: 1, CreatedAt: at(time.January, 20, 9), StressLevel: 4, SleepHours: 6, MainWorry: "  "},
		domain.JournalEntry{UserID: 2, CreatedAt: at(time.January, 19, 12), StressLevel: 10, MainWorry: "Salud"},
	)

	stats, err := newAggregator(store, at(time.January, 20, 12)).WeeklyStats(context.Background(), 1)
	if err != nil {
		t.Fatalf("WeeklyStats: %v", err)
	}

	if stats.AverageStress != 6.0 || stats.AverageSleep != 6.0 || stats.PreviousWeekStress != 4.0 {
		t.Fatalf("unexpected averages: %+v", stats)
	}
	if stats.MainWorry != "Dinero" {
		t.Fatalf("dominant worry must ignore the sentinel and use all history, got %q", stats.MainWorry)
	}

	wantStress := []float64{0, 6, 0, 0, 0, 8, 4}
	wantSleep := []float64{0, 7, 5, 0, 0, 0, 6}
	for i := range wantStress {
		if stats.StressHistory[i].Value != wantStress[i] {
			t.Fatalf("stress point %d: want %.1f, got %.1f", i, wantStress[i], stats.StressHistory[i].Value)
		}
		pair := stats.SleepStressData[i]
		if pair.Sleep != wantSleep[i] || pair.Stress != wantStress[i] || pair.Date != stats.StressHistory[i].Date {
			t.Fatalf("sleep/stress point %d: unexpected %+v", i, pair)
		}
	}

	want := []domain.WorryCount{{Category: NoWorrySentinel, Count: 2}, {Category: "Trabajo", Count: 1}}
	if len(stats.WorriesDistribution) != len(want) {
		t.Fatalf("expected %+v, got %+v", want, stats.WorriesDistribution)
	}
	for i := range want {
		if stats.WorriesDistribution[i] != want[i] {
			t.Fatalf("expected %+v, got %+v", want, stats.WorriesDistribution)
		}
	}
}

func TestWorryHistogramStableTies(t *testing.T) {
	t.Parallel()

	entries := []domain.JournalEntry{
		{MainWorry: "Salud"}, {MainWorry: "Trabajo"}, {MainWorry: "Trabajo"},
		{MainWorry: "Familia"}, {MainWorry: "Salud"}, {MainWorry: ""}, {MainWorry: "Estudios"},
	}
	got := worryHistogram(entries)
	want := []string{"Salud", "Trabajo", "Familia", "Estudios"}
	if len(got) != len(want) {
		t.Fatalf("unexpected histogram %+v", got)
	}
	total := 0
	for i, bucket := range got {
		if bucket.Category != want[i] {
			t.Fatalf("position %d: want %s, got %+v", i, want[i], got)
		}
		total += bucket.Count
	}
	if total != 6 {
		t.Fatalf("counts must sum to labelled entries, got %d", total)
	}
}

func TestWeeklyStatsStoreFailure(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: at(time.January, 20, 12)}
	aggregator := NewStatsAggregator(StatsDeps{Store: brokenStore{storage.NewMemoryRepository(bogota)}, Clock: clock.Now})

	_, err := aggregator.WeeklyStats(context.Background(), 1)
	if !errors.Is(err, domain.ErrInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
