package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"EmotionalDiary/internal/domain"
	"EmotionalDiary/internal/logging"
	"EmotionalDiary/internal/ports"
)

const (
	// NoWorrySentinel is the label users pick when nothing worries them.
	NoWorrySentinel = "Ninguna"
	// NoDominantWorry is reported when no worry label qualifies.
	NoDominantWorry = "Ninguna preocupación dominante"

	statsWindowDays = 14
	weekDays        = 7
)

// StatsDeps wires the statistics aggregator.
type StatsDeps struct {
	Store    ports.EntryStore
	Clock    ports.Clock
	Location *time.Location
	Logger   *slog.Logger
}

// StatsAggregator builds weekly summaries from the last fourteen days of entries.
type StatsAggregator struct {
	store  ports.EntryStore
	clock  ports.Clock
	loc    *time.Location
	logger *slog.Logger
}

// NewStatsAggregator constructs the aggregator.
func NewStatsAggregator(deps StatsDeps) *StatsAggregator {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &StatsAggregator{
		store:  deps.Store,
		clock:  orNow(deps.Clock),
		loc:    orUTC(deps.Location),
		logger: logger,
	}
}

// WeeklyStats compares the current week with the previous one and builds
// the seven-day series ending today.
func (s *StatsAggregator) WeeklyStats(ctx context.Context, userID int64) (domain.WeeklyStats, error) {
	now := s.clock().In(s.loc)
	windowStart := now.AddDate(0, 0, -statsWindowDays)
	weekStart := now.AddDate(0, 0, -weekDays)

	// The window closes at now inclusive.
	entries, err := s.store.ListByUserInRange(ctx, userID, windowStart, now.Add(time.Nanosecond))
	if err != nil {
		s.logger.Error("load stats window", "user_id", userID, "error", err)
		return domain.WeeklyStats{}, fmt.Errorf("%w: load stats window: %w", domain.ErrInternal, err)
	}

	var current, previous []domain.JournalEntry
	for _, entry := range entries {
		if entry.CreatedAt.Before(weekStart) {
			previous = append(previous, entry)
		} else {
			current = append(current, entry)
		}
	}

	mainWorry, err := s.dominantWorry(ctx, userID)
	if err != nil {
		return domain.WeeklyStats{}, err
	}

	stressHistory, sleepStress := s.daySeries(current, now)

	return domain.WeeklyStats{
		AverageStress:       mean(current, stressOf),
		PreviousWeekStress:  mean(previous, stressOf),
		AverageSleep:        mean(current, sleepOf),
		MainWorry:           mainWorry,
		StressHistory:       stressHistory,
		SleepStressData:     sleepStress,
		WorriesDistribution: worryHistogram(current),
	}, nil
}

// dominantWorry ranks worry labels over the user's whole history, ignoring
// the "none" sentinel.
func (s *StatsAggregator) dominantWorry(ctx context.Context, userID int64) (string, error) {
	top, err := s.store.TopFrequentValues(ctx, userID, ports.FieldMainWorry, []string{NoWorrySentinel}, 1)
	if err != nil {
		s.logger.Error("rank worries", "user_id", userID, "error", err)
		return "", fmt.Errorf("%w: rank worries: %w", domain.ErrInternal, err)
	}
	if len(top) == 0 {
		return NoDominantWorry, nil
	}
	return top[0], nil
}

func (s *StatsAggregator) daySeries(entries []domain.JournalEntry, now time.Time) ([]domain.StressPoint, []domain.SleepStressPoint) {
	byDay := map[string][]domain.JournalEntry{}
	for _, entry := range entries {
		day := dayLabel(entry.CreatedAt, s.loc)
		byDay[day] = append(byDay[day], entry)
	}

	stress := make([]domain.StressPoint, 0, weekDays)
	sleepStress := make([]domain.SleepStressPoint, 0, weekDays)
	today := dayStart(now, s.loc)
	for offset := weekDays - 1; offset >= 0; offset-- {
		day := today.AddDate(0, 0, -offset).Format(domain.DateLayout)
		dayEntries := byDay[day]
		avgStress := mean(dayEntries, stressOf)

		stress = append(stress, domain.StressPoint{Date: day, Value: avgStress})
		sleepStress = append(sleepStress, domain.SleepStressPoint{
			Date:   day,
			Sleep:  mean(dayEntries, sleepOf),
			Stress: avgStress,
		})
	}
	return stress, sleepStress
}

// worryHistogram counts non-blank labels, the sentinel included. Ties keep
// first-occurrence order.
func worryHistogram(entries []domain.JournalEntry) []domain.WorryCount {
	counts := map[string]int{}
	var order []string
	for _, entry := range entries {
		if strings.TrimSpace(entry.MainWorry) == "" {
			continue
		}
		if counts[entry.MainWorry] == 0 {
			order = append(order, entry.MainWorry)
		}
		counts[entry.MainWorry]++
	}

	result := make([]domain.WorryCount, 0, len(order))
	for _, label := range order {
		result = append(result, domain.WorryCount{Category: label, Count: counts[label]})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Count > result[j].Count
	})
	return result
}

func stressOf(e domain.JournalEntry) int { return e.StressLevel }

func sleepOf(e domain.JournalEntry) int { return e.SleepHours }

func moodOf(e domain.JournalEntry) int { return e.MoodRating }

// mean averages the reported (non-zero) values of a metric; 0 when none.
func mean(entries []domain.JournalEntry, metric func(domain.JournalEntry) int) float64 {
	value, ok := meanOK(entries, metric)
	if !ok {
		return 0
	}
	return value
}

func meanOK(entries []domain.JournalEntry, metric func(domain.JournalEntry) int) (float64, bool) {
	var sum, n int
	for _, entry := range entries {
		if v := metric(entry); v != 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return float64(sum) / float64(n), true
}
