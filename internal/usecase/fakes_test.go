package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"EmotionalDiary/internal/domain"
	"EmotionalDiary/internal/infrastructure/storage"
	"EmotionalDiary/internal/ports"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type fakeAnalyzer struct {
	mu     sync.Mutex
	calls  []string
	result domain.AnalysisResult
	err    error
	delay  time.Duration
}

func (a *fakeAnalyzer) Analyze(_ context.Context, text string) (domain.AnalysisResult, error) {
	if a.delay > 0 {
		time.Sleep(a.delay)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, text)
	return a.result, a.err
}

func (a *fakeAnalyzer) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

type fakeGenerator struct {
	mu       sync.Mutex
	contexts []string
	items    []domain.RecommendationItem
	err      error
}

func (g *fakeGenerator) Recommend(_ context.Context, contextText string) ([]domain.RecommendationItem, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.contexts = append(g.contexts, contextText)
	return g.items, g.err
}

func (g *fakeGenerator) LastContext() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.contexts) == 0 {
		return ""
	}
	return g.contexts[len(g.contexts)-1]
}

var errStoreDown = errors.New("connection refused")

// brokenStore fails every read; writes go to the embedded memory store.
type brokenStore struct{ *storage.MemoryRepository }

func (brokenStore) ListByUserInRange(context.Context, int64, time.Time, time.Time) ([]domain.JournalEntry, error) {
	return nil, errStoreDown
}

func (brokenStore) ListByUser(context.Context, int64) ([]domain.JournalEntry, error) {
	return nil, errStoreDown
}

func (brokenStore) GetByID(context.Context, int64) (domain.JournalEntry, error) {
	return domain.JournalEntry{}, errStoreDown
}

func (brokenStore) TopFrequentValues(context.Context, int64, ports.Field, []string, int) ([]string, error) {
	return nil, errStoreDown
}

func happyAnalysis() domain.AnalysisResult {
	return domain.AnalysisResult{
		Emotion:   "calma",
		Intensity: 5,
		Summary:   "Un día sereno.",
		Keywords:  []string{"paseo", "lectura"},
	}
}
