package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"EmotionalDiary/internal/domain"
	"EmotionalDiary/internal/infrastructure/storage"
	"EmotionalDiary/internal/ports"
)

func newEngine(store ports.EntryStore, generator *fakeGenerator, now time.Time) *RecommendationEngine {
	clock := &fakeClock{now: now}
	return NewRecommendationEngine(RecommendationDeps{
		Store:     store,
		Generator: generator,
		Clock:     clock.Now,
		Location:  bogota,
	})
}

func TestRecommendationsWithoutEntries(t *testing.T) {
	t.Parallel()

	generator := &fakeGenerator{items: []domain.RecommendationItem{
		{Title: "Camina", Priority: "HIGH"},
		{Title: "Respira"},
		{Title: "Duerme", Priority: "urgent"},
	}}
	engine := newEngine(storage.NewMemoryRepository(bogota), generator, at(time.January, 20, 10))

	items, err := engine.Recommendations(context.Background(), 1)
	if err != nil {
		t.Fatalf("Recommendations: %v", err)
	}
	if generator.LastContext() != emptyContext {
		t.Fatalf("expected generic context, got %q", generator.LastContext())
	}

	wantPriority := []domain.Priority{domain.PriorityHigh, domain.PriorityMedium, domain.PriorityMedium}
	if len(items) != len(wantPriority) {
		t.Fatalf("expected %d items, got %d", len(wantPriority), len(items))
	}
	seen := map[string]bool{}
	for i, item := range items {
		if item.Priority != wantPriority[i] {
			t.Fatalf("item %d: want priority %s, got %s", i, wantPriority[i], item.Priority)
		}
		if item.ID == "" || seen[item.ID] {
			t.Fatalf("item %d: expected a fresh id, got %q", i, item.ID)
		}
		seen[item.ID] = true
	}
}

func TestRecommendationsContext(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryRepository(bogota)
	seed(t, store,
		domain.JournalEntry{UserID: 1, CreatedAt: at(time.January, 12, 23), MoodRating: 1, StressLevel: 10, MainWorry: "Fuera", Summary: "fuera"},
		domain.JournalEntry{UserID: 1, CreatedAt: at(time.January, 13, 8), MoodRating: 6, StressLevel: 4, MainWorry: "Trabajo", Summary: "S1"},
		domain.JournalEntry{UserID: 1, CreatedAt: at(time.January, 15, 8), MoodRating: 8, MainWorry: "Salud"},
		domain.JournalEntry{UserID: 1, CreatedAt: at(time.January, 18, 8), StressLevel: 6, MainWorry: "Trabajo", Summary: "S3"},
	)
	generator := &fakeGenerator{items: []domain.RecommendationItem{{Title: "Camina", Priority: "low"}}}

	items, err := newEngine(store, generator, at(time.January, 20, 10)).Recommendations(context.Background(), 1)
	if err != nil {
		t.Fatalf("Recommendations: %v", err)
	}
	if len(items) != 1 || items[0].Priority != domain.PriorityLow {
		t.Fatalf("unexpected items: %+v", items)
	}

	want := "Basado en tus entradas recientes (últimos 7 días):" +
		"\n- Tu ánimo promedio ha sido de 7.0/10." +
		"\n- Tu nivel de estrés promedio ha sido de 5.0/10." +
		"\n- Tu principal preocupación ha sido: Trabajo." +
		"\n- Resúmenes de IA de tus entradas: (2025-01-13): S1; (2025-01-18): S3"
	if got := generator.LastContext(); got != want {
		t.Fatalf("unexpected context:\n%s\nwant:\n%s", got, want)
	}
}

func TestRecommendationsContextDefaults(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryRepository(bogota)
	seed(t, store, domain.JournalEntry{UserID: 1, CreatedAt: at(time.January, 19, 8)})
	generator := &fakeGenerator{}

	if _, err := newEngine(store, generator, at(time.January, 20, 10)).Recommendations(context.Background(), 1); err != nil {
		t.Fatalf("Recommendations: %v", err)
	}

	want := "Basado en tus entradas recientes (últimos 7 días):" +
		"\n- Tu ánimo promedio ha sido de 3.0/10." +
		"\n- Tu nivel de estrés promedio ha sido de 5.0/10." +
		"\n- Tu principal preocupación ha sido: ninguna preocupación específica."
	if got := generator.LastContext(); got != want {
		t.Fatalf("unexpected context:\n%s\nwant:\n%s", got, want)
	}
}

func TestRecommendationsSwallowProviderFailure(t *testing.T) {
	t.Parallel()

	generator := &fakeGenerator{err: fmt.Errorf("%w: boom", domain.ErrExternalService)}
	items, err := newEngine(storage.NewMemoryRepository(bogota), generator, at(time.January, 20, 10)).
		Recommendations(context.Background(), 1)
	if err != nil {
		t.Fatalf("provider failures must not surface, got %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", items)
	}
}

func TestRecommendationsStoreFailure(t *testing.T) {
	t.Parallel()

	engine := newEngine(brokenStore{storage.NewMemoryRepository(bogota)}, &fakeGenerator{}, at(time.January, 20, 10))
	if _, err := engine.Recommendations(context.Background(), 1); !errors.Is(err, domain.ErrInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
