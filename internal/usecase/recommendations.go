package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"EmotionalDiary/internal/domain"
	"EmotionalDiary/internal/logging"
	"EmotionalDiary/internal/ports"
)

const (
	emptyContext = "El usuario no tiene entradas recientes. Sugiere recomendaciones generales para mejorar el bienestar mental."
	noWorryText  = "ninguna preocupación específica"

	// Mid-scale fallbacks used in the prose context only.
	defaultMood   = 3.0
	defaultStress = 5.0
)

// RecommendationDeps wires the recommendation engine.
type RecommendationDeps struct {
	Store     ports.EntryStore
	Generator ports.RecommendationGenerator
	Clock     ports.Clock
	Location  *time.Location
	Logger    *slog.Logger
}

// RecommendationEngine turns the last week of entries into wellness
// suggestions. Provider failures degrade to an empty list.
type RecommendationEngine struct {
	store     ports.EntryStore
	generator ports.RecommendationGenerator
	clock     ports.Clock
	loc       *time.Location
	logger    *slog.Logger
}

// NewRecommendationEngine constructs the engine.
func NewRecommendationEngine(deps RecommendationDeps) *RecommendationEngine {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &RecommendationEngine{
		store:     deps.Store,
		generator: deps.Generator,
		clock:     orNow(deps.Clock),
		loc:       orUTC(deps.Location),
		logger:    logger,
	}
}

// Recommendations returns suggestions for the user. Only a storage failure
// is returned as an error; the result is never nil.
func (e *RecommendationEngine) Recommendations(ctx context.Context, userID int64) ([]domain.RecommendationItem, error) {
	today := dayStart(e.clock(), e.loc)
	start, end := today.AddDate(0, 0, -weekDays), today.AddDate(0, 0, 1)

	entries, err := e.store.ListByUserInRange(ctx, userID, start, end)
	if err != nil {
		e.logger.Error("load recommendation window", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: load recommendation window: %w", domain.ErrInternal, err)
	}

	items, err := e.generator.Recommend(ctx, e.buildContext(entries))
	if err != nil {
		e.logger.Warn("recommendations unavailable", "user_id", userID, "error", err)
		return []domain.RecommendationItem{}, nil
	}

	result := make([]domain.RecommendationItem, 0, len(items))
	for _, item := range items {
		item.ID = uuid.NewString()
		item.Priority = domain.NormalizePriority(strings.ToLower(strings.TrimSpace(string(item.Priority))))
		result = append(result, item)
	}
	return result, nil
}

// buildContext renders the week as the Spanish digest sent to the provider.
func (e *RecommendationEngine) buildContext(entries []domain.JournalEntry) string {
	if len(entries) == 0 {
		return emptyContext
	}

	mood, ok := meanOK(entries, moodOf)
	if !ok {
		mood = defaultMood
	}
	stress, ok := meanOK(entries, stressOf)
	if !ok {
		stress = defaultStress
	}
	worry := noWorryText
	if histogram := worryHistogram(entries); len(histogram) > 0 {
		worry = histogram[0].Category
	}

	var b strings.Builder
	b.WriteString("Basado en tus entradas recientes (últimos 7 días):")
	fmt.Fprintf(&b, "\n- Tu ánimo promedio ha sido de %.1f/10.", mood)
	fmt.Fprintf(&b, "\n- Tu nivel de estrés promedio ha sido de %.1f/10.", stress)
	fmt.Fprintf(&b, "\n- Tu principal preocupación ha sido: %s.", worry)

	var summaries []string
	for _, entry := range entries {
		if strings.TrimSpace(entry.Summary) == "" {
			continue
		}
		summaries = append(summaries, fmt.Sprintf("(%s): %s", dayLabel(entry.CreatedAt, e.loc), entry.Summary))
	}
	if len(summaries) > 0 {
		b.WriteString("\n- Resúmenes de IA de tus entradas: ")
		b.WriteString(strings.Join(summaries, "; "))
	}
	return b.String()
}
