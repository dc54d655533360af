package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"EmotionalDiary/internal/domain"
)

const maxBodyBytes = 64 << 10

// entryRequest is the create/update payload.
type entryRequest struct {
	EntryText   *string `json:"entryText"`
	MoodRating  *int    `json:"moodRating"`
	StressLevel *int    `json:"stressLevel"`
	SleepHours  *int    `json:"sleepHours"`
	MainWorry   *string `json:"mainWorry"`
}

// entryResponse is the public shape of a journal entry.
type entryResponse struct {
	ID                 int64     `json:"id"`
	UserID             int64     `json:"userId"`
	EntryText          string    `json:"entryText"`
	EntryDate          time.Time `json:"entryDate"`
	MoodRating         int       `json:"moodRating,omitempty"`
	StressLevel        int       `json:"stressLevel,omitempty"`
	SleepHours         int       `json:"sleepHours,omitempty"`
	MainWorry          string    `json:"mainWorry,omitempty"`
	DetectedEmotion    string    `json:"detectedEmotion"`
	EmotionalIntensity int       `json:"emotionalIntensity"`
	KeyWords           []string  `json:"keyWords"`
	AISummary          string    `json:"aiSummary"`
}

func toResponse(e domain.JournalEntry) entryResponse {
	keywords := e.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return entryResponse{
		ID:                 e.ID,
		UserID:             e.UserID,
		EntryText:          e.Content,
		EntryDate:          e.CreatedAt,
		MoodRating:         e.MoodRating,
		StressLevel:        e.StressLevel,
		SleepHours:         e.SleepHours,
		MainWorry:          e.MainWorry,
		DetectedEmotion:    e.DetectedEmotion,
		EmotionalIntensity: e.Intensity,
		KeyWords:           keywords,
		AISummary:          e.Summary,
	}
}

// validate enforces the field bounds and returns the draft or the list of
// violations.
func (req entryRequest) validate() (domain.Draft, []string) {
	var problems []string

	text := ""
	if req.EntryText == nil || strings.TrimSpace(*req.EntryText) == "" {
		problems = append(problems, "El contenido del diario (entryText) no puede estar vacío.")
	} else {
		text = *req.EntryText
		if n := utf8.RuneCountInString(text); n < 50 || n > 5000 {
			problems = append(problems, "El contenido debe tener entre 50 y 5000 caracteres.")
		}
	}

	mood := boundedInt(req.MoodRating, 1, 10, "moodRating", &problems)
	stress := boundedInt(req.StressLevel, 1, 10, "stressLevel", &problems)
	sleep := boundedInt(req.SleepHours, 1, 16, "sleepHours", &problems)

	worry := ""
	if req.MainWorry == nil || strings.TrimSpace(*req.MainWorry) == "" {
		problems = append(problems, "La principal preocupación (mainWorry) no puede estar vacía.")
	} else {
		worry = *req.MainWorry
		if n := utf8.RuneCountInString(worry); n < 5 || n > 255 {
			problems = append(problems, "La preocupación debe tener entre 5 y 255 caracteres.")
		}
	}

	return domain.Draft{
		Content:     text,
		MoodRating:  mood,
		StressLevel: stress,
		SleepHours:  sleep,
		MainWorry:   worry,
	}, problems
}

func boundedInt(v *int, lo, hi int, field string, problems *[]string) int {
	if v == nil {
		*problems = append(*problems, fmt.Sprintf("El campo %s es obligatorio.", field))
		return 0
	}
	if *v < lo || *v > hi {
		*problems = append(*problems, fmt.Sprintf("El campo %s debe estar entre %d y %d.", field, lo, hi))
	}
	return *v
}

// decodeDraft reads and validates the body; it writes the 400 reply itself.
func decodeDraft(w http.ResponseWriter, r *http.Request) (domain.Draft, bool) {
	var req entryRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "El cuerpo de la solicitud no es un JSON válido.")
		return domain.Draft{}, false
	}
	draft, problems := req.validate()
	if len(problems) > 0 {
		writeError(w, http.StatusBadRequest, strings.Join(problems, " "))
		return domain.Draft{}, false
	}
	return draft, true
}

func entryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "El identificador de la entrada no es válido.")
		return 0, false
	}
	return id, true
}

func (s *Server) createEntry(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFrom(r.Context())
	draft, ok := decodeDraft(w, r)
	if !ok {
		return
	}

	entry, err := s.entries.Create(r.Context(), userID, draft)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(entry))
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFrom(r.Context())
	entries, err := s.entries.List(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getEntry(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFrom(r.Context())
	id, ok := entryID(w, r)
	if !ok {
		return
	}

	entry, err := s.entries.Get(r.Context(), userID, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(entry))
}

func (s *Server) updateEntry(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFrom(r.Context())
	id, ok := entryID(w, r)
	if !ok {
		return
	}
	draft, ok := decodeDraft(w, r)
	if !ok {
		return
	}

	entry, err := s.entries.Update(r.Context(), userID, id, draft)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(entry))
}

func (s *Server) weeklyStats(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFrom(r.Context())
	stats, err := s.stats.WeeklyStats(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) getRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFrom(r.Context())
	items, err := s.recommendations.Recommendations(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if items == nil {
		items = []domain.RecommendationItem{}
	}
	writeJSON(w, http.StatusOK, items)
}
