package domain

// DateLayout formats calendar days in day-bucketed series.
const DateLayout = "2006-01-02"

// WeeklyStats summarises the current and previous week of a user's entries.
type WeeklyStats struct {
	AverageStress       float64            `json:"averageStress"`
	PreviousWeekStress  float64            `json:"previousWeekStress"`
	AverageSleep        float64            `json:"averageSleep"`
	MainWorry           string             `json:"mainWorry"`
	StressHistory       []StressPoint      `json:"stressHistory"`
	SleepStressData     []SleepStressPoint `json:"sleepStressData"`
	WorriesDistribution []WorryCount       `json:"worriesDistribution"`
}

// StressPoint is the average stress of a single calendar day.
type StressPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// SleepStressPoint pairs the average sleep and stress of a calendar day.
type SleepStressPoint struct {
	Date   string  `json:"date"`
	Sleep  float64 `json:"sleep"`
	Stress float64 `json:"stress"`
}

// WorryCount is one bucket of the worry-label histogram.
type WorryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Priority ranks a recommendation.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// NormalizePriority maps free-form provider output onto the closed set,
// falling back to PriorityMedium.
func NormalizePriority(raw string) Priority {
	switch p := Priority(raw); p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p
	default:
		return PriorityMedium
	}
}

// RecommendationItem is a single wellness suggestion.
type RecommendationItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Priority    Priority `json:"priority"`
}
