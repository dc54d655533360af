package domain

import "time"

// JournalEntry is one user's daily journal submission plus its AI analysis.
// Self-reported metrics use zero for "not reported".
type JournalEntry struct {
	ID        int64
	UserID    int64
	Content   string
	CreatedAt time.Time

	MoodRating  int
	StressLevel int
	SleepHours  int
	MainWorry   string

	DetectedEmotion string
	Intensity       int
	Summary         string
	Keywords        []string
}

// Draft carries the user-reported fields of a create or update request.
type Draft struct {
	Content     string
	MoodRating  int
	StressLevel int
	SleepHours  int
	MainWorry   string
}

// AnalysisResult is the structured sentiment classification returned by the provider.
type AnalysisResult struct {
	Emotion   string
	Intensity int
	Summary   string
	Keywords  []string
}

// WithDraft returns a copy of the entry carrying the draft's user-reported
// fields. Identity and creation time are kept.
func (e JournalEntry) WithDraft(d Draft) JournalEntry {
	e.Content = d.Content
	e.MoodRating = d.MoodRating
	e.StressLevel = d.StressLevel
	e.SleepHours = d.SleepHours
	e.MainWorry = d.MainWorry
	e.Keywords = append([]string(nil), e.Keywords...)
	return e
}

// WithAnalysis returns a copy of the entry carrying the analysis fields.
func (e JournalEntry) WithAnalysis(a AnalysisResult) JournalEntry {
	e.DetectedEmotion = a.Emotion
	e.Intensity = a.Intensity
	e.Summary = a.Summary
	e.Keywords = append([]string(nil), a.Keywords...)
	return e
}
