package insight

import (
	"sort"
	"strings"
	"time"

	"tiller/internal/domain"
)

// Rhythm status kinds.
const (
	RhythmOnTrack  = "on_track"
	RhythmStreak   = "streak"
	RhythmDueToday = "due_today"
	RhythmOverdue  = "overdue"
)

// Mood trend labels.
const (
	TrendMorePositive = "more_positive"
	TrendLowerEnergy  = "lower_energy"
	TrendConsistent   = "consistent"
	TrendUnknown      = "unknown"
)

// Reflection frequency trend labels.
const (
	FrequencyRising  = "rising"
	FrequencySteady  = "steady"
	FrequencyFalling = "falling"
)

// moodScale orders moods from lowest to highest energy.
var moodScale = []string{
	domain.MoodDrained,
	domain.MoodUncertain,
	domain.MoodNeutral,
	domain.MoodConfident,
	domain.MoodEnergized,
}

type RhythmStatus struct {
	Kind   string `json:"kind" enum:"on_track,streak,due_today,overdue"`
	Streak int    `json:"streak,omitempty"`
}

type Rhythm struct {
	WeeklyStreak   int          `json:"weekly_streak"`
	Status         RhythmStatus `json:"status"`
	MoodTrend      string       `json:"mood_trend"`
	FrequencyTrend string       `json:"frequency_trend"`
}

// TrackRhythm summarizes how consistently the user reflects: the weekly
// streak, a qualitative status for the current week, the mood direction of
// the two most recent reflections, and the frequency trend across the last
// eight ISO weeks.
func TrackRhythm(reflections []domain.Reflection, now time.Time) Rhythm {
	streak := WeeklyStreak(reflections, now)
	return Rhythm{
		WeeklyStreak:   streak,
		Status:         rhythmStatus(reflections, streak, now),
		MoodTrend:      MoodTrend(reflections),
		FrequencyTrend: frequencyTrend(reflections, now),
	}
}

// WeeklyStreak counts consecutive ISO weeks with at least one reflection,
// walking backward from the week containing now. A current week with no
// reflection means a streak of zero.
func WeeklyStreak(reflections []domain.Reflection, now time.Time) int {
	weeks := weeksWithReflections(reflections)
	streak := 0
	for cursor := now; weeks[weekOf(cursor)]; cursor = cursor.AddDate(0, 0, -7) {
		streak++
	}
	return streak
}

func rhythmStatus(reflections []domain.Reflection, streak int, now time.Time) RhythmStatus {
	weeks := weeksWithReflections(reflections)
	if weeks[weekOf(now)] {
		if streak > 1 {
			return RhythmStatus{Kind: RhythmStreak, Streak: streak}
		}
		return RhythmStatus{Kind: RhythmOnTrack}
	}
	day := isoWeekday(now)
	if day >= 5 { // Friday onward
		return RhythmStatus{Kind: RhythmDueToday}
	}
	prevWeekEmpty := !weeks[weekOf(now.AddDate(0, 0, -7))]
	if prevWeekEmpty && day >= 3 { // Wednesday onward with a missed week behind
		return RhythmStatus{Kind: RhythmOverdue}
	}
	// Early-week grace period.
	return RhythmStatus{Kind: RhythmDueToday}
}

func weeksWithReflections(reflections []domain.Reflection) map[isoWeek]bool {
	weeks := map[isoWeek]bool{}
	for _, r := range reflections {
		weeks[weekOf(r.CreatedAt)] = true
	}
	return weeks
}

// MoodTrend compares the most recent reflection's mood against the one
// before it on the fixed energy scale. Unknown when fewer than two moods
// are available.
func MoodTrend(reflections []domain.Reflection) string {
	ordered := make([]domain.Reflection, len(reflections))
	copy(ordered, reflections)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.After(ordered[j].CreatedAt)
	})
	var moods []int
	for _, r := range ordered {
		if r.Mood == nil {
			continue
		}
		if idx := moodIndex(*r.Mood); idx >= 0 {
			moods = append(moods, idx)
		}
		if len(moods) == 2 {
			break
		}
	}
	if len(moods) < 2 {
		return TrendUnknown
	}
	switch {
	case moods[0] > moods[1]:
		return TrendMorePositive
	case moods[0] < moods[1]:
		return TrendLowerEnergy
	default:
		return TrendConsistent
	}
}

func moodIndex(mood string) int {
	for i, m := range moodScale {
		if m == mood {
			return i
		}
	}
	return -1
}

// frequencyTrend compares reflection counts over the last four ISO weeks
// against the four weeks before that.
func frequencyTrend(reflections []domain.Reflection, now time.Time) string {
	recent, prior := 0, 0
	recentCut := now.AddDate(0, 0, -28)
	priorCut := now.AddDate(0, 0, -56)
	for _, r := range reflections {
		switch {
		case r.CreatedAt.After(recentCut):
			recent++
		case r.CreatedAt.After(priorCut):
			prior++
		}
	}
	switch {
	case recent > prior:
		return FrequencyRising
	case recent < prior:
		return FrequencyFalling
	default:
		return FrequencySteady
	}
}

type ThemeCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// TopThemes counts tag frequency across reflections, descending by count
// with ties broken by first appearance, truncated to limit.
func TopThemes(reflections []domain.Reflection, limit int) []ThemeCount {
	counts := map[string]int{}
	var order []string
	for _, r := range reflections {
		for _, tag := range r.Tags {
			if _, seen := counts[tag]; !seen {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}
	themes := make([]ThemeCount, 0, len(order))
	for _, tag := range order {
		themes = append(themes, ThemeCount{Tag: tag, Count: counts[tag]})
	}
	sort.SliceStable(themes, func(i, j int) bool { return themes[i].Count > themes[j].Count })
	if limit > 0 && len(themes) > limit {
		themes = themes[:limit]
	}
	return themes
}

const themeSuggestionCap = 4

// ThemeRule matches a theme by keyword containment. Table order is the
// evaluation (and therefore tie-break) order.
type ThemeRule struct {
	Theme    string   `yaml:"theme" json:"theme"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// SuggestThemes scans answer text for keyword matches against the rule
// table, skipping themes already tagged, and returns up to four suggestions
// in table order. Plain substring containment, deliberately not NLP.
func SuggestThemes(answerText string, existingTags []string, table []ThemeRule) []string {
	text := strings.ToLower(answerText)
	tagged := map[string]bool{}
	for _, t := range existingTags {
		tagged[strings.ToLower(t)] = true
	}
	var out []string
	for _, rule := range table {
		if len(out) >= themeSuggestionCap {
			break
		}
		if tagged[strings.ToLower(rule.Theme)] {
			continue
		}
		for _, kw := range rule.Keywords {
			if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
				out = append(out, rule.Theme)
				break
			}
		}
	}
	return out
}

// AnswerText concatenates a reflection's answers for theme matching.
func AnswerText(r domain.Reflection) string {
	var b strings.Builder
	for _, qa := range r.QuestionsAnswers {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(qa.Answer)
	}
	return b.String()
}
