package insight

import (
	"reflect"
	"testing"
	"time"

	"tiller/internal/domain"
)

func TestWeeklyStreak(t *testing.T) {
	current := reflection("r1", testNow.Add(-2*time.Hour))
	previous := reflection("r2", testNow.AddDate(0, 0, -7))
	cases := []struct {
		name        string
		reflections []domain.Reflection
		want        int
	}{
		{"none", nil, 0},
		{"current and previous week", []domain.Reflection{current, previous}, 2},
		{"gap in current week", []domain.Reflection{previous}, 0},
		{"current only", []domain.Reflection{current}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := WeeklyStreak(tc.reflections, testNow); got != tc.want {
				t.Fatalf("streak = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestRhythmStatus(t *testing.T) {
	// testNow is Monday 2026-08-31.
	tuesday := testNow.AddDate(0, 0, 1)
	wednesday := testNow.AddDate(0, 0, 2)
	friday := testNow.AddDate(0, 0, 4)
	lastWeek := reflection("lw", testNow.AddDate(0, 0, -7))

	cases := []struct {
		name        string
		reflections []domain.Reflection
		now         time.Time
		want        RhythmStatus
	}{
		{"streak", []domain.Reflection{reflection("r", testNow), lastWeek}, testNow, RhythmStatus{Kind: RhythmStreak, Streak: 2}},
		{"on track", []domain.Reflection{reflection("r", testNow)}, testNow, RhythmStatus{Kind: RhythmOnTrack}},
		{"tuesday grace with empty last week", nil, tuesday, RhythmStatus{Kind: RhythmDueToday}},
		{"wednesday overdue with empty last week", nil, wednesday, RhythmStatus{Kind: RhythmOverdue}},
		{"wednesday due with last week covered", []domain.Reflection{lastWeek}, wednesday, RhythmStatus{Kind: RhythmDueToday}},
		{"friday due regardless", []domain.Reflection{lastWeek}, friday, RhythmStatus{Kind: RhythmDueToday}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := TrackRhythm(tc.reflections, tc.now).Status
			if got != tc.want {
				t.Fatalf("status = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestMoodTrend(t *testing.T) {
	withMood := func(id, mood string, created time.Time) domain.Reflection {
		r := reflection(id, created)
		r.Mood = sp(mood)
		return r
	}
	cases := []struct {
		name        string
		reflections []domain.Reflection
		want        string
	}{
		{"rising", []domain.Reflection{
			withMood("old", domain.MoodUncertain, testNow.AddDate(0, 0, -3)),
			withMood("new", domain.MoodEnergized, testNow.AddDate(0, 0, -1)),
		}, TrendMorePositive},
		{"falling", []domain.Reflection{
			withMood("old", domain.MoodConfident, testNow.AddDate(0, 0, -3)),
			withMood("new", domain.MoodDrained, testNow.AddDate(0, 0, -1)),
		}, TrendLowerEnergy},
		{"steady", []domain.Reflection{
			withMood("old", domain.MoodNeutral, testNow.AddDate(0, 0, -3)),
			withMood("new", domain.MoodNeutral, testNow.AddDate(0, 0, -1)),
		}, TrendConsistent},
		{"skips moodless", []domain.Reflection{
			withMood("old", domain.MoodUncertain, testNow.AddDate(0, 0, -5)),
			reflection("blank", testNow.AddDate(0, 0, -2)),
			withMood("new", domain.MoodConfident, testNow.AddDate(0, 0, -1)),
		}, TrendMorePositive},
		{"single mood", []domain.Reflection{
			withMood("only", domain.MoodNeutral, testNow.AddDate(0, 0, -1)),
		}, TrendUnknown},
		{"empty", nil, TrendUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MoodTrend(tc.reflections); got != tc.want {
				t.Fatalf("trend = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTopThemes(t *testing.T) {
	tagged := func(id string, created time.Time, tags ...string) domain.Reflection {
		r := reflection(id, created)
		r.Tags = tags
		return r
	}
	reflections := []domain.Reflection{
		tagged("r1", testNow.AddDate(0, 0, -3), "delegation", "hiring"),
		tagged("r2", testNow.AddDate(0, 0, -2), "hiring", "conflict"),
		tagged("r3", testNow.AddDate(0, 0, -1), "delegation"),
	}
	got := TopThemes(reflections, 2)
	want := []ThemeCount{
		{Tag: "delegation", Count: 2},
		{Tag: "hiring", Count: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("top themes = %v, want %v (ties break by first appearance)", got, want)
	}
}

func TestSuggestThemes(t *testing.T) {
	table := []ThemeRule{
		{Theme: "delegation", Keywords: []string{"delegate", "handed off"}},
		{Theme: "conflict", Keywords: []string{"disagree", "tension"}},
		{Theme: "hiring", Keywords: []string{"interview", "candidate"}},
		{Theme: "focus", Keywords: []string{"distract"}},
		{Theme: "energy", Keywords: []string{"tired", "drained"}},
	}
	text := "I delegated the interview loop but there was tension, felt distracted and tired."
	got := SuggestThemes(text, []string{"Conflict"}, table)
	want := []string{"delegation", "hiring", "focus", "energy"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("suggestions = %v, want %v", got, want)
	}

	if got := SuggestThemes("nothing matches here", nil, table); len(got) != 0 {
		t.Fatalf("suggestions = %v, want none", got)
	}
}

func TestFrequencyTrend(t *testing.T) {
	recent := []domain.Reflection{
		reflection("a", testNow.AddDate(0, 0, -2)),
		reflection("b", testNow.AddDate(0, 0, -9)),
	}
	prior := []domain.Reflection{
		reflection("c", testNow.AddDate(0, 0, -30)),
	}
	if got := frequencyTrend(append(recent, prior...), testNow); got != FrequencyRising {
		t.Fatalf("trend = %q, want rising", got)
	}
	if got := frequencyTrend(prior, testNow); got != FrequencyFalling {
		t.Fatalf("trend = %q, want falling", got)
	}
	if got := frequencyTrend(nil, testNow); got != FrequencySteady {
		t.Fatalf("trend = %q, want steady", got)
	}
}
