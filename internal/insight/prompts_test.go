package insight

import (
	"testing"
	"time"

	"tiller/internal/domain"
)

func reflection(id string, created time.Time) domain.Reflection {
	return domain.Reflection{
		ID:             id,
		ReflectionType: domain.ReflectionQuick,
		CreatedAt:      created,
	}
}

func weeklyReflection(id string, created time.Time) domain.Reflection {
	period := domain.PeriodWeekly
	return domain.Reflection{
		ID:             id,
		ReflectionType: domain.ReflectionPeriodic,
		PeriodType:     &period,
		CreatedAt:      created,
	}
}

func entryAt(occurred time.Time) domain.Entry {
	return domain.Entry{ID: "e", OccurredAt: occurred}
}

func TestSelectPromptRecapWhenReflectedToday(t *testing.T) {
	today := reflection("today", testNow.Add(-1*time.Hour))
	older := weeklyReflection("weekly", testNow.AddDate(0, 0, -10))
	p := SelectPrompt(PromptInputs{
		Reflections: []domain.Reflection{older, today},
		Now:         testNow,
	})
	if p.Kind != PromptRecap {
		t.Fatalf("kind = %s, want recap", p.Kind)
	}
	if p.Recap == nil || p.Recap.ID != "today" {
		t.Fatalf("recap = %v, want most recent reflection", p.Recap)
	}
}

func TestSelectPromptWeeklyBeatsProjectCheckIn(t *testing.T) {
	stale := weeklyReflection("weekly", testNow.AddDate(0, 0, -10))
	project := domain.Project{ID: "p1", Name: "launch", Status: domain.ProjectActive}
	entries := []domain.Entry{entryAt(testNow.Add(-2 * time.Hour)), entryAt(testNow.AddDate(0, 0, -1))}
	p := SelectPrompt(PromptInputs{
		Reflections:            []domain.Reflection{stale},
		Entries:                entries,
		ProjectsNeedingCheckIn: []domain.Project{project},
		Now:                    testNow,
	})
	if p.Kind != PromptWeekly {
		t.Fatalf("kind = %s, want weekly", p.Kind)
	}
	if p.EntriesThisWeek != 2 {
		t.Fatalf("entries this week = %d, want 2", p.EntriesThisWeek)
	}
}

func TestSelectPromptProjectCheckIn(t *testing.T) {
	fresh := weeklyReflection("weekly", testNow.AddDate(0, 0, -2))
	first := domain.Project{ID: "p1", Name: "launch", Status: domain.ProjectActive}
	second := domain.Project{ID: "p2", Name: "hiring", Status: domain.ProjectActive}
	p := SelectPrompt(PromptInputs{
		Reflections:            []domain.Reflection{fresh},
		ProjectsNeedingCheckIn: []domain.Project{first, second},
		Now:                    testNow,
	})
	if p.Kind != PromptProjectCheckIn {
		t.Fatalf("kind = %s, want project check-in", p.Kind)
	}
	if p.Project == nil || p.Project.ID != "p1" {
		t.Fatalf("project = %v, want first needing check-in", p.Project)
	}
}

func TestSelectPromptBusyWeekRespectsDailyCap(t *testing.T) {
	fresh := weeklyReflection("weekly", testNow.AddDate(0, 0, -2))
	var entries []domain.Entry
	for i := 0; i < 5; i++ {
		entries = append(entries, entryAt(testNow.Add(-time.Duration(i+1)*time.Hour)))
	}
	inputs := PromptInputs{
		Reflections:       []domain.Reflection{fresh},
		Entries:           entries,
		QuickPromptsToday: 2,
		Now:               testNow,
	}
	if p := SelectPrompt(inputs); p.Kind != PromptBusyWeek {
		t.Fatalf("kind = %s, want busy week", p.Kind)
	}
	inputs.QuickPromptsToday = 3
	if p := SelectPrompt(inputs); p.Kind != PromptRecap {
		t.Fatalf("kind = %s, want recap once the daily cap is hit", p.Kind)
	}
}

func TestSelectPromptEmptyState(t *testing.T) {
	p := SelectPrompt(PromptInputs{Now: testNow})
	if p.Kind != PromptWeekly {
		t.Fatalf("kind = %s, want weekly when no weekly reflection exists", p.Kind)
	}
}

func TestSelectPromptFallbackRecap(t *testing.T) {
	fresh := weeklyReflection("weekly", testNow.AddDate(0, 0, -2))
	p := SelectPrompt(PromptInputs{
		Reflections: []domain.Reflection{fresh},
		Now:         testNow,
	})
	if p.Kind != PromptRecap {
		t.Fatalf("kind = %s, want recap fallback", p.Kind)
	}
	if p.Recap == nil || p.Recap.ID != "weekly" {
		t.Fatalf("recap = %v, want most recent reflection", p.Recap)
	}
}

func TestProjectsNeedingCheckIn(t *testing.T) {
	quiet := domain.Project{ID: "quiet", Status: domain.ProjectActive, CreatedAt: testNow.AddDate(0, 0, -20)}
	active := domain.Project{ID: "active", Status: domain.ProjectActive, CreatedAt: testNow.AddDate(0, 0, -20)}
	archived := domain.Project{ID: "old", Status: domain.ProjectArchived, CreatedAt: testNow.AddDate(0, 0, -60)}
	touched := domain.Project{
		ID:           "touched",
		Status:       domain.ProjectActive,
		CreatedAt:    testNow.AddDate(0, 0, -60),
		LastActiveAt: tp(testNow.AddDate(0, 0, -2)),
	}
	recent := domain.Reflection{
		ID:             "r1",
		ReflectionType: domain.ReflectionProject,
		CreatedAt:      testNow.AddDate(0, 0, -3),
		ProjectID:      sp("active"),
	}
	got := ProjectsNeedingCheckIn(
		[]domain.Project{quiet, active, archived, touched},
		[]domain.Reflection{recent},
		testNow,
	)
	if len(got) != 1 || got[0].ID != "quiet" {
		t.Fatalf("needing check-in = %v, want only the quiet project", got)
	}
}
