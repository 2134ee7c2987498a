package insight

import (
	"time"

	"tiller/internal/domain"
)

// Prompt kinds. Exactly one is selected per evaluation.
const (
	PromptRecap          = "recap"
	PromptWeekly         = "weekly"
	PromptProjectCheckIn = "project_check_in"
	PromptBusyWeek       = "busy_week"
	PromptEmpty          = "empty"
)

const (
	dailyQuickPromptCap = 3
	busyWeekEntryFloor  = 5
	weeklyReflectionAge = 7 * 24 * time.Hour
	projectCheckInAge   = 14 * 24 * time.Hour
)

type Prompt struct {
	Kind            string             `json:"kind" enum:"recap,weekly,project_check_in,busy_week,empty"`
	Recap           *domain.Reflection `json:"recap,omitempty"`
	Project         *domain.Project    `json:"project,omitempty"`
	EntriesThisWeek int                `json:"entries_this_week,omitempty"`
}

type PromptInputs struct {
	Reflections            []domain.Reflection
	Entries                []domain.Entry
	ProjectsNeedingCheckIn []domain.Project
	QuickPromptsToday      int
	Now                    time.Time
}

// SelectPrompt walks a fixed-order decision tree and returns exactly one
// prompt variant. The daily quick-prompt cap gates only the busy-week branch;
// the other branches are deterministic facts, not repeated nags, which is
// what keeps the "at most one passive prompt per day" guarantee structural.
func SelectPrompt(in PromptInputs) Prompt {
	now := in.Now
	entriesThisWeek := countEntriesInWeek(in.Entries, now)

	// 1. Already reflected today: recap, never another ask.
	if reflectedOn(in.Reflections, now) {
		return recapOrEmpty(in.Reflections)
	}

	// 2. Weekly reflection missing or older than a week.
	if last := latestWeeklyReflection(in.Reflections); last == nil || last.CreatedAt.Before(now.Add(-weeklyReflectionAge)) {
		return Prompt{Kind: PromptWeekly, EntriesThisWeek: entriesThisWeek}
	}

	// 3. A project has gone too long without a check-in.
	if len(in.ProjectsNeedingCheckIn) > 0 {
		p := in.ProjectsNeedingCheckIn[0]
		return Prompt{Kind: PromptProjectCheckIn, Project: &p}
	}

	// 4. Busy week, still under the daily quick cap.
	if entriesThisWeek >= busyWeekEntryFloor && in.QuickPromptsToday < dailyQuickPromptCap {
		return Prompt{Kind: PromptBusyWeek, EntriesThisWeek: entriesThisWeek}
	}

	// 5. Nothing to ask: recap the latest reflection.
	return recapOrEmpty(in.Reflections)
}

// ProjectsNeedingCheckIn returns active projects whose most recent associated
// reflection (falling back to last activity, then creation, when never
// reflected on) is fourteen or more days old, preserving the input project
// order.
func ProjectsNeedingCheckIn(projects []domain.Project, reflections []domain.Reflection, now time.Time) []domain.Project {
	var out []domain.Project
	for _, p := range projects {
		if p.Status != domain.ProjectActive {
			continue
		}
		last := p.CreatedAt
		if p.LastActiveAt != nil && p.LastActiveAt.After(last) {
			last = *p.LastActiveAt
		}
		for _, r := range reflections {
			if r.ProjectID != nil && *r.ProjectID == p.ID && r.CreatedAt.After(last) {
				last = r.CreatedAt
			}
		}
		if !last.After(now.Add(-projectCheckInAge)) {
			out = append(out, p)
		}
	}
	return out
}

func recapOrEmpty(reflections []domain.Reflection) Prompt {
	if latest := latestReflection(reflections); latest != nil {
		return Prompt{Kind: PromptRecap, Recap: latest}
	}
	return Prompt{Kind: PromptEmpty}
}

func reflectedOn(reflections []domain.Reflection, day time.Time) bool {
	for _, r := range reflections {
		if sameDay(r.CreatedAt, day) {
			return true
		}
	}
	return false
}

func latestReflection(reflections []domain.Reflection) *domain.Reflection {
	var latest *domain.Reflection
	for i := range reflections {
		r := &reflections[i]
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil
	}
	cp := *latest
	return &cp
}

func latestWeeklyReflection(reflections []domain.Reflection) *domain.Reflection {
	var latest *domain.Reflection
	for i := range reflections {
		r := &reflections[i]
		if r.ReflectionType != domain.ReflectionPeriodic || r.PeriodType == nil || *r.PeriodType != domain.PeriodWeekly {
			continue
		}
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil
	}
	cp := *latest
	return &cp
}

func countEntriesInWeek(entries []domain.Entry, now time.Time) int {
	wk := weekOf(now)
	n := 0
	for _, e := range entries {
		if e.IsDeleted {
			continue
		}
		if weekOf(e.OccurredAt) == wk {
			n++
		}
	}
	return n
}
