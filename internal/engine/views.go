package engine

import (
	"context"
	"fmt"
	"time"

	"tiller/internal/domain"
	"tiller/internal/insight"
	"tiller/internal/repo"
)

// Dashboard is the attention view: prioritized commitments, the decision
// review queue, the reflection prompt, and the current rhythm status.
type Dashboard struct {
	Commitments insight.CommitmentTriage `json:"commitments"`
	Reviews     insight.ReviewQueue      `json:"reviews"`
	Prompt      insight.Prompt           `json:"prompt"`
	Rhythm      insight.Rhythm           `json:"rhythm"`
}

// Insights is the longitudinal view: calibration, rhythm, and themes.
type Insights struct {
	Calibration insight.CalibrationReport `json:"calibration"`
	Rhythm      insight.Rhythm            `json:"rhythm"`
	TopThemes   []insight.ThemeCount      `json:"top_themes"`
	Pending     []domain.Entry            `json:"pending_decisions"`
}

const topThemeLimit = 6

type snapshot struct {
	commitments []domain.Commitment
	entries     []domain.Entry
	reflections []domain.Reflection
	projects    []domain.Project
}

func (e Engine) loadSnapshot(ctx context.Context) (snapshot, error) {
	var s snapshot
	var err error
	if s.commitments, err = e.Repo.ListCommitments(ctx, repo.CommitmentFilters{}); err != nil {
		return s, fmt.Errorf("load commitments: %w", err)
	}
	if s.entries, err = e.Repo.ListEntries(ctx, repo.EntryFilters{IncludeDeleted: true}); err != nil {
		return s, fmt.Errorf("load entries: %w", err)
	}
	if s.reflections, err = e.Repo.ListReflections(ctx, repo.ReflectionFilters{}); err != nil {
		return s, fmt.Errorf("load reflections: %w", err)
	}
	if s.projects, err = e.Repo.ListProjects(ctx, domain.ProjectActive); err != nil {
		return s, fmt.Errorf("load projects: %w", err)
	}
	if err := insight.CheckCommitments(s.commitments); err != nil {
		return s, err
	}
	if err := insight.CheckEntries(s.entries); err != nil {
		return s, err
	}
	if err := insight.CheckReflections(s.reflections); err != nil {
		return s, err
	}
	return s, nil
}

// localize converts every snapshot timestamp into loc so that day, weekday,
// and ISO-week arithmetic follows the journal's calendar rather than UTC.
func (s snapshot) localize(loc *time.Location) snapshot {
	out := snapshot{
		commitments: make([]domain.Commitment, len(s.commitments)),
		entries:     make([]domain.Entry, len(s.entries)),
		reflections: make([]domain.Reflection, len(s.reflections)),
		projects:    make([]domain.Project, len(s.projects)),
	}
	for i, c := range s.commitments {
		c.CreatedAt = c.CreatedAt.In(loc)
		c.DueDate = timeIn(c.DueDate, loc)
		c.CompletedAt = timeIn(c.CompletedAt, loc)
		out.commitments[i] = c
	}
	for i, entry := range s.entries {
		entry.OccurredAt = entry.OccurredAt.In(loc)
		entry.DecisionReviewDate = timeIn(entry.DecisionReviewDate, loc)
		entry.DecisionOutcomeDate = timeIn(entry.DecisionOutcomeDate, loc)
		out.entries[i] = entry
	}
	for i, ref := range s.reflections {
		ref.CreatedAt = ref.CreatedAt.In(loc)
		out.reflections[i] = ref
	}
	for i, p := range s.projects {
		p.CreatedAt = p.CreatedAt.In(loc)
		p.LastActiveAt = timeIn(p.LastActiveAt, loc)
		out.projects[i] = p
	}
	return out
}

func timeIn(t *time.Time, loc *time.Location) *time.Time {
	if t == nil {
		return nil
	}
	v := t.In(loc)
	return &v
}

func (e Engine) Dashboard(ctx context.Context) (Dashboard, error) {
	s, err := e.loadSnapshot(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	now := e.now()
	s = s.localize(now.Location())
	quickToday, err := e.Repo.CountQuickReflectionsOn(ctx, now)
	if err != nil {
		return Dashboard{}, fmt.Errorf("count quick reflections: %w", err)
	}
	return Dashboard{
		Commitments: insight.TriageCommitments(s.commitments, now),
		Reviews:     insight.QueueDecisionReviews(s.entries, now),
		Prompt: insight.SelectPrompt(insight.PromptInputs{
			Reflections:            s.reflections,
			Entries:                s.entries,
			ProjectsNeedingCheckIn: insight.ProjectsNeedingCheckIn(s.projects, s.reflections, now),
			QuickPromptsToday:      quickToday,
			Now:                    now,
		}),
		Rhythm: insight.TrackRhythm(s.reflections, now),
	}, nil
}

func (e Engine) Insights(ctx context.Context) (Insights, error) {
	s, err := e.loadSnapshot(ctx)
	if err != nil {
		return Insights{}, err
	}
	now := e.now()
	s = s.localize(now.Location())
	return Insights{
		Calibration: insight.AnalyzeCalibration(s.entries, now),
		Rhythm:      insight.TrackRhythm(s.reflections, now),
		TopThemes:   insight.TopThemes(s.reflections, topThemeLimit),
		Pending:     insight.PendingDecisions(s.entries),
	}, nil
}
