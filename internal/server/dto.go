package server

import (
	"time"

	"tiller/internal/domain"
)

// Request payloads

type CreateCommitmentRequest struct {
	ID            *string `json:"id,omitempty"`
	Title         string  `json:"title"`
	Direction     string  `json:"direction,omitempty" enum:"i_owe,waiting_for"`
	Counterparty  *string `json:"counterparty,omitempty"`
	DueDate       *string `json:"due_date,omitempty" format:"date-time"`
	PriorityScore *int    `json:"priority_score,omitempty"`
	ProjectID     *string `json:"project_id,omitempty"`
	SourceEntryID *string `json:"source_entry_id,omitempty"`
}

type UpdateCommitmentRequest struct {
	Title         *string `json:"title,omitempty"`
	DueDate       *string `json:"due_date,omitempty" format:"date-time"`
	ClearDueDate  bool    `json:"clear_due_date,omitempty"`
	PriorityScore *int    `json:"priority_score,omitempty"`
}

type CreateEntryRequest struct {
	ID          *string `json:"id,omitempty"`
	Title       string  `json:"title"`
	Body        *string `json:"body,omitempty"`
	OccurredAt  *string `json:"occurred_at,omitempty" format:"date-time"`
	ProjectID   *string `json:"project_id,omitempty"`
	IsDecision  bool    `json:"is_decision,omitempty"`
	Rationale   *string `json:"rationale,omitempty"`
	Assumptions *string `json:"assumptions,omitempty"`
	Confidence  *int    `json:"confidence,omitempty" minimum:"1" maximum:"5"`
	Stakes      *string `json:"stakes,omitempty" enum:"low,medium,high"`
	ReviewDate  *string `json:"review_date,omitempty" format:"date-time"`
}

type ReviewDecisionRequest struct {
	Outcome string `json:"outcome" enum:"validated,invalidated,mixed,superseded"`
}

type FollowUpRequest struct {
	Title        string  `json:"title"`
	Direction    string  `json:"direction,omitempty" enum:"i_owe,waiting_for"`
	Counterparty *string `json:"counterparty,omitempty"`
	DueDate      *string `json:"due_date,omitempty" format:"date-time"`
	ProjectID    *string `json:"project_id,omitempty"`
}

type CreateReflectionRequest struct {
	ID             *string                 `json:"id,omitempty"`
	ReflectionType string                  `json:"reflection_type" enum:"quick,periodic,project,relationship"`
	PeriodType     *string                 `json:"period_type,omitempty" enum:"weekly,monthly,quarterly"`
	Mood           *string                 `json:"mood,omitempty" enum:"drained,uncertain,neutral,confident,energized"`
	Tags           []string                `json:"tags,omitempty"`
	Answers        []domain.QuestionAnswer `json:"answers"`
	LinkedEntryIDs []string                `json:"linked_entry_ids,omitempty"`
	SourceEntryID  *string                 `json:"source_entry_id,omitempty"`
	ProjectID      *string                 `json:"project_id,omitempty"`
	FollowUps      []FollowUpRequest       `json:"follow_ups,omitempty"`
}

type CreateProjectRequest struct {
	ID       *string `json:"id,omitempty"`
	Name     string  `json:"name"`
	Priority *int    `json:"priority,omitempty" minimum:"1" maximum:"5"`
}

type UpdateProjectRequest struct {
	Status   *string `json:"status,omitempty" enum:"active,on_hold,completed,archived"`
	Priority *int    `json:"priority,omitempty" minimum:"1" maximum:"5"`
}

type DevLoginRequest struct {
	Subject string `json:"subject"`
}

type DevLoginResponse struct {
	Token string `json:"token"`
}

// Response payloads

type CommitmentResponse struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Direction     string  `json:"direction" enum:"i_owe,waiting_for"`
	Status        string  `json:"status" enum:"open,done,dropped"`
	Counterparty  string  `json:"counterparty,omitempty"`
	DueDate       *string `json:"due_date,omitempty" format:"date-time"`
	CreatedAt     string  `json:"created_at" format:"date-time"`
	CompletedAt   *string `json:"completed_at,omitempty" format:"date-time"`
	PriorityScore int     `json:"priority_score"`
	ProjectID     *string `json:"project_id,omitempty"`
	SourceEntryID *string `json:"source_entry_id,omitempty"`
}

type EntryResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Body        string  `json:"body,omitempty"`
	OccurredAt  string  `json:"occurred_at" format:"date-time"`
	IsDecision  bool    `json:"is_decision"`
	Rationale   string  `json:"rationale,omitempty"`
	Assumptions string  `json:"assumptions,omitempty"`
	Confidence  *int    `json:"confidence,omitempty"`
	Stakes      *string `json:"stakes,omitempty"`
	ReviewDate  *string `json:"review_date,omitempty" format:"date-time"`
	Outcome     *string `json:"outcome,omitempty"`
	OutcomeDate *string `json:"outcome_date,omitempty" format:"date-time"`
	ProjectID   *string `json:"project_id,omitempty"`
}

type ReflectionResponse struct {
	ID                     string                  `json:"id"`
	ReflectionType         string                  `json:"reflection_type"`
	PeriodType             *string                 `json:"period_type,omitempty"`
	CreatedAt              string                  `json:"created_at" format:"date-time"`
	Mood                   *string                 `json:"mood,omitempty"`
	Tags                   []string                `json:"tags,omitempty"`
	Answers                []domain.QuestionAnswer `json:"answers"`
	LinkedEntryIDs         []string                `json:"linked_entry_ids,omitempty"`
	GeneratedCommitmentIDs []string                `json:"generated_commitment_ids,omitempty"`
	SourceEntryID          *string                 `json:"source_entry_id,omitempty"`
	ProjectID              *string                 `json:"project_id,omitempty"`
}

type ProjectResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Status       string  `json:"status"`
	Priority     int     `json:"priority"`
	LastActiveAt *string `json:"last_active_at,omitempty" format:"date-time"`
	CreatedAt    string  `json:"created_at" format:"date-time"`
}

type EventResponse struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id"`
	Payload    string `json:"payload_json"`
}

func fmtRFC3339(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func fmtRFC3339Ptr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := fmtRFC3339(*t)
	return &s
}

func commitmentResponse(c domain.Commitment) CommitmentResponse {
	return CommitmentResponse{
		ID:            c.ID,
		Title:         c.Title,
		Direction:     c.Direction,
		Status:        c.Status,
		Counterparty:  c.Counterparty,
		DueDate:       fmtRFC3339Ptr(c.DueDate),
		CreatedAt:     fmtRFC3339(c.CreatedAt),
		CompletedAt:   fmtRFC3339Ptr(c.CompletedAt),
		PriorityScore: c.PriorityScore,
		ProjectID:     c.ProjectID,
		SourceEntryID: c.SourceEntryID,
	}
}

func entryResponse(e domain.Entry) EntryResponse {
	return EntryResponse{
		ID:          e.ID,
		Title:       e.Title,
		Body:        e.Body,
		OccurredAt:  fmtRFC3339(e.OccurredAt),
		IsDecision:  e.IsDecision,
		Rationale:   e.DecisionRationale,
		Assumptions: e.DecisionAssumptions,
		Confidence:  e.DecisionConfidence,
		Stakes:      e.DecisionStakes,
		ReviewDate:  fmtRFC3339Ptr(e.DecisionReviewDate),
		Outcome:     e.DecisionOutcome,
		OutcomeDate: fmtRFC3339Ptr(e.DecisionOutcomeDate),
		ProjectID:   e.ProjectID,
	}
}

func reflectionResponse(r domain.Reflection) ReflectionResponse {
	return ReflectionResponse{
		ID:                     r.ID,
		ReflectionType:         r.ReflectionType,
		PeriodType:             r.PeriodType,
		CreatedAt:              fmtRFC3339(r.CreatedAt),
		Mood:                   r.Mood,
		Tags:                   r.Tags,
		Answers:                r.QuestionsAnswers,
		LinkedEntryIDs:         r.LinkedEntryIDs,
		GeneratedCommitmentIDs: r.GeneratedCommitmentIDs,
		SourceEntryID:          r.SourceEntryID,
		ProjectID:              r.ProjectID,
	}
}

func projectResponse(p domain.Project) ProjectResponse {
	return ProjectResponse{
		ID:           p.ID,
		Name:         p.Name,
		Status:       p.Status,
		Priority:     p.Priority,
		LastActiveAt: fmtRFC3339Ptr(p.LastActiveAt),
		CreatedAt:    fmtRFC3339(p.CreatedAt),
	}
}

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		TS:         e.TS,
		Type:       e.Type,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		Payload:    e.Payload,
	}
}

func parseTimeField(name string, value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *value)
	if err != nil {
		return nil, invalidField(name, err)
	}
	return &t, nil
}

func strOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
