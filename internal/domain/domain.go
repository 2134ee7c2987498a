package domain

import "time"

// Commitment direction: who owes whom.
const (
	DirectionIOwe       = "i_owe"
	DirectionWaitingFor = "waiting_for"
)

// Commitment status values.
const (
	CommitmentOpen    = "open"
	CommitmentDone    = "done"
	CommitmentDropped = "dropped"
)

type Commitment struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Direction     string     `json:"direction" enum:"i_owe,waiting_for"`
	Status        string     `json:"status" enum:"open,done,dropped"`
	Counterparty  string     `json:"counterparty,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	PriorityScore int        `json:"priority_score"`
	ProjectID     *string    `json:"project_id,omitempty"`
	SourceEntryID *string    `json:"source_entry_id,omitempty"`
}

// Decision outcome values. Pending is the default once an entry is marked a decision.
const (
	OutcomePending     = "pending"
	OutcomeValidated   = "validated"
	OutcomeInvalidated = "invalidated"
	OutcomeMixed       = "mixed"
	OutcomeSuperseded  = "superseded"
)

// Decision stakes levels.
const (
	StakesLow    = "low"
	StakesMedium = "medium"
	StakesHigh   = "high"
)

type Entry struct {
	ID                  string     `json:"id"`
	Title               string     `json:"title"`
	Body                string     `json:"body,omitempty"`
	OccurredAt          time.Time  `json:"occurred_at"`
	IsDecision          bool       `json:"is_decision"`
	IsDeleted           bool       `json:"is_deleted"`
	DecisionRationale   string     `json:"decision_rationale,omitempty"`
	DecisionAssumptions string     `json:"decision_assumptions,omitempty"`
	DecisionConfidence  *int       `json:"decision_confidence,omitempty"`
	DecisionStakes      *string    `json:"decision_stakes,omitempty"`
	DecisionReviewDate  *time.Time `json:"decision_review_date,omitempty"`
	DecisionOutcome     *string    `json:"decision_outcome,omitempty"`
	DecisionOutcomeDate *time.Time `json:"decision_outcome_date,omitempty"`
	ProjectID           *string    `json:"project_id,omitempty"`
}

// IsDecisionEntry reports whether the entry counts as a live decision.
func (e Entry) IsDecisionEntry() bool {
	return e.IsDecision && !e.IsDeleted
}

// IsReviewed reports whether the decision has reached a terminal outcome.
func (e Entry) IsReviewed() bool {
	return e.DecisionOutcome != nil && *e.DecisionOutcome != OutcomePending
}

// Reflection types.
const (
	ReflectionQuick        = "quick"
	ReflectionPeriodic     = "periodic"
	ReflectionProject      = "project"
	ReflectionRelationship = "relationship"
)

// Period types for periodic reflections.
const (
	PeriodWeekly    = "weekly"
	PeriodMonthly   = "monthly"
	PeriodQuarterly = "quarterly"
)

// Mood values, ordered from lowest to highest energy.
const (
	MoodDrained   = "drained"
	MoodUncertain = "uncertain"
	MoodNeutral   = "neutral"
	MoodConfident = "confident"
	MoodEnergized = "energized"
)

// ValidMood reports whether mood is one of the known values.
func ValidMood(mood string) bool {
	switch mood {
	case MoodDrained, MoodUncertain, MoodNeutral, MoodConfident, MoodEnergized:
		return true
	}
	return false
}

type QuestionAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Reflection struct {
	ID                     string           `json:"id"`
	ReflectionType         string           `json:"reflection_type" enum:"quick,periodic,project,relationship"`
	PeriodType             *string          `json:"period_type,omitempty"`
	CreatedAt              time.Time        `json:"created_at"`
	Mood                   *string          `json:"mood,omitempty"`
	Tags                   []string         `json:"tags,omitempty"`
	QuestionsAnswers       []QuestionAnswer `json:"questions_answers"`
	LinkedEntryIDs         []string         `json:"linked_entry_ids,omitempty"`
	GeneratedCommitmentIDs []string         `json:"generated_commitment_ids,omitempty"`
	SourceEntryID          *string          `json:"source_entry_id,omitempty"`
	ProjectID              *string          `json:"project_id,omitempty"`
}

// IsComplete reports whether every question has a non-empty answer.
func (r Reflection) IsComplete() bool {
	for _, qa := range r.QuestionsAnswers {
		if qa.Answer == "" {
			return false
		}
	}
	return true
}

// Project status values.
const (
	ProjectActive    = "active"
	ProjectOnHold    = "on_hold"
	ProjectCompleted = "completed"
	ProjectArchived  = "archived"
)

type Project struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Status       string     `json:"status" enum:"active,on_hold,completed,archived"`
	Priority     int        `json:"priority"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	Payload    string `json:"payload_json"`
}
