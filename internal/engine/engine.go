package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tiller/internal/config"
	"tiller/internal/domain"
	"tiller/internal/events"
	"tiller/internal/insight"
	"tiller/internal/repo"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	now := time.Now
	if cfg != nil && cfg.Journal.Timezone != "" {
		if loc, err := time.LoadLocation(cfg.Journal.Timezone); err == nil {
			now = func() time.Time { return time.Now().In(loc) }
		}
	}
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) newID(parts ...string) string {
	salt := e.now().UTC().Format(time.RFC3339Nano)
	seed := salt
	for _, p := range parts {
		seed += "|" + p
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}

// CommitmentCreateOptions are parameters for creating a commitment.
type CommitmentCreateOptions struct {
	ID            string
	Title         string
	Direction     string
	Counterparty  string
	DueDate       *time.Time
	PriorityScore int
	ProjectID     string
	SourceEntryID string
}

func (e Engine) CreateCommitment(ctx context.Context, opts CommitmentCreateOptions) (domain.Commitment, error) {
	if opts.Title == "" {
		return domain.Commitment{}, errors.New("title is required")
	}
	if opts.Direction == "" {
		opts.Direction = domain.DirectionIOwe
	}
	switch opts.Direction {
	case domain.DirectionIOwe, domain.DirectionWaitingFor:
	default:
		return domain.Commitment{}, fmt.Errorf("unknown direction %q", opts.Direction)
	}
	if opts.PriorityScore < 0 {
		return domain.Commitment{}, errors.New("priority score must be non-negative")
	}
	if opts.ProjectID != "" {
		if _, err := e.Repo.GetProject(ctx, opts.ProjectID); err != nil {
			return domain.Commitment{}, err
		}
	}
	if opts.SourceEntryID != "" {
		if _, err := e.Repo.GetEntry(ctx, opts.SourceEntryID); err != nil {
			return domain.Commitment{}, err
		}
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Commitment{}, err
	}
	defer tx.Rollback()

	id := opts.ID
	if id == "" {
		id = e.newID(opts.Title)
	}
	c := domain.Commitment{
		ID:            id,
		Title:         opts.Title,
		Direction:     opts.Direction,
		Status:        domain.CommitmentOpen,
		Counterparty:  opts.Counterparty,
		DueDate:       opts.DueDate,
		CreatedAt:     e.now().UTC(),
		PriorityScore: opts.PriorityScore,
		ProjectID:     optionalString(opts.ProjectID),
		SourceEntryID: optionalString(opts.SourceEntryID),
	}
	if err := e.Repo.InsertCommitmentTx(ctx, tx, c); err != nil {
		return domain.Commitment{}, fmt.Errorf("insert commitment: %w", err)
	}
	if c.ProjectID != nil {
		if err := e.Repo.TouchProjectTx(ctx, tx, *c.ProjectID, c.CreatedAt); err != nil {
			return domain.Commitment{}, err
		}
	}
	if err := e.Events.Append(ctx, tx, "commitment.create", "commitment", c.ID, events.EventPayload{
		"direction": c.Direction,
	}); err != nil {
		return domain.Commitment{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Commitment{}, err
	}
	return c, nil
}

// CompleteCommitment marks an open commitment done.
func (e Engine) CompleteCommitment(ctx context.Context, id string) (domain.Commitment, error) {
	return e.closeCommitment(ctx, id, domain.CommitmentDone, "commitment.done")
}

// DropCommitment marks an open commitment dropped.
func (e Engine) DropCommitment(ctx context.Context, id string) (domain.Commitment, error) {
	return e.closeCommitment(ctx, id, domain.CommitmentDropped, "commitment.drop")
}

func (e Engine) closeCommitment(ctx context.Context, id, status, evtType string) (domain.Commitment, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Commitment{}, err
	}
	defer tx.Rollback()

	c, err := e.Repo.GetCommitmentTx(ctx, tx, id)
	if err != nil {
		return domain.Commitment{}, err
	}
	if c.Status != domain.CommitmentOpen {
		return domain.Commitment{}, fmt.Errorf("commitment %s is %s, not open", id, c.Status)
	}
	completed := e.now().UTC()
	if err := e.Repo.UpdateCommitmentStatusTx(ctx, tx, id, status, &completed); err != nil {
		return domain.Commitment{}, err
	}
	if err := e.Events.Append(ctx, tx, evtType, "commitment", id, nil); err != nil {
		return domain.Commitment{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Commitment{}, err
	}
	c.Status = status
	c.CompletedAt = &completed
	return c, nil
}

// CommitmentUpdateOptions are the editable fields of a commitment. Nil
// fields are left untouched; ClearDue removes the due date.
type CommitmentUpdateOptions struct {
	Title         *string
	DueDate       *time.Time
	ClearDue      bool
	PriorityScore *int
}

func (e Engine) UpdateCommitment(ctx context.Context, id string, opts CommitmentUpdateOptions) (domain.Commitment, error) {
	if opts.Title != nil && *opts.Title == "" {
		return domain.Commitment{}, errors.New("title is required")
	}
	if opts.ClearDue && opts.DueDate != nil {
		return domain.Commitment{}, errors.New("due date and clear-due are mutually exclusive")
	}
	if opts.PriorityScore != nil && *opts.PriorityScore < 0 {
		return domain.Commitment{}, errors.New("priority score must be non-negative")
	}
	if err := e.Repo.UpdateCommitment(ctx, id, opts.Title, opts.DueDate, opts.ClearDue, opts.PriorityScore); err != nil {
		return domain.Commitment{}, err
	}
	return e.Repo.GetCommitment(ctx, id)
}

// EntryCreateOptions are parameters for creating a journal entry.
type EntryCreateOptions struct {
	ID          string
	Title       string
	Body        string
	OccurredAt  *time.Time
	ProjectID   string
	IsDecision  bool
	Rationale   string
	Assumptions string
	Confidence  *int
	Stakes      *string
	ReviewDate  *time.Time
}

func (e Engine) CreateEntry(ctx context.Context, opts EntryCreateOptions) (domain.Entry, error) {
	if opts.Title == "" {
		return domain.Entry{}, errors.New("title is required")
	}
	if !opts.IsDecision && (opts.Confidence != nil || opts.Stakes != nil || opts.ReviewDate != nil || opts.Rationale != "") {
		return domain.Entry{}, errors.New("decision fields require --decision")
	}
	if opts.Confidence != nil && (*opts.Confidence < 1 || *opts.Confidence > 5) {
		return domain.Entry{}, fmt.Errorf("confidence %d out of range 1-5", *opts.Confidence)
	}
	if opts.Stakes != nil {
		switch *opts.Stakes {
		case domain.StakesLow, domain.StakesMedium, domain.StakesHigh:
		default:
			return domain.Entry{}, fmt.Errorf("unknown stakes %q", *opts.Stakes)
		}
	}
	if opts.ProjectID != "" {
		if _, err := e.Repo.GetProject(ctx, opts.ProjectID); err != nil {
			return domain.Entry{}, err
		}
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Entry{}, err
	}
	defer tx.Rollback()

	now := e.now().UTC()
	occurred := now
	if opts.OccurredAt != nil {
		occurred = opts.OccurredAt.UTC()
	}
	id := opts.ID
	if id == "" {
		id = e.newID(opts.Title)
	}
	entry := domain.Entry{
		ID:                  id,
		Title:               opts.Title,
		Body:                opts.Body,
		OccurredAt:          occurred,
		IsDecision:          opts.IsDecision,
		DecisionRationale:   opts.Rationale,
		DecisionAssumptions: opts.Assumptions,
		DecisionConfidence:  opts.Confidence,
		DecisionStakes:      opts.Stakes,
		DecisionReviewDate:  opts.ReviewDate,
		ProjectID:           optionalString(opts.ProjectID),
	}
	if opts.IsDecision {
		pending := domain.OutcomePending
		entry.DecisionOutcome = &pending
	}
	if err := e.Repo.InsertEntryTx(ctx, tx, entry); err != nil {
		return domain.Entry{}, fmt.Errorf("insert entry: %w", err)
	}
	if entry.ProjectID != nil {
		if err := e.Repo.TouchProjectTx(ctx, tx, *entry.ProjectID, now); err != nil {
			return domain.Entry{}, err
		}
	}
	evtType := "entry.create"
	if opts.IsDecision {
		evtType = "decision.create"
	}
	if err := e.Events.Append(ctx, tx, evtType, "entry", entry.ID, nil); err != nil {
		return domain.Entry{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Entry{}, err
	}
	return entry, nil
}

// ReviewDecision records a terminal outcome for a decision entry. Re-review
// overwrites a previous outcome.
func (e Engine) ReviewDecision(ctx context.Context, id, outcome string) (domain.Entry, error) {
	switch outcome {
	case domain.OutcomeValidated, domain.OutcomeInvalidated, domain.OutcomeMixed, domain.OutcomeSuperseded:
	default:
		return domain.Entry{}, fmt.Errorf("unknown outcome %q", outcome)
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Entry{}, err
	}
	defer tx.Rollback()

	entry, err := e.Repo.GetEntryTx(ctx, tx, id)
	if err != nil {
		return domain.Entry{}, err
	}
	if !entry.IsDecisionEntry() {
		return domain.Entry{}, fmt.Errorf("entry %s is not a decision", id)
	}
	when := e.now().UTC()
	if err := e.Repo.UpdateDecisionOutcomeTx(ctx, tx, id, outcome, when); err != nil {
		return domain.Entry{}, err
	}
	if err := e.Events.Append(ctx, tx, "decision.review", "entry", id, events.EventPayload{
		"outcome": outcome,
	}); err != nil {
		return domain.Entry{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Entry{}, err
	}
	entry.DecisionOutcome = &outcome
	entry.DecisionOutcomeDate = &when
	return entry, nil
}

// DeleteEntry soft-deletes an entry, removing it from all derived views.
func (e Engine) DeleteEntry(ctx context.Context, id string) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := e.Repo.SoftDeleteEntryTx(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "entry.delete", "entry", id, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// ReflectionCreateOptions are parameters for recording a reflection.
// FollowUps become new commitments tied to the reflection.
type ReflectionCreateOptions struct {
	ID             string
	ReflectionType string
	PeriodType     string
	Mood           string
	Tags           []string
	Answers        []domain.QuestionAnswer
	LinkedEntryIDs []string
	SourceEntryID  string
	ProjectID      string
	FollowUps      []CommitmentCreateOptions
}

func (e Engine) CreateReflection(ctx context.Context, opts ReflectionCreateOptions) (domain.Reflection, error) {
	switch opts.ReflectionType {
	case domain.ReflectionQuick:
		if len(opts.Answers) != 1 {
			return domain.Reflection{}, errors.New("quick reflections take exactly one answer")
		}
	case domain.ReflectionPeriodic:
		switch opts.PeriodType {
		case domain.PeriodWeekly, domain.PeriodMonthly, domain.PeriodQuarterly:
		default:
			return domain.Reflection{}, fmt.Errorf("periodic reflection needs a period, got %q", opts.PeriodType)
		}
	case domain.ReflectionProject:
		if opts.ProjectID == "" {
			return domain.Reflection{}, errors.New("project reflection needs --project")
		}
	case domain.ReflectionRelationship:
	default:
		return domain.Reflection{}, fmt.Errorf("unknown reflection type %q", opts.ReflectionType)
	}
	for _, qa := range opts.Answers {
		if qa.Answer == "" {
			return domain.Reflection{}, fmt.Errorf("question %q has no answer", qa.Question)
		}
	}
	if opts.Mood != "" && !domain.ValidMood(opts.Mood) {
		return domain.Reflection{}, fmt.Errorf("unknown mood %q", opts.Mood)
	}
	if opts.ProjectID != "" {
		if _, err := e.Repo.GetProject(ctx, opts.ProjectID); err != nil {
			return domain.Reflection{}, err
		}
	}
	for _, entryID := range opts.LinkedEntryIDs {
		if _, err := e.Repo.GetEntry(ctx, entryID); err != nil {
			return domain.Reflection{}, fmt.Errorf("linked entry %s: %w", entryID, err)
		}
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Reflection{}, err
	}
	defer tx.Rollback()

	now := e.now().UTC()
	id := opts.ID
	if id == "" {
		id = e.newID(opts.ReflectionType)
	}
	ref := domain.Reflection{
		ID:             id,
		ReflectionType: opts.ReflectionType,
		PeriodType:     optionalString(opts.PeriodType),
		CreatedAt:      now,
		Mood:           optionalString(opts.Mood),
		Tags:           normalizeTags(opts.Tags),
		QuestionsAnswers: append([]domain.QuestionAnswer(nil),
			opts.Answers...),
		LinkedEntryIDs: opts.LinkedEntryIDs,
		SourceEntryID:  optionalString(opts.SourceEntryID),
		ProjectID:      optionalString(opts.ProjectID),
	}

	for _, fu := range opts.FollowUps {
		if fu.Title == "" {
			return domain.Reflection{}, errors.New("follow-up commitment needs a title")
		}
		switch fu.Direction {
		case "":
			fu.Direction = domain.DirectionIOwe
		case domain.DirectionIOwe, domain.DirectionWaitingFor:
		default:
			return domain.Reflection{}, fmt.Errorf("unknown direction %q", fu.Direction)
		}
		c := domain.Commitment{
			ID:            e.newID(id, fu.Title),
			Title:         fu.Title,
			Direction:     fu.Direction,
			Status:        domain.CommitmentOpen,
			Counterparty:  fu.Counterparty,
			DueDate:       fu.DueDate,
			CreatedAt:     now,
			PriorityScore: fu.PriorityScore,
			ProjectID:     optionalString(fu.ProjectID),
		}
		if err := e.Repo.InsertCommitmentTx(ctx, tx, c); err != nil {
			return domain.Reflection{}, fmt.Errorf("insert follow-up commitment: %w", err)
		}
		ref.GeneratedCommitmentIDs = append(ref.GeneratedCommitmentIDs, c.ID)
	}

	if err := e.Repo.InsertReflectionTx(ctx, tx, ref); err != nil {
		return domain.Reflection{}, fmt.Errorf("insert reflection: %w", err)
	}
	if ref.ProjectID != nil {
		if err := e.Repo.TouchProjectTx(ctx, tx, *ref.ProjectID, now); err != nil {
			return domain.Reflection{}, err
		}
	}
	if err := e.Events.Append(ctx, tx, "reflection.create", "reflection", ref.ID, events.EventPayload{
		"reflection_type": ref.ReflectionType,
	}); err != nil {
		return domain.Reflection{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Reflection{}, err
	}
	return ref, nil
}

// CreateProject registers a project for check-ins and scoping.
func (e Engine) CreateProject(ctx context.Context, id, name string, priority int) (domain.Project, error) {
	if name == "" {
		return domain.Project{}, errors.New("name is required")
	}
	if priority == 0 {
		priority = 3
	}
	if priority < 1 || priority > 5 {
		return domain.Project{}, fmt.Errorf("priority %d out of range 1-5", priority)
	}
	if id == "" {
		id = e.newID(name)
	}
	p := domain.Project{
		ID:        id,
		Name:      name,
		Status:    domain.ProjectActive,
		Priority:  priority,
		CreatedAt: e.now().UTC(),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Project{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertProjectTx(ctx, tx, p); err != nil {
		return domain.Project{}, fmt.Errorf("insert project: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "project.create", "project", p.ID, nil); err != nil {
		return domain.Project{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

func (e Engine) UpdateProject(ctx context.Context, id string, status *string, priority *int) (domain.Project, error) {
	if status != nil {
		switch *status {
		case domain.ProjectActive, domain.ProjectOnHold, domain.ProjectCompleted, domain.ProjectArchived:
		default:
			return domain.Project{}, fmt.Errorf("unknown project status %q", *status)
		}
	}
	if priority != nil && (*priority < 1 || *priority > 5) {
		return domain.Project{}, fmt.Errorf("priority %d out of range 1-5", *priority)
	}
	if err := e.Repo.UpdateProject(ctx, id, status, priority, nil); err != nil {
		return domain.Project{}, err
	}
	return e.Repo.GetProject(ctx, id)
}

// SuggestThemes matches the configured theme catalog against a reflection's
// answers.
func (e Engine) SuggestThemes(answers []domain.QuestionAnswer, existingTags []string) []string {
	if e.Config == nil {
		return nil
	}
	table := make([]insight.ThemeRule, 0, len(e.Config.Themes.Catalog))
	for _, tk := range e.Config.Themes.Catalog {
		table = append(table, insight.ThemeRule{Theme: tk.Theme, Keywords: tk.Keywords})
	}
	var ref domain.Reflection
	ref.QuestionsAnswers = answers
	return insight.SuggestThemes(insight.AnswerText(ref), existingTags, table)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// normalizeTags lowercases, trims, and dedupes while keeping input order.
func normalizeTags(tags []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
