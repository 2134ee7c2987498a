package insight

import (
	"reflect"
	"testing"
	"time"

	"tiller/internal/domain"
)

var testNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) // Monday

func tp(t time.Time) *time.Time { return &t }
func sp(s string) *string       { return &s }
func ip(i int) *int             { return &i }

func openIOwe(id string, due *time.Time, score int) domain.Commitment {
	return domain.Commitment{
		ID:            id,
		Title:         id,
		Direction:     domain.DirectionIOwe,
		Status:        domain.CommitmentOpen,
		DueDate:       due,
		CreatedAt:     testNow.AddDate(0, 0, -30),
		PriorityScore: score,
	}
}

func TestTriageCommitmentsOrdering(t *testing.T) {
	commitments := []domain.Commitment{
		openIOwe("b", tp(testNow.AddDate(0, 0, 3)), 0),
		openIOwe("a", tp(testNow.AddDate(0, 0, -1)), 0),
		openIOwe("c", nil, 80),
	}
	triage := TriageCommitments(commitments, testNow)
	if !triage.HasCommitments {
		t.Fatal("expected commitments to show")
	}
	got := make([][2]string, 0, len(triage.Prioritized))
	for _, rc := range triage.Prioritized {
		got = append(got, [2]string{rc.Commitment.ID, rc.Urgency})
	}
	want := [][2]string{
		{"a", UrgencyOverdue},
		{"b", UrgencyDueThisWeek},
		{"c", UrgencyHighPriority},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("prioritized = %v, want %v", got, want)
	}
}

func TestTriageCommitmentsCaps(t *testing.T) {
	var commitments []domain.Commitment
	for i := 0; i < 4; i++ {
		commitments = append(commitments, openIOwe("od", tp(testNow.AddDate(0, 0, -1-i)), 0))
	}
	for i := 0; i < 4; i++ {
		commitments = append(commitments, openIOwe("dw", tp(testNow.AddDate(0, 0, 1+i)), 0))
	}
	for i := 0; i < 4; i++ {
		commitments = append(commitments, openIOwe("hp", nil, 60+i))
	}
	triage := TriageCommitments(commitments, testNow)
	if len(triage.Prioritized) != 5 {
		t.Fatalf("prioritized length = %d, want 5", len(triage.Prioritized))
	}
	counts := map[string]int{}
	for _, rc := range triage.Prioritized {
		counts[rc.Urgency]++
	}
	if counts[UrgencyOverdue] != 2 || counts[UrgencyDueThisWeek] != 2 || counts[UrgencyHighPriority] != 1 {
		t.Fatalf("urgency counts = %v, want 2 overdue, 2 due this week, 1 high priority", counts)
	}
	// Source buckets are uncapped even when the prioritized list is full.
	if len(triage.Overdue) != 4 || len(triage.DueThisWeek) != 4 || len(triage.HighPriorityNoDate) != 4 {
		t.Fatalf("bucket sizes = %d/%d/%d, want 4/4/4",
			len(triage.Overdue), len(triage.DueThisWeek), len(triage.HighPriorityNoDate))
	}
}

func TestTriageCommitmentsFilters(t *testing.T) {
	done := openIOwe("done", tp(testNow.AddDate(0, 0, -2)), 0)
	done.Status = domain.CommitmentDone
	lowScore := openIOwe("low", nil, 50) // floor is exclusive
	waiting := domain.Commitment{
		ID:        "wf-old",
		Direction: domain.DirectionWaitingFor,
		Status:    domain.CommitmentOpen,
		CreatedAt: testNow.AddDate(0, 0, -15),
	}
	waitingFresh := domain.Commitment{
		ID:        "wf-new",
		Direction: domain.DirectionWaitingFor,
		Status:    domain.CommitmentOpen,
		CreatedAt: testNow.AddDate(0, 0, -13),
	}
	triage := TriageCommitments([]domain.Commitment{done, lowScore, waiting, waitingFresh}, testNow)
	if len(triage.Prioritized) != 0 {
		t.Fatalf("prioritized = %v, want empty", triage.Prioritized)
	}
	if triage.HasCommitments {
		t.Fatal("expected no commitments to show")
	}
	if len(triage.StaleWaitingFor) != 1 || triage.StaleWaitingFor[0].ID != "wf-old" {
		t.Fatalf("stale waiting-for = %v, want only wf-old", triage.StaleWaitingFor)
	}
}

func TestTriageCommitmentsStableTies(t *testing.T) {
	due := testNow.AddDate(0, 0, 2)
	commitments := []domain.Commitment{
		openIOwe("first", tp(due), 0),
		openIOwe("second", tp(due), 0),
	}
	triage := TriageCommitments(commitments, testNow)
	if triage.Prioritized[0].Commitment.ID != "first" || triage.Prioritized[1].Commitment.ID != "second" {
		t.Fatalf("tie order = %s, %s; want input order",
			triage.Prioritized[0].Commitment.ID, triage.Prioritized[1].Commitment.ID)
	}
}

func TestTriageCommitmentsIdempotent(t *testing.T) {
	commitments := []domain.Commitment{
		openIOwe("a", tp(testNow.AddDate(0, 0, -1)), 0),
		openIOwe("c", nil, 80),
	}
	first := TriageCommitments(commitments, testNow)
	second := TriageCommitments(commitments, testNow)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("repeated triage on the same snapshot differed")
	}
}
