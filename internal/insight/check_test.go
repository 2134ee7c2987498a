package insight

import (
	"testing"

	"tiller/internal/domain"
)

func TestCheckEntriesRejectsBadConfidence(t *testing.T) {
	good := domain.Entry{ID: "ok", IsDecision: true, DecisionConfidence: ip(3)}
	if err := CheckEntries([]domain.Entry{good}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := domain.Entry{ID: "bad", IsDecision: true, DecisionConfidence: ip(6)}
	if err := CheckEntries([]domain.Entry{bad}); err == nil {
		t.Fatal("expected error for confidence out of range")
	}
}

func TestCheckCommitmentsRejectsUnknownDirection(t *testing.T) {
	bad := domain.Commitment{ID: "bad", Direction: "sideways", Status: domain.CommitmentOpen}
	if err := CheckCommitments([]domain.Commitment{bad}); err == nil {
		t.Fatal("expected error for unknown direction")
	}
}

func TestCheckReflectionsRequiresPeriodType(t *testing.T) {
	bad := domain.Reflection{ID: "bad", ReflectionType: domain.ReflectionPeriodic}
	if err := CheckReflections([]domain.Reflection{bad}); err == nil {
		t.Fatal("expected error for periodic reflection without period type")
	}
	period := domain.PeriodWeekly
	good := domain.Reflection{ID: "ok", ReflectionType: domain.ReflectionPeriodic, PeriodType: &period}
	if err := CheckReflections([]domain.Reflection{good}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
