package insight

import (
	"fmt"

	"tiller/internal/domain"
)

// Boundary checks for snapshots handed to the engine. Callers own their
// data stores; these catch records that would silently skew the analytics.

func CheckCommitments(commitments []domain.Commitment) error {
	for _, c := range commitments {
		switch c.Direction {
		case domain.DirectionIOwe, domain.DirectionWaitingFor:
		default:
			return fmt.Errorf("commitment %s: unknown direction %q", c.ID, c.Direction)
		}
		switch c.Status {
		case domain.CommitmentOpen, domain.CommitmentDone, domain.CommitmentDropped:
		default:
			return fmt.Errorf("commitment %s: unknown status %q", c.ID, c.Status)
		}
		if c.PriorityScore < 0 {
			return fmt.Errorf("commitment %s: negative priority score %d", c.ID, c.PriorityScore)
		}
	}
	return nil
}

func CheckEntries(entries []domain.Entry) error {
	for _, e := range entries {
		if !e.IsDecision {
			continue
		}
		if e.DecisionConfidence != nil && (*e.DecisionConfidence < 1 || *e.DecisionConfidence > 5) {
			return fmt.Errorf("entry %s: confidence %d out of range", e.ID, *e.DecisionConfidence)
		}
		if e.DecisionStakes != nil {
			switch *e.DecisionStakes {
			case domain.StakesLow, domain.StakesMedium, domain.StakesHigh:
			default:
				return fmt.Errorf("entry %s: unknown stakes %q", e.ID, *e.DecisionStakes)
			}
		}
		if e.DecisionOutcome != nil {
			switch *e.DecisionOutcome {
			case domain.OutcomePending, domain.OutcomeValidated, domain.OutcomeInvalidated, domain.OutcomeMixed, domain.OutcomeSuperseded:
			default:
				return fmt.Errorf("entry %s: unknown outcome %q", e.ID, *e.DecisionOutcome)
			}
		}
	}
	return nil
}

func CheckReflections(reflections []domain.Reflection) error {
	for _, r := range reflections {
		switch r.ReflectionType {
		case domain.ReflectionQuick, domain.ReflectionPeriodic, domain.ReflectionProject, domain.ReflectionRelationship:
		default:
			return fmt.Errorf("reflection %s: unknown type %q", r.ID, r.ReflectionType)
		}
		if r.ReflectionType == domain.ReflectionPeriodic {
			if r.PeriodType == nil {
				return fmt.Errorf("reflection %s: periodic reflection missing period type", r.ID)
			}
			switch *r.PeriodType {
			case domain.PeriodWeekly, domain.PeriodMonthly, domain.PeriodQuarterly:
			default:
				return fmt.Errorf("reflection %s: unknown period type %q", r.ID, *r.PeriodType)
			}
		}
		if r.Mood != nil && moodIndex(*r.Mood) < 0 {
			return fmt.Errorf("reflection %s: unknown mood %q", r.ID, *r.Mood)
		}
	}
	return nil
}
