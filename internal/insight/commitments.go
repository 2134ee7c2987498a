// Package insight derives attention lists and longitudinal statistics from
// journal snapshots. Every function is pure: it takes immutable slices plus an
// explicit now and returns derived values, so callers re-invoke on change and
// tests pin the clock.
package insight

import (
	"sort"
	"time"

	"tiller/internal/domain"
)

// Urgency tags carried by prioritized commitments.
const (
	UrgencyOverdue      = "overdue"
	UrgencyDueThisWeek  = "due_this_week"
	UrgencyHighPriority = "high_priority"
)

// Attention policy for open commitments. The cap keeps the list short enough
// to act on: expired work first, then near-term work, then effort signals.
const (
	commitmentCap     = 5
	overdueSlots      = 2
	nearTermSlots     = 4
	dueSoonWindow     = 7 * 24 * time.Hour
	staleWaitingAge   = 14 * 24 * time.Hour
	highPriorityFloor = 50
)

type RankedCommitment struct {
	Commitment domain.Commitment `json:"commitment"`
	Urgency    string            `json:"urgency" enum:"overdue,due_this_week,high_priority"`
}

type CommitmentTriage struct {
	Overdue            []domain.Commitment `json:"overdue"`
	DueThisWeek        []domain.Commitment `json:"due_this_week"`
	HighPriorityNoDate []domain.Commitment `json:"high_priority_no_date"`
	StaleWaitingFor    []domain.Commitment `json:"stale_waiting_for"`
	Prioritized        []RankedCommitment  `json:"prioritized"`
	HasCommitments     bool                `json:"has_commitments"`
}

// TriageCommitments partitions open commitments by urgency and merges them
// into a single prioritized list capped at five items: up to two overdue,
// filled to four with due-this-week, filled to five with high-priority
// undated. HasCommitments reflects the source sets, not the cap.
func TriageCommitments(commitments []domain.Commitment, now time.Time) CommitmentTriage {
	var t CommitmentTriage
	for _, c := range commitments {
		if c.Status != domain.CommitmentOpen {
			continue
		}
		switch c.Direction {
		case domain.DirectionIOwe:
			switch {
			case c.DueDate != nil && c.DueDate.Before(now):
				t.Overdue = append(t.Overdue, c)
			case c.DueDate != nil && !c.DueDate.After(now.Add(dueSoonWindow)):
				t.DueThisWeek = append(t.DueThisWeek, c)
			case c.DueDate == nil && c.PriorityScore > highPriorityFloor:
				t.HighPriorityNoDate = append(t.HighPriorityNoDate, c)
			}
		case domain.DirectionWaitingFor:
			if c.CreatedAt.Before(now.Add(-staleWaitingAge)) {
				t.StaleWaitingFor = append(t.StaleWaitingFor, c)
			}
		}
	}
	sort.SliceStable(t.Overdue, func(i, j int) bool {
		return t.Overdue[i].DueDate.Before(*t.Overdue[j].DueDate)
	})
	sort.SliceStable(t.DueThisWeek, func(i, j int) bool {
		return t.DueThisWeek[i].DueDate.Before(*t.DueThisWeek[j].DueDate)
	})
	sort.SliceStable(t.HighPriorityNoDate, func(i, j int) bool {
		return t.HighPriorityNoDate[i].PriorityScore > t.HighPriorityNoDate[j].PriorityScore
	})

	t.HasCommitments = len(t.Overdue)+len(t.DueThisWeek)+len(t.HighPriorityNoDate) > 0

	take := func(src []domain.Commitment, urgency string, limit int) {
		for _, c := range src {
			if len(t.Prioritized) >= limit {
				return
			}
			t.Prioritized = append(t.Prioritized, RankedCommitment{Commitment: c, Urgency: urgency})
		}
	}
	take(t.Overdue, UrgencyOverdue, overdueSlots)
	take(t.DueThisWeek, UrgencyDueThisWeek, nearTermSlots)
	take(t.HighPriorityNoDate, UrgencyHighPriority, commitmentCap)
	return t
}
