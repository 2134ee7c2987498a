package insight

import (
	"fmt"
	"sort"
	"time"

	"tiller/internal/domain"
)

// Reasons a decision lands in the review queue.
const (
	ReviewOverdue = "overdue"
	ReviewDueSoon = "due_soon"
	ReviewStale   = "stale"
)

const (
	reviewCap        = 4
	reviewSoonWindow = 7 * 24 * time.Hour
	decisionStaleAge = 30 * 24 * time.Hour
)

type RankedReview struct {
	Entry  domain.Entry `json:"entry"`
	Reason string       `json:"reason" enum:"overdue,due_soon,stale"`
	Label  string       `json:"label"`
}

type ReviewQueue struct {
	Overdue     []domain.Entry `json:"overdue"`
	DueSoon     []domain.Entry `json:"due_soon"`
	Stale       []domain.Entry `json:"stale"`
	Prioritized []RankedReview `json:"prioritized"`
	HasReviews  bool           `json:"has_reviews"`
}

// QueueDecisionReviews collects pending decisions that deserve a review and
// merges them overdue-first. Unlike the commitment merge there are no
// per-category slots before the truncation to four: review debt is surfaced
// in full before softer signals.
func QueueDecisionReviews(entries []domain.Entry, now time.Time) ReviewQueue {
	var q ReviewQueue
	for _, e := range entries {
		if !e.IsDecisionEntry() || e.IsReviewed() {
			continue
		}
		switch {
		case e.DecisionReviewDate != nil && e.DecisionReviewDate.Before(now):
			q.Overdue = append(q.Overdue, e)
		case e.DecisionReviewDate != nil && !e.DecisionReviewDate.After(now.Add(reviewSoonWindow)):
			q.DueSoon = append(q.DueSoon, e)
		case e.DecisionReviewDate == nil && e.OccurredAt.Before(now.Add(-decisionStaleAge)):
			q.Stale = append(q.Stale, e)
		}
	}
	sort.SliceStable(q.Overdue, func(i, j int) bool {
		return q.Overdue[i].DecisionReviewDate.Before(*q.Overdue[j].DecisionReviewDate)
	})
	sort.SliceStable(q.DueSoon, func(i, j int) bool {
		return q.DueSoon[i].DecisionReviewDate.Before(*q.DueSoon[j].DecisionReviewDate)
	})

	q.HasReviews = len(q.Overdue)+len(q.DueSoon)+len(q.Stale) > 0

	push := func(src []domain.Entry, reason string) {
		for _, e := range src {
			if len(q.Prioritized) >= reviewCap {
				return
			}
			q.Prioritized = append(q.Prioritized, RankedReview{Entry: e, Reason: reason, Label: reviewLabel(e, reason, now)})
		}
	}
	push(q.Overdue, ReviewOverdue)
	push(q.DueSoon, ReviewDueSoon)
	push(q.Stale, ReviewStale)
	return q
}

func reviewLabel(e domain.Entry, reason string, now time.Time) string {
	switch reason {
	case ReviewOverdue:
		days := wholeDays(*e.DecisionReviewDate, now)
		if days == 0 {
			return "due today"
		}
		return fmt.Sprintf("%dd overdue", days)
	case ReviewDueSoon:
		days := wholeDays(now, *e.DecisionReviewDate)
		if days == 0 {
			return "due today"
		}
		return fmt.Sprintf("due in %dd", days)
	default:
		return "needs review"
	}
}

// PendingDecisions filters live decisions that have not reached a terminal
// outcome, preserving input order.
func PendingDecisions(entries []domain.Entry) []domain.Entry {
	var out []domain.Entry
	for _, e := range entries {
		if e.IsDecisionEntry() && !e.IsReviewed() {
			out = append(out, e)
		}
	}
	return out
}

// Decisions filters live decision entries, preserving input order.
func Decisions(entries []domain.Entry) []domain.Entry {
	var out []domain.Entry
	for _, e := range entries {
		if e.IsDecisionEntry() {
			out = append(out, e)
		}
	}
	return out
}
