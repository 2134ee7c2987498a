package insight

import (
	"math"
	"time"

	"tiller/internal/domain"
)

// Calibration insight signals.
const (
	CalibrationOverconfident  = "overconfident"
	CalibrationWellCalibrated = "well_calibrated"
)

// Heuristic thresholds; product constants, do not tune casually.
const (
	overconfidenceGap   = 20
	wellCalibratedFloor = 70
	minPopulatedLevels  = 2
)

type CalibrationReport struct {
	ReviewedCount         int            `json:"reviewed_count"`
	ValidationRate        int            `json:"validation_rate"`
	OutcomeDistribution   map[string]int `json:"outcome_distribution"`
	ConfidenceCalibration map[int]int    `json:"confidence_calibration"`
	Insight               string         `json:"insight,omitempty"`
	StakesValidationRates map[string]int `json:"stakes_validation_rates"`
	DecisionsThisQuarter  int            `json:"decisions_this_quarter"`
}

// AnalyzeCalibration aggregates reviewed decisions into validation rates,
// the per-confidence-level calibration table, and stakes-level rates. All
// rates are whole percentages; every empty denominator yields 0. Confidence
// levels with no reviewed decisions are omitted from the calibration map so
// consumers can tell "no data" from 0%.
func AnalyzeCalibration(entries []domain.Entry, now time.Time) CalibrationReport {
	report := CalibrationReport{
		OutcomeDistribution: map[string]int{
			domain.OutcomeValidated:   0,
			domain.OutcomeInvalidated: 0,
			domain.OutcomeMixed:       0,
			domain.OutcomeSuperseded:  0,
		},
		ConfidenceCalibration: map[int]int{},
		StakesValidationRates: map[string]int{},
	}

	quarterStart := startOfQuarter(now)
	validated := 0
	reviewedByLevel := map[int]int{}
	validatedByLevel := map[int]int{}
	reviewedByStakes := map[string]int{}
	validatedByStakes := map[string]int{}

	for _, e := range entries {
		if !e.IsDecisionEntry() {
			continue
		}
		if !e.OccurredAt.Before(quarterStart) {
			report.DecisionsThisQuarter++
		}
		if !e.IsReviewed() {
			continue
		}
		outcome := *e.DecisionOutcome
		report.ReviewedCount++
		report.OutcomeDistribution[outcome]++
		isValidated := outcome == domain.OutcomeValidated
		if isValidated {
			validated++
		}
		if e.DecisionConfidence != nil {
			level := *e.DecisionConfidence
			reviewedByLevel[level]++
			if isValidated {
				validatedByLevel[level]++
			}
		}
		if e.DecisionStakes != nil {
			reviewedByStakes[*e.DecisionStakes]++
			if isValidated {
				validatedByStakes[*e.DecisionStakes]++
			}
		}
	}

	report.ValidationRate = percentage(validated, report.ReviewedCount)
	for level, reviewed := range reviewedByLevel {
		report.ConfidenceCalibration[level] = percentage(validatedByLevel[level], reviewed)
	}
	for _, stakes := range []string{domain.StakesLow, domain.StakesMedium, domain.StakesHigh} {
		report.StakesValidationRates[stakes] = percentage(validatedByStakes[stakes], reviewedByStakes[stakes])
	}
	report.Insight = calibrationInsight(report.ConfidenceCalibration, reviewedByLevel, validatedByLevel)
	return report
}

// calibrationInsight compares high-confidence accuracy against low-confidence
// accuracy. Requires at least two populated levels; otherwise no signal.
func calibrationInsight(rates map[int]int, reviewedByLevel, validatedByLevel map[int]int) string {
	if len(rates) < minPopulatedLevels {
		return ""
	}
	rate5, has5 := rates[5]
	lowReviewed := reviewedByLevel[1] + reviewedByLevel[2]
	if has5 && lowReviewed > 0 {
		lowRate := percentage(validatedByLevel[1]+validatedByLevel[2], lowReviewed)
		if rate5 < lowRate+overconfidenceGap {
			return CalibrationOverconfident
		}
	}
	rate4, has4 := rates[4]
	if has4 && has5 && rate5 > rate4 && rate5 >= wellCalibratedFloor {
		return CalibrationWellCalibrated
	}
	return ""
}

func percentage(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(total)))
}
