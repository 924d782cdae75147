// Package scoring derives the percentages shown on a beneficiary's record
// from the ratings captured in the evaluation sub-forms.
package scoring

import (
	"math"

	"fundacion/internal/utils"
	"fundacion/pkg/types"
)

const (
	minRating = 1
	maxRating = 5
)

var (
	TechnicalSkills = []string{
		"pass",
		"reception",
		"shot",
		"dribble",
		"spatial_temporal_positioning",
	}

	EmotionalTraits = []string{
		"motivation",
		"teamwork",
		"discipline",
		"self_esteem",
		"frustration_tolerance",
	}
)

// PerformanceFromScores averages the rated technical skills in scores and
// scales the 1-5 average to a 0-100 percentage. Unknown keys are ignored,
// as are nil, zero or out of range values. No rated skills yields 0.
func PerformanceFromScores(scores map[string]*int) int {
	return percentage(scores, TechnicalSkills)
}

func Performance(r types.TechnicalTacticalRating) int {
	return PerformanceFromScores(r.Scores())
}

func Emotional(r types.EmotionalRating) int {
	return percentage(r.Scores(), EmotionalTraits)
}

func percentage(scores map[string]*int, fields []string) int {
	var sum, rated int
	for _, field := range fields {
		v := scores[field]
		if v == nil || *v < minRating || *v > maxRating {
			continue
		}
		sum += *v
		rated++
	}

	if rated == 0 {
		return 0
	}

	average := float64(sum) / float64(rated)
	return int(math.Round(average / maxRating * 100))
}

// BMI returns weight / height² rounded to one decimal, or nil when either
// measurement is missing.
func BMI(a types.AnthropometricData) *float64 {
	if a.HeightCm == nil || a.WeightKg == nil || *a.HeightCm <= 0 {
		return nil
	}

	meters := *a.HeightCm / 100
	return utils.Float64Ptr(utils.RoundFloat64(*a.WeightKg/(meters*meters), 1))
}

// Derive fills the computed fields of details and returns the technical
// performance and emotional percentages.
func Derive(details *types.BeneficiaryDetails) (performance int, emotional int) {
	details.Anthropometric.BMI = BMI(details.Anthropometric)
	return Performance(details.TechnicalTactical), Emotional(details.Emotional)
}
