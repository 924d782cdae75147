package types

import (
	"encoding/json"
	"fmt"
	"time"
)

type Beneficiary struct {
	ID             string          `db:"id"`
	HeadquarterID  string          `db:"headquarter_id"`
	FirstName      string          `db:"first_name"`
	LastName       string          `db:"last_name"`
	DocumentNumber *string         `db:"document_number"`
	BirthDate      *time.Time      `db:"birth_date"`
	Gender         *string         `db:"gender"`
	Position       *string         `db:"position"`
	GuardianName   *string         `db:"guardian_name"`
	GuardianPhone  *string         `db:"guardian_phone"`
	Details        json.RawMessage `db:"details"` // jsonb BeneficiaryDetails
	Performance    int             `db:"performance"`
	PhotoKey       *string         `db:"photo_key"`
	IsActive       bool            `db:"is_active"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

func (b *Beneficiary) FullName() string {
	return fmt.Sprintf("%s %s", b.FirstName, b.LastName)
}

// DecodeDetails unpacks the jsonb detail blob. An empty blob yields
// zero-valued details.
func (b *Beneficiary) DecodeDetails() (*BeneficiaryDetails, error) {
	details := new(BeneficiaryDetails)
	if len(b.Details) == 0 || string(b.Details) == "null" {
		return details, nil
	}

	if err := json.Unmarshal(b.Details, details); err != nil {
		return nil, fmt.Errorf("decode beneficiary details: %w", err)
	}

	return details, nil
}

func (b *Beneficiary) SetDetails(details *BeneficiaryDetails) error {
	data, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("encode beneficiary details: %w", err)
	}

	b.Details = data
	return nil
}

// BeneficiaryDetails is serialized into the beneficiary's details column.
type BeneficiaryDetails struct {
	Anthropometric    AnthropometricData      `json:"anthropometric"`
	TechnicalTactical TechnicalTacticalRating `json:"technical_tactical"`
	Emotional         EmotionalRating         `json:"emotional"`
	Observations      string                  `json:"observations,omitempty"`
}

// TechnicalTacticalRating holds the five skill scores, each 1 to 5 when
// rated. A nil field has not been rated yet.
type TechnicalTacticalRating struct {
	Pass                       *int `json:"pass,omitempty" form:"pass" validate:"omitempty,min=1,max=5"`
	Reception                  *int `json:"reception,omitempty" form:"reception" validate:"omitempty,min=1,max=5"`
	Shot                       *int `json:"shot,omitempty" form:"shot" validate:"omitempty,min=1,max=5"`
	Dribble                    *int `json:"dribble,omitempty" form:"dribble" validate:"omitempty,min=1,max=5"`
	SpatialTemporalPositioning *int `json:"spatial_temporal_positioning,omitempty" form:"spatial_temporal_positioning" validate:"omitempty,min=1,max=5"`
}

// Scores returns the ratings keyed by skill name, including nil entries.
func (r TechnicalTacticalRating) Scores() map[string]*int {
	return map[string]*int{
		"pass":                         r.Pass,
		"reception":                    r.Reception,
		"shot":                         r.Shot,
		"dribble":                      r.Dribble,
		"spatial_temporal_positioning": r.SpatialTemporalPositioning,
	}
}

type EmotionalRating struct {
	Motivation           *int `json:"motivation,omitempty" form:"motivation" validate:"omitempty,min=1,max=5"`
	Teamwork             *int `json:"teamwork,omitempty" form:"teamwork" validate:"omitempty,min=1,max=5"`
	Discipline           *int `json:"discipline,omitempty" form:"discipline" validate:"omitempty,min=1,max=5"`
	SelfEsteem           *int `json:"self_esteem,omitempty" form:"self_esteem" validate:"omitempty,min=1,max=5"`
	FrustrationTolerance *int `json:"frustration_tolerance,omitempty" form:"frustration_tolerance" validate:"omitempty,min=1,max=5"`
}

func (r EmotionalRating) Scores() map[string]*int {
	return map[string]*int{
		"motivation":            r.Motivation,
		"teamwork":              r.Teamwork,
		"discipline":            r.Discipline,
		"self_esteem":           r.SelfEsteem,
		"frustration_tolerance": r.FrustrationTolerance,
	}
}

type AnthropometricData struct {
	HeightCm *float64 `json:"height_cm,omitempty" form:"height_cm" validate:"omitempty,gte=50,lte=250"`
	WeightKg *float64 `json:"weight_kg,omitempty" form:"weight_kg" validate:"omitempty,gte=10,lte=250"`
	BMI      *float64 `json:"bmi,omitempty" form:"-"`
}

// Evaluation is a dated snapshot of a beneficiary's details and scores.
type Evaluation struct {
	ID             string          `db:"id"`
	BeneficiaryID  string          `db:"beneficiary_id"`
	EvaluatorID    string          `db:"evaluator_id"`
	Performance    int             `db:"performance"`
	EmotionalScore int             `db:"emotional_score"`
	Details        json.RawMessage `db:"details"`
	EvaluatedAt    time.Time       `db:"evaluated_at"`
	CreatedAt      time.Time       `db:"created_at"`
}
