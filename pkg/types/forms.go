package types

type BeneficiaryForm struct {
	HeadquarterID  string `form:"headquarter_id" validate:"required"`
	FirstName      string `form:"first_name" validate:"required,max=80"`
	LastName       string `form:"last_name" validate:"required,max=80"`
	DocumentNumber string `form:"document_number" validate:"omitempty,max=30"`
	BirthDate      string `form:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Gender         string `form:"gender" validate:"omitempty,oneof=female male other"`
	Position       string `form:"position" validate:"omitempty,max=40"`
	GuardianName   string `form:"guardian_name" validate:"omitempty,max=120"`
	GuardianPhone  string `form:"guardian_phone" validate:"omitempty,max=30"`

	Anthropometric    AnthropometricData      `form:"anthropometric"`
	TechnicalTactical TechnicalTacticalRating `form:"technical_tactical"`
	Emotional         EmotionalRating         `form:"emotional"`
	Observations      string                  `form:"observations" validate:"max=2000"`

	// Performance is displayed read-only and always recomputed from
	// TechnicalTactical; whatever the client posts here is discarded.
	Performance int `form:"performance"`
}

type EvaluationForm struct {
	Anthropometric    AnthropometricData      `form:"anthropometric"`
	TechnicalTactical TechnicalTacticalRating `form:"technical_tactical"`
	Emotional         EmotionalRating         `form:"emotional"`
	Observations      string                  `form:"observations" validate:"max=2000"`
}

type ProjectForm struct {
	Name          string `form:"name" validate:"required,max=120"`
	Category      string `form:"category" validate:"required,max=60"`
	Description   string `form:"description" validate:"max=4000"`
	FinanceGoal   string `form:"finance_goal" validate:"omitempty,numeric"`
	HeadquarterID string `form:"headquarter_id"`
}

type HeadquarterForm struct {
	Name       string `form:"name" validate:"required,max=120"`
	City       string `form:"city" validate:"required,max=80"`
	Address    string `form:"address" validate:"max=200"`
	DirectorID string `form:"director_id"`
}

type DonationForm struct {
	Amount string `form:"amount" validate:"required,numeric"`
}

type ProjectBeneficiaryForm struct {
	BeneficiaryID string `form:"beneficiary_id" validate:"required"`
}
