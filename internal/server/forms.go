package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"fundacion/internal/scoring"
	"fundacion/internal/utils"
	"fundacion/pkg/types"

	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

// newValidator reports field errors under their form names, so
// "technical_tactical.pass" rather than "TechnicalTactical.Pass".
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldErrors flattens validator errors into form field -> message. Errors
// that are not validation errors come back under the empty key.
func fieldErrors(err error) map[string]string {
	out := make(map[string]string)
	if err == nil {
		return out
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out[""] = err.Error()
		return out
	}

	for _, fe := range verrs {
		// drop the struct name prefix
		_, field, _ := strings.Cut(fe.Namespace(), ".")
		out[field] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Campo obligatorio"
	case "min", "gte":
		return fmt.Sprintf("Debe ser al menos %s", fe.Param())
	case "max", "lte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Máximo %s caracteres", fe.Param())
		}
		return fmt.Sprintf("Debe ser como máximo %s", fe.Param())
	case "oneof":
		return "Valor no permitido"
	case "numeric":
		return "Debe ser un número"
	case "datetime":
		return "Fecha inválida (AAAA-MM-DD)"
	default:
		return "Valor inválido"
	}
}

func parseDonationForm(v *validator.Validate, f *types.DonationForm) (float64, error) {
	if err := v.Struct(f); err != nil {
		return 0, err
	}

	amount, err := types.ParseAmount(f.Amount)
	if err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, fmt.Errorf("%w: must be positive", types.ErrInvalidAmount)
	}

	return amount, nil
}

// beneficiaryFromForm validates the form and writes it onto beneficiary,
// recomputing the derived scores. Any performance value on the form is
// overwritten with the computed one.
func beneficiaryFromForm(v *validator.Validate, f *types.BeneficiaryForm, beneficiary *types.Beneficiary) error {
	if err := v.Struct(f); err != nil {
		return err
	}

	beneficiary.HeadquarterID = f.HeadquarterID
	beneficiary.FirstName = strings.TrimSpace(f.FirstName)
	beneficiary.LastName = strings.TrimSpace(f.LastName)
	beneficiary.DocumentNumber = optionalString(f.DocumentNumber)
	beneficiary.Gender = optionalString(f.Gender)
	beneficiary.Position = optionalString(f.Position)
	beneficiary.GuardianName = optionalString(f.GuardianName)
	beneficiary.GuardianPhone = optionalString(f.GuardianPhone)

	beneficiary.BirthDate = nil
	if f.BirthDate != "" {
		birth, err := time.Parse(dateLayout, f.BirthDate)
		if err != nil {
			return fmt.Errorf("invalid birth date: %w", err)
		}
		beneficiary.BirthDate = &birth
	}

	details := &types.BeneficiaryDetails{
		Anthropometric:    f.Anthropometric,
		TechnicalTactical: f.TechnicalTactical,
		Emotional:         f.Emotional,
		Observations:      strings.TrimSpace(f.Observations),
	}

	performance, _ := scoring.Derive(details)
	beneficiary.Performance = performance
	f.Performance = performance

	return beneficiary.SetDetails(details)
}

func beneficiaryForm(beneficiary *types.Beneficiary) (*types.BeneficiaryForm, error) {
	details, err := beneficiary.DecodeDetails()
	if err != nil {
		return nil, err
	}

	f := &types.BeneficiaryForm{
		HeadquarterID:     beneficiary.HeadquarterID,
		FirstName:         beneficiary.FirstName,
		LastName:          beneficiary.LastName,
		DocumentNumber:    utils.PtrString(beneficiary.DocumentNumber),
		Gender:            utils.PtrString(beneficiary.Gender),
		Position:          utils.PtrString(beneficiary.Position),
		GuardianName:      utils.PtrString(beneficiary.GuardianName),
		GuardianPhone:     utils.PtrString(beneficiary.GuardianPhone),
		Anthropometric:    details.Anthropometric,
		TechnicalTactical: details.TechnicalTactical,
		Emotional:         details.Emotional,
		Observations:      details.Observations,
		Performance:       beneficiary.Performance,
	}
	if beneficiary.BirthDate != nil {
		f.BirthDate = beneficiary.BirthDate.Format(dateLayout)
	}

	return f, nil
}

// evaluationFromForm builds a dated evaluation snapshot and the details it
// captured.
func evaluationFromForm(v *validator.Validate, f *types.EvaluationForm, beneficiaryID, evaluatorID string) (*types.Evaluation, *types.BeneficiaryDetails, error) {
	if err := v.Struct(f); err != nil {
		return nil, nil, err
	}

	details := &types.BeneficiaryDetails{
		Anthropometric:    f.Anthropometric,
		TechnicalTactical: f.TechnicalTactical,
		Emotional:         f.Emotional,
		Observations:      strings.TrimSpace(f.Observations),
	}

	performance, emotional := scoring.Derive(details)

	evaluation := &types.Evaluation{
		BeneficiaryID:  beneficiaryID,
		EvaluatorID:    evaluatorID,
		Performance:    performance,
		EmotionalScore: emotional,
	}

	data, err := json.Marshal(details)
	if err != nil {
		return nil, nil, fmt.Errorf("encode evaluation details: %w", err)
	}
	evaluation.Details = data

	return evaluation, details, nil
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func projectFromForm(v *validator.Validate, f *types.ProjectForm) (*types.Project, error) {
	if err := v.Struct(f); err != nil {
		return nil, err
	}

	project := &types.Project{
		Name:          strings.TrimSpace(f.Name),
		Category:      strings.TrimSpace(f.Category),
		Description:   optionalString(f.Description),
		HeadquarterID: optionalString(f.HeadquarterID),
		Status:        types.ProjectStatusActive,
	}

	if f.FinanceGoal != "" {
		goal, err := types.ParseAmount(f.FinanceGoal)
		if err != nil {
			return nil, err
		}
		project.FinanceGoal = goal
	}

	return project, nil
}
