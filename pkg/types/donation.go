package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

type DonationStatus string

const (
	DonationStatusPending  DonationStatus = "pending"
	DonationStatusApproved DonationStatus = "approved"
	DonationStatusRejected DonationStatus = "rejected"
	DonationStatusFailed   DonationStatus = "failed"
)

// DonationRow is a donation as read from the store, joined with the minimal
// project fields. Numeric columns arrive as text.
type DonationRow struct {
	ID                 string         `db:"id"`
	UserID             string         `db:"user_id"`
	ProjectID          *string        `db:"project_id"`
	Amount             string         `db:"amount"`
	Status             DonationStatus `db:"status"`
	PaymentReference   *string        `db:"payment_reference"`
	CreatedAt          time.Time      `db:"created_at"`
	ProjectName        *string        `db:"project_name"`
	ProjectCategory    *string        `db:"project_category"`
	ProjectFinanceGoal *string        `db:"project_finance_goal"`
}

type Donation struct {
	ID               string         `json:"id"`
	UserID           string         `json:"userId"`
	ProjectID        *string        `json:"projectId"`
	Amount           float64        `json:"amount"`
	Status           DonationStatus `json:"status"`
	PaymentReference *string        `json:"-"`
	CreatedAt        time.Time      `json:"createdAt"`
	Project          *ProjectRef    `json:"project,omitempty"`
}

// ProjectRef is the project summary carried on a donation.
type ProjectRef struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	FinanceGoal float64 `json:"financeGoal"`
}

type DonationStats struct {
	TotalDonated          float64           `json:"totalDonated"`
	ProjectsSupported     int               `json:"projectsSupported"`
	BeneficiariesImpacted int               `json:"beneficiariesImpacted"`
	RecentDonations       []*Donation       `json:"recentDonations"`
	SupportedProjects     []*ProjectSummary `json:"supportedProjects"`
}

type ProjectSummary struct {
	ProjectID    string  `json:"project_id"`
	ProjectName  string  `json:"project_name"`
	Category     string  `json:"category"`
	TotalDonated float64 `json:"totalDonated"`
	Progress     int     `json:"progress"`
	FinanceGoal  float64 `json:"finance_goal"`
	HasGoal      bool    `json:"has_goal"`
}

// ParseAmount converts a monetary value that may arrive as text or as a
// number into a float64.
func ParseAmount(v any) (float64, error) {
	switch t := v.(type) {
	case nil:
		return 0, fmt.Errorf("%w: missing value", ErrInvalidAmount)
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, t)
		}
		return f, nil
	case *string:
		if t == nil {
			return 0, fmt.Errorf("%w: missing value", ErrInvalidAmount)
		}
		return ParseAmount(*t)
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidAmount, v)
	}
}
