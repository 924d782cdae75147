package types

import "time"

type ProjectStatus string

const (
	ProjectStatusActive   ProjectStatus = "active"
	ProjectStatusPaused   ProjectStatus = "paused"
	ProjectStatusFinished ProjectStatus = "finished"
)

type Project struct {
	ID            string        `db:"id"`
	HeadquarterID *string       `db:"headquarter_id"`
	Name          string        `db:"name"`
	Category      string        `db:"category"`
	Description   *string       `db:"description"`
	FinanceGoal   float64       `db:"finance_goal"`
	Status        ProjectStatus `db:"status"`
	CreatedAt     time.Time     `db:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at"`
}

type ProjectBeneficiary struct {
	ProjectID     string    `db:"project_id"`
	BeneficiaryID string    `db:"beneficiary_id"`
	CreatedAt     time.Time `db:"created_at"`
}
