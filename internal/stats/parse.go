package stats

import (
	"fmt"

	"fundacion/internal/utils"
	"fundacion/pkg/types"
)

// ParseDonations converts store rows into typed donations. A row whose
// amount cannot be parsed fails the whole batch.
func ParseDonations(rows []*types.DonationRow) ([]*types.Donation, error) {
	out := make([]*types.Donation, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}

		donation, err := ParseDonation(row)
		if err != nil {
			return nil, err
		}
		out = append(out, donation)
	}

	return out, nil
}

func ParseDonation(row *types.DonationRow) (*types.Donation, error) {
	amount, err := types.ParseAmount(row.Amount)
	if err != nil {
		return nil, fmt.Errorf("donation %s: %w", row.ID, err)
	}

	donation := &types.Donation{
		ID:               row.ID,
		UserID:           row.UserID,
		Amount:           amount,
		Status:           row.Status,
		PaymentReference: row.PaymentReference,
		CreatedAt:        row.CreatedAt,
	}

	if row.ProjectID == nil || *row.ProjectID == "" {
		return donation, nil
	}

	donation.ProjectID = row.ProjectID
	donation.Project = &types.ProjectRef{
		ID:       *row.ProjectID,
		Name:     utils.PtrString(row.ProjectName),
		Category: utils.PtrString(row.ProjectCategory),
	}

	// a goal that is missing or garbled is reported as "no goal"
	if row.ProjectFinanceGoal != nil {
		if goal, err := types.ParseAmount(*row.ProjectFinanceGoal); err == nil && goal > 0 {
			donation.Project.FinanceGoal = goal
		}
	}

	return donation, nil
}
