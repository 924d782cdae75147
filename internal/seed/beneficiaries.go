package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"fundacion/internal/scoring"
	"fundacion/internal/utils"
	"fundacion/pkg/types"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is satisfied by *pgxpool.Pool.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type Repositories struct {
	Beneficiaries interface {
		CreateBeneficiary(ctx context.Context, beneficiary *types.Beneficiary) error
	}
	Evaluations interface {
		CreateEvaluation(ctx context.Context, evaluation *types.Evaluation) error
	}
	Members interface {
		LinkBeneficiary(ctx context.Context, projectID, beneficiaryID string) error
	}
	Donations interface {
		CreateDonation(ctx context.Context, donation *types.Donation) error
	}
}

// Seeded rows are marked by this document prefix so a reset only removes
// what the seeder created.
const seedDocumentPrefix = "SEED-"

var (
	fakeFirstNames = []string{"Mateo", "Sofía", "Samuel", "Isabella", "Emiliano", "Luciana", "Tomás", "Salomé", "Jerónimo", "Gabriela", "Martín", "Antonia"}
	fakeLastNames  = []string{"García", "Rodríguez", "Martínez", "Hernández", "López", "González", "Pérez", "Sánchez", "Ramírez", "Torres", "Flórez", "Vargas"}
	fakePositions  = []string{"portero", "defensa", "mediocampista", "delantero"}
)

type weightedDonationStatus struct {
	Status types.DonationStatus
	Weight int
}

var weightedStatuses = []weightedDonationStatus{
	{Status: types.DonationStatusApproved, Weight: 70},
	{Status: types.DonationStatusPending, Weight: 15},
	{Status: types.DonationStatusRejected, Weight: 8},
	{Status: types.DonationStatusFailed, Weight: 7},
}

// SeedFakeBeneficiaries creates count beneficiaries spread over the seeded
// headquarters, each with one evaluation and linked to its site's projects.
// Seeded donors then give a few donations across the projects and the
// general fund. Requires the headquarters, users and projects seeds.
func SeedFakeBeneficiaries(ctx context.Context, pool Execer, repos Repositories, count int, reset bool, rng *rand.Rand) error {
	if count <= 0 {
		fmt.Println("Skipping fake beneficiaries seed because count <= 0")
		return nil
	}

	if reset {
		result, err := pool.Exec(ctx, `DELETE FROM fundacion.beneficiaries WHERE document_number LIKE 'SEED-%'`)
		if err != nil {
			return fmt.Errorf("failed to reset seeded fake beneficiaries: %w", err)
		}
		fmt.Printf("Reset seeded fake beneficiaries: %d deleted\n", result.RowsAffected())

		donorIDs := seedUserIDsByRole(types.UserRoleDonator)
		result, err = pool.Exec(ctx, `DELETE FROM fundacion.donations WHERE user_id = ANY($1) AND payment_reference LIKE 'seed_%'`, donorIDs)
		if err != nil {
			return fmt.Errorf("failed to reset seeded fake donations: %w", err)
		}
		fmt.Printf("Reset seeded fake donations: %d deleted\n", result.RowsAffected())
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	evaluatorIDs := seedUserIDsByRole(types.UserRoleSiteDirector)
	if len(evaluatorIDs) == 0 {
		return fmt.Errorf("no site directors available; seed fake users first")
	}

	created := 0
	for i := 0; i < count; i++ {
		hq := Headquarters[i%len(Headquarters)]

		details := randomDetails(rng)
		performance, emotional := scoring.Derive(details)

		beneficiary := &types.Beneficiary{
			HeadquarterID:  hq.ID,
			FirstName:      fakeFirstNames[rng.Intn(len(fakeFirstNames))],
			LastName:       fakeLastNames[rng.Intn(len(fakeLastNames))],
			DocumentNumber: utils.StringPtr(fmt.Sprintf("%s%06d", seedDocumentPrefix, rng.Intn(1000000))),
			BirthDate:      utils.TimePtr(time.Now().AddDate(-(8 + rng.Intn(9)), -rng.Intn(12), 0).Truncate(24 * time.Hour)),
			Position:       utils.StringPtr(fakePositions[rng.Intn(len(fakePositions))]),
			Performance:    performance,
			IsActive:       rng.Intn(100) < 92,
		}
		if err := beneficiary.SetDetails(details); err != nil {
			return err
		}

		if err := repos.Beneficiaries.CreateBeneficiary(ctx, beneficiary); err != nil {
			return fmt.Errorf("failed to create fake beneficiary %d: %w", i+1, err)
		}

		evaluation := &types.Evaluation{
			BeneficiaryID:  beneficiary.ID,
			EvaluatorID:    evaluatorIDs[rng.Intn(len(evaluatorIDs))],
			Performance:    performance,
			EmotionalScore: emotional,
			Details:        beneficiary.Details,
			EvaluatedAt:    time.Now().Add(-time.Duration(rng.Intn(60*24)) * time.Hour),
		}
		if err := repos.Evaluations.CreateEvaluation(ctx, evaluation); err != nil {
			return fmt.Errorf("failed to create evaluation for fake beneficiary %s: %w", beneficiary.ID, err)
		}

		for _, project := range Projects {
			if project.HeadquarterID != nil && *project.HeadquarterID != hq.ID {
				continue
			}
			if err := repos.Members.LinkBeneficiary(ctx, project.ID, beneficiary.ID); err != nil {
				return fmt.Errorf("failed to link fake beneficiary %s to project %s: %w", beneficiary.ID, project.ID, err)
			}
		}

		created++
	}

	fmt.Printf("Fake beneficiaries seeded: %d created\n", created)

	donations, err := seedFakeDonations(ctx, repos, rng)
	if err != nil {
		return err
	}

	fmt.Printf("Fake donations seeded: %d created\n", donations)
	return nil
}

func seedFakeDonations(ctx context.Context, repos Repositories, rng *rand.Rand) (int, error) {
	created := 0
	for _, donorID := range seedUserIDsByRole(types.UserRoleDonator) {
		n := 2 + rng.Intn(4)
		for j := 0; j < n; j++ {
			var projectID *string
			// One in five goes to the general fund.
			if rng.Intn(5) > 0 {
				project := Projects[rng.Intn(len(Projects))]
				projectID = utils.StringPtr(project.ID)
			}

			donation := &types.Donation{
				UserID:           donorID,
				ProjectID:        projectID,
				Amount:           float64((rng.Intn(40) + 1) * 25000),
				Status:           pickWeightedStatus(rng),
				PaymentReference: utils.StringPtr("seed_" + utils.NanoIDSize(16)),
			}
			if err := repos.Donations.CreateDonation(ctx, donation); err != nil {
				return created, fmt.Errorf("failed to create fake donation for %s: %w", donorID, err)
			}
			created++
		}
	}
	return created, nil
}

func randomDetails(rng *rand.Rand) *types.BeneficiaryDetails {
	rating := func() *int {
		// Leave roughly one in eight skills unrated.
		if rng.Intn(8) == 0 {
			return nil
		}
		return utils.IntPtr(rng.Intn(5) + 1)
	}

	return &types.BeneficiaryDetails{
		Anthropometric: types.AnthropometricData{
			HeightCm: utils.Float64Ptr(float64(120 + rng.Intn(60))),
			WeightKg: utils.Float64Ptr(float64(25 + rng.Intn(40))),
		},
		TechnicalTactical: types.TechnicalTacticalRating{
			Pass:                       rating(),
			Reception:                  rating(),
			Shot:                       rating(),
			Dribble:                    rating(),
			SpatialTemporalPositioning: rating(),
		},
		Emotional: types.EmotionalRating{
			Motivation:           rating(),
			Teamwork:             rating(),
			Discipline:           rating(),
			SelfEsteem:           rating(),
			FrustrationTolerance: rating(),
		},
	}
}

func pickWeightedStatus(rng *rand.Rand) types.DonationStatus {
	total := 0
	for _, item := range weightedStatuses {
		total += item.Weight
	}

	if total == 0 {
		return types.DonationStatusPending
	}

	roll := rng.Intn(total)
	running := 0
	for _, item := range weightedStatuses {
		running += item.Weight
		if roll < running {
			return item.Status
		}
	}

	return types.DonationStatusPending
}
