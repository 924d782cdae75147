package seed

import (
	"context"
	"fmt"

	"fundacion/internal/utils"
	"fundacion/pkg/types"
)

type HeadquarterUpserter interface {
	UpsertHeadquarter(ctx context.Context, hq *types.Headquarter) error
}

// Headquarters is the fixed list of sites. IDs are stable so reseeding
// updates rows in place.
//
// To generate new IDs: `go run ./cmd/fundacion nanoid`
var Headquarters = []types.Headquarter{
	{
		ID:       "hq1Kx4c9Qm2TzR7vLp0sWb5nYd8aFe3G",
		Name:     "Sede Norte",
		City:     "Bogotá",
		Address:  utils.StringPtr("Calle 170 # 45-20"),
		IsActive: true,
	},
	{
		ID:       "hq2Vb6t1Hs9NwE4uJc7kXo0mPq3rZi5L",
		Name:     "Sede Sur",
		City:     "Bogotá",
		Address:  utils.StringPtr("Carrera 10 # 48-12 Sur"),
		IsActive: true,
	},
	{
		ID:       "hq3Ag8y2Df5KlM0bNs6cRe1tUw9vXj4H",
		Name:     "Sede Soacha",
		City:     "Soacha",
		Address:  utils.StringPtr("Autopista Sur # 32-15"),
		IsActive: true,
	},
}

func SeedHeadquarters(ctx context.Context, repo HeadquarterUpserter) error {
	upserted := 0
	for _, hq := range Headquarters {
		hq := hq
		if director, ok := siteDirectorFor(hq.ID); ok {
			hq.DirectorID = utils.StringPtr(director.ID)
		}

		fmt.Printf("  Upserting headquarter: %s (%s)\n", hq.Name, hq.City)
		if err := repo.UpsertHeadquarter(ctx, &hq); err != nil {
			return fmt.Errorf("failed to upsert headquarter %s: %w", hq.ID, err)
		}
		upserted++
	}

	fmt.Printf("Headquarters seeded: %d upserted\n", upserted)
	return nil
}
