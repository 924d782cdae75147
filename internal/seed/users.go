package seed

import (
	"context"
	"errors"
	"fmt"

	"fundacion/internal/utils"
	"fundacion/pkg/types"
)

type UserRepository interface {
	User(ctx context.Context, userID string) (*types.User, error)
	Create(ctx context.Context, user *types.User) error
	Update(ctx context.Context, userID string, user *types.User) error
}

type fakeUserSeed struct {
	ID            string
	Email         string
	GivenName     string
	FamilyName    string
	Role          types.UserRole
	HeadquarterID string
}

var fakeUsers = []fakeUserSeed{
	{ID: "11111111-1111-1111-1111-111111111111", Email: "admin+seed1@example.com", GivenName: "Camila", FamilyName: "Rojas", Role: types.UserRoleAdmin},
	{ID: "22222222-2222-2222-2222-222222222222", Email: "director+seed2@example.com", GivenName: "Andrés", FamilyName: "Gómez", Role: types.UserRoleDirector},
	{ID: "33333333-3333-3333-3333-333333333333", Email: "norte+seed3@example.com", GivenName: "Valentina", FamilyName: "Herrera", Role: types.UserRoleSiteDirector, HeadquarterID: "hq1Kx4c9Qm2TzR7vLp0sWb5nYd8aFe3G"},
	{ID: "44444444-4444-4444-4444-444444444444", Email: "sur+seed4@example.com", GivenName: "Santiago", FamilyName: "Castro", Role: types.UserRoleSiteDirector, HeadquarterID: "hq2Vb6t1Hs9NwE4uJc7kXo0mPq3rZi5L"},
	{ID: "55555555-5555-5555-5555-555555555555", Email: "soacha+seed5@example.com", GivenName: "Mariana", FamilyName: "López", Role: types.UserRoleSiteDirector, HeadquarterID: "hq3Ag8y2Df5KlM0bNs6cRe1tUw9vXj4H"},
	{ID: "66666666-6666-6666-6666-666666666666", Email: "donor.one+seed6@example.com", GivenName: "Felipe", FamilyName: "Martínez", Role: types.UserRoleDonator},
	{ID: "77777777-7777-7777-7777-777777777777", Email: "donor.two+seed7@example.com", GivenName: "Daniela", FamilyName: "Ramírez", Role: types.UserRoleDonator},
	{ID: "88888888-8888-8888-8888-888888888888", Email: "donor.three+seed8@example.com", GivenName: "Juan", FamilyName: "Torres", Role: types.UserRoleDonator},
}

func siteDirectorFor(headquarterID string) (fakeUserSeed, bool) {
	for _, user := range fakeUsers {
		if user.Role == types.UserRoleSiteDirector && user.HeadquarterID == headquarterID {
			return user, true
		}
	}
	return fakeUserSeed{}, false
}

func seedUserIDsByRole(role types.UserRole) []string {
	ids := make([]string, 0, len(fakeUsers))
	for _, user := range fakeUsers {
		if user.Role == role {
			ids = append(ids, user.ID)
		}
	}
	return ids
}

func (f fakeUserSeed) apply(user *types.User) {
	user.Role = f.Role
	user.Email = utils.StringPtr(f.Email)
	user.GivenName = utils.StringPtr(f.GivenName)
	user.FamilyName = utils.StringPtr(f.FamilyName)
	user.HeadquarterID = nil
	if f.HeadquarterID != "" {
		user.HeadquarterID = utils.StringPtr(f.HeadquarterID)
	}
}

// SeedFakeUsers must run after SeedHeadquarters because site directors
// reference their headquarter.
func SeedFakeUsers(ctx context.Context, userRepo UserRepository) error {
	seeded := 0
	for _, fakeUser := range fakeUsers {
		existing, err := userRepo.User(ctx, fakeUser.ID)
		if err != nil {
			if !errors.Is(err, types.ErrUserNotFound) {
				return fmt.Errorf("failed to fetch fake user %s: %w", fakeUser.ID, err)
			}

			newUser := &types.User{ID: fakeUser.ID}
			fakeUser.apply(newUser)

			if err := userRepo.Create(ctx, newUser); err != nil {
				return fmt.Errorf("failed to create fake user %s: %w", fakeUser.ID, err)
			}
			seeded++
			continue
		}

		fakeUser.apply(existing)

		if err := userRepo.Update(ctx, fakeUser.ID, existing); err != nil {
			return fmt.Errorf("failed to update fake user %s: %w", fakeUser.ID, err)
		}
		seeded++
	}

	fmt.Printf("Fake users seeded: %d upserted\n", seeded)
	return nil
}
