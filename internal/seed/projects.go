package seed

import (
	"context"
	"fmt"

	"fundacion/internal/utils"
	"fundacion/pkg/types"
)

type ProjectUpserter interface {
	UpsertProject(ctx context.Context, project *types.Project) error
}

var Projects = []types.Project{
	{
		ID:            "pr1Uq7w3Ze0XcV5bNm8kJh2gFd6sAa4T",
		HeadquarterID: utils.StringPtr("hq1Kx4c9Qm2TzR7vLp0sWb5nYd8aFe3G"),
		Name:          "Escuela de fútbol Norte",
		Category:      "deporte",
		Description:   utils.StringPtr("Entrenamiento semanal, uniformes y transporte para la categoría sub-12."),
		FinanceGoal:   12000000,
		Status:        types.ProjectStatusActive,
	},
	{
		ID:            "pr2Lo4i9Ku1YjT6hGr3fEd8wSq0aZx5C",
		HeadquarterID: utils.StringPtr("hq2Vb6t1Hs9NwE4uJc7kXo0mPq3rZi5L"),
		Name:          "Refrigerios saludables",
		Category:      "nutrición",
		Description:   utils.StringPtr("Refrigerio después de cada entrenamiento durante el semestre."),
		FinanceGoal:   8500000,
		Status:        types.ProjectStatusActive,
	},
	{
		ID:            "pr3Mn5b2Vc8XzL1kJh7gFd4sAq9wEr6T",
		HeadquarterID: utils.StringPtr("hq3Ag8y2Df5KlM0bNs6cRe1tUw9vXj4H"),
		Name:          "Torneo intersedes",
		Category:      "competencia",
		Description:   utils.StringPtr("Inscripciones, arbitraje y premiación del torneo anual."),
		FinanceGoal:   5000000,
		Status:        types.ProjectStatusActive,
	},
	{
		ID:          "pr4Qw1e6Rt3Yu8Io0Pa5Sd2Fg7Hj9Kl4Z",
		Name:        "Acompañamiento psicosocial",
		Category:    "bienestar",
		Description: utils.StringPtr("Talleres con familias y seguimiento emocional en todas las sedes."),
		Status:      types.ProjectStatusPaused,
	},
}

// SeedProjects must run after SeedHeadquarters.
func SeedProjects(ctx context.Context, repo ProjectUpserter) error {
	upserted := 0
	for _, project := range Projects {
		project := project
		fmt.Printf("  Upserting project: %s (%s)\n", project.Name, project.Status)
		if err := repo.UpsertProject(ctx, &project); err != nil {
			return fmt.Errorf("failed to upsert project %s: %w", project.ID, err)
		}
		upserted++
	}

	fmt.Printf("Projects seeded: %d upserted\n", upserted)
	return nil
}
