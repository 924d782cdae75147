package store

import (
	"context"
	"fmt"
	"time"

	"fundacion/internal/utils"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const projectBeneficiaryTableName = schemaName + ".project_beneficiaries"

type ProjectBeneficiaryRepository struct {
	pool *pgxpool.Pool
}

func NewProjectBeneficiaryRepository(pool *pgxpool.Pool) *ProjectBeneficiaryRepository {
	return &ProjectBeneficiaryRepository{pool: pool}
}

func (r *ProjectBeneficiaryRepository) LinkBeneficiary(ctx context.Context, projectID, beneficiaryID string) error {
	query, args, err := psql().
		Insert(projectBeneficiaryTableName).
		Columns("project_id", "beneficiary_id", "created_at").
		Values(projectID, beneficiaryID, time.Now()).
		Suffix("ON CONFLICT (project_id, beneficiary_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate link beneficiary query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to link beneficiary to project")
}

func (r *ProjectBeneficiaryRepository) UnlinkBeneficiary(ctx context.Context, projectID, beneficiaryID string) error {
	query, args, err := psql().
		Delete(projectBeneficiaryTableName).
		Where(sq.Eq{"project_id": projectID, "beneficiary_id": beneficiaryID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate unlink beneficiary query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to unlink beneficiary from project")
}

// BeneficiaryIDsByProjects returns the beneficiary ids linked to any of the
// projects. A beneficiary in several projects appears once per project.
func (r *ProjectBeneficiaryRepository) BeneficiaryIDsByProjects(ctx context.Context, projectIDs []string) ([]string, error) {
	if len(projectIDs) == 0 {
		return []string{}, nil
	}

	query, args, err := psql().
		Select("beneficiary_id").
		From(projectBeneficiaryTableName).
		Where(sq.Eq{"project_id": projectIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate project beneficiaries query: %w", err)
	}

	var ids []string
	err = pgxscan.Select(ctx, r.pool, &ids, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project beneficiaries: %w", err)
	}

	return ids, nil
}

type projectCount struct {
	ProjectID string `db:"project_id"`
	Total     int    `db:"total"`
}

func (r *ProjectBeneficiaryRepository) CountsByProject(ctx context.Context, projectIDs []string) (map[string]int, error) {
	out := make(map[string]int, len(projectIDs))
	if len(projectIDs) == 0 {
		return out, nil
	}

	query, args, err := psql().
		Select("project_id", "COUNT(*) AS total").
		From(projectBeneficiaryTableName).
		Where(sq.Eq{"project_id": projectIDs}).
		GroupBy("project_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate project beneficiary counts query: %w", err)
	}

	var counts []*projectCount
	err = pgxscan.Select(ctx, r.pool, &counts, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project beneficiary counts: %w", err)
	}

	for _, c := range counts {
		out[c.ProjectID] = c.Total
	}

	return out, nil
}
