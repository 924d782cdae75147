package store

import (
	"context"
	"fmt"
	"time"

	"fundacion/internal/utils"
	"fundacion/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const projectTableName = schemaName + ".projects"

var projectColumns = utils.StructTagValues(types.Project{})

type ProjectRepository struct {
	pool *pgxpool.Pool
}

func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

func (r *ProjectRepository) Project(ctx context.Context, id string) (*types.Project, error) {
	query, args, err := psql().
		Select(projectColumns...).
		From(projectTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate project query: %w", err)
	}

	var project types.Project
	err = pgxscan.Get(ctx, r.pool, &project, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to fetch project: %w", err)
	}

	return &project, nil
}

// Projects lists projects newest first, optionally restricted to statuses.
func (r *ProjectRepository) Projects(ctx context.Context, statuses ...types.ProjectStatus) ([]*types.Project, error) {
	builder := psql().
		Select(projectColumns...).
		From(projectTableName).
		OrderBy("created_at DESC")

	if len(statuses) > 0 {
		builder = builder.Where(sq.Eq{"status": statuses})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate projects query: %w", err)
	}

	var projects = make([]*types.Project, 0)
	err = pgxscan.Select(ctx, r.pool, &projects, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch projects: %w", err)
	}

	return projects, nil
}

func (r *ProjectRepository) CreateProject(ctx context.Context, project *types.Project) error {
	now := time.Now()
	if project.ID == "" {
		project.ID = utils.NanoID()
	}
	if project.Status == "" {
		project.Status = types.ProjectStatusActive
	}
	project.CreatedAt = now
	project.UpdatedAt = now

	query, args, err := psql().
		Insert(projectTableName).
		SetMap(utils.StructToMap(project)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert project query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create project")
}

func (r *ProjectRepository) UpsertProject(ctx context.Context, project *types.Project) error {
	now := time.Now()
	project.CreatedAt = now
	project.UpdatedAt = now

	projectMap := utils.StructToMap(project)

	updateMap := make(map[string]any)
	for k, v := range projectMap {
		if k != "id" && k != "created_at" {
			updateMap[k] = v
		}
	}

	query, args, err := psql().
		Insert(projectTableName).
		SetMap(projectMap).
		Suffix("ON CONFLICT (id) DO UPDATE SET " + buildUpdateClause(updateMap)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate upsert project query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to upsert project")
}

func (r *ProjectRepository) SetProjectStatus(ctx context.Context, id string, status types.ProjectStatus) error {
	query, args, err := psql().
		Update(projectTableName).
		Set("status", status).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate project status update for project %s: %w", id, err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to update project status")
}
