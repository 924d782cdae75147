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

const headquarterTableName = schemaName + ".headquarters"

var headquarterColumns = utils.StructTagValues(types.Headquarter{})

type HeadquarterRepository struct {
	pool *pgxpool.Pool
}

func NewHeadquarterRepository(pool *pgxpool.Pool) *HeadquarterRepository {
	return &HeadquarterRepository{pool: pool}
}

func (r *HeadquarterRepository) Headquarter(ctx context.Context, id string) (*types.Headquarter, error) {
	query, args, err := psql().
		Select(headquarterColumns...).
		From(headquarterTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate headquarter query: %w", err)
	}

	var hq types.Headquarter
	err = pgxscan.Get(ctx, r.pool, &hq, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrHeadquarterNotFound
		}
		return nil, fmt.Errorf("failed to fetch headquarter: %w", err)
	}

	return &hq, nil
}

func (r *HeadquarterRepository) AllHeadquarters(ctx context.Context) ([]*types.Headquarter, error) {
	query, args, err := psql().
		Select(headquarterColumns...).
		From(headquarterTableName).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate headquarters query: %w", err)
	}

	var hqs []*types.Headquarter
	err = pgxscan.Select(ctx, r.pool, &hqs, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch headquarters: %w", err)
	}

	return hqs, nil
}

func (r *HeadquarterRepository) CreateHeadquarter(ctx context.Context, hq *types.Headquarter) error {
	now := time.Now()
	if hq.ID == "" {
		hq.ID = utils.NanoID()
	}
	hq.CreatedAt = now
	hq.UpdatedAt = now

	query, args, err := psql().
		Insert(headquarterTableName).
		SetMap(utils.StructToMap(hq)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert headquarter query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create headquarter")
}

func (r *HeadquarterRepository) UpsertHeadquarter(ctx context.Context, hq *types.Headquarter) error {
	now := time.Now()
	hq.CreatedAt = now
	hq.UpdatedAt = now

	hqMap := utils.StructToMap(hq)

	updateMap := make(map[string]any)
	for k, v := range hqMap {
		if k != "id" && k != "created_at" {
			updateMap[k] = v
		}
	}

	query, args, err := psql().
		Insert(headquarterTableName).
		SetMap(hqMap).
		Suffix("ON CONFLICT (id) DO UPDATE SET " + buildUpdateClause(updateMap)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate upsert headquarter query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to upsert headquarter")
}
