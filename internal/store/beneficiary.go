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

const beneficiaryTableName = schemaName + ".beneficiaries"

var beneficiaryColumns = utils.StructTagValues(types.Beneficiary{})

type BeneficiaryRepository struct {
	pool *pgxpool.Pool
}

func NewBeneficiaryRepository(pool *pgxpool.Pool) *BeneficiaryRepository {
	return &BeneficiaryRepository{pool: pool}
}

func (r *BeneficiaryRepository) Beneficiary(ctx context.Context, id string) (*types.Beneficiary, error) {
	query, args, err := psql().
		Select(beneficiaryColumns...).
		From(beneficiaryTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate beneficiary query: %w", err)
	}

	var beneficiary = new(types.Beneficiary)
	err = pgxscan.Get(ctx, r.pool, beneficiary, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrBeneficiaryNotFound
		}
		return nil, fmt.Errorf("failed to fetch beneficiary: %w", err)
	}

	return beneficiary, nil
}

// Beneficiaries lists beneficiaries ordered by name. An empty
// headquarterID lists every headquarter.
func (r *BeneficiaryRepository) Beneficiaries(ctx context.Context, headquarterID string, limit, offset uint64) ([]*types.Beneficiary, error) {
	builder := psql().
		Select(beneficiaryColumns...).
		From(beneficiaryTableName).
		OrderBy("last_name ASC", "first_name ASC")

	if headquarterID != "" {
		builder = builder.Where(sq.Eq{"headquarter_id": headquarterID})
	}
	if limit > 0 {
		builder = builder.Limit(limit).Offset(offset)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate beneficiaries query: %w", err)
	}

	var beneficiaries = make([]*types.Beneficiary, 0)
	err = pgxscan.Select(ctx, r.pool, &beneficiaries, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch beneficiaries: %w", err)
	}

	return beneficiaries, nil
}

func (r *BeneficiaryRepository) CreateBeneficiary(ctx context.Context, beneficiary *types.Beneficiary) error {
	now := time.Now()
	if beneficiary.ID == "" {
		beneficiary.ID = utils.NanoID()
	}
	if len(beneficiary.Details) == 0 {
		beneficiary.Details = []byte("{}")
	}
	beneficiary.CreatedAt = now
	beneficiary.UpdatedAt = now

	query, args, err := psql().
		Insert(beneficiaryTableName).
		SetMap(utils.StructToMap(beneficiary)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert beneficiary query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create beneficiary")
}

func (r *BeneficiaryRepository) UpdateBeneficiary(ctx context.Context, id string, beneficiary *types.Beneficiary) error {
	beneficiary.ID = id
	beneficiary.UpdatedAt = time.Now()

	values := utils.StructToMap(beneficiary)
	delete(values, "created_at")

	query, args, err := psql().
		Update(beneficiaryTableName).
		SetMap(values).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update beneficiary query for beneficiary %s: %w", id, err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to update beneficiary")
}

func (r *BeneficiaryRepository) SetPhotoKey(ctx context.Context, id, key string) error {
	query, args, err := psql().
		Update(beneficiaryTableName).
		Set("photo_key", key).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate photo key update for beneficiary %s: %w", id, err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to set beneficiary photo")
}

func (r *BeneficiaryRepository) DeleteBeneficiary(ctx context.Context, id string) error {
	query, args, err := psql().Delete(beneficiaryTableName).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete beneficiary query for beneficiary %s: %w", id, err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to delete beneficiary")
}
