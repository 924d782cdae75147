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

const evaluationTableName = schemaName + ".evaluations"

var evaluationColumns = utils.StructTagValues(types.Evaluation{})

type EvaluationRepository struct {
	pool *pgxpool.Pool
}

func NewEvaluationRepository(pool *pgxpool.Pool) *EvaluationRepository {
	return &EvaluationRepository{pool: pool}
}

func (r *EvaluationRepository) CreateEvaluation(ctx context.Context, evaluation *types.Evaluation) error {
	now := time.Now()
	evaluation.ID = utils.NanoID()
	evaluation.CreatedAt = now
	if evaluation.EvaluatedAt.IsZero() {
		evaluation.EvaluatedAt = now
	}

	query, args, err := psql().
		Insert(evaluationTableName).
		SetMap(utils.StructToMap(evaluation)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert evaluation query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create evaluation")
}

// EvaluationsByBeneficiary returns a beneficiary's evaluations, newest first
func (r *EvaluationRepository) EvaluationsByBeneficiary(ctx context.Context, beneficiaryID string) ([]*types.Evaluation, error) {
	query, args, err := psql().
		Select(evaluationColumns...).
		From(evaluationTableName).
		Where(sq.Eq{"beneficiary_id": beneficiaryID}).
		OrderBy("evaluated_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate evaluations query: %w", err)
	}

	var evaluations = make([]*types.Evaluation, 0)
	err = pgxscan.Select(ctx, r.pool, &evaluations, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch evaluations: %w", err)
	}

	return evaluations, nil
}

// LatestByBeneficiaryIDs fetches the most recent evaluation of every given
// beneficiary in a single round trip. Beneficiaries without evaluations are
// absent from the result.
func (r *EvaluationRepository) LatestByBeneficiaryIDs(ctx context.Context, beneficiaryIDs []string) (map[string]*types.Evaluation, error) {
	out := make(map[string]*types.Evaluation, len(beneficiaryIDs))
	if len(beneficiaryIDs) == 0 {
		return out, nil
	}

	query, args, err := latestEvaluationsQuery(beneficiaryIDs).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate latest evaluations query: %w", err)
	}

	var evaluations []*types.Evaluation
	err = pgxscan.Select(ctx, r.pool, &evaluations, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest evaluations: %w", err)
	}

	for _, evaluation := range evaluations {
		out[evaluation.BeneficiaryID] = evaluation
	}

	return out, nil
}

func latestEvaluationsQuery(beneficiaryIDs []string) sq.SelectBuilder {
	return psql().
		Select(evaluationColumns...).
		Options("DISTINCT ON (beneficiary_id)").
		From(evaluationTableName).
		Where(sq.Eq{"beneficiary_id": beneficiaryIDs}).
		OrderBy("beneficiary_id", "evaluated_at DESC")
}
