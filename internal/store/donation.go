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

const donationTableName = schemaName + ".donations"

// numeric columns are read as text and parsed at the stats boundary
var donationRowColumns = []string{
	"d.id",
	"d.user_id",
	"d.project_id",
	"d.amount::text AS amount",
	"d.status",
	"d.payment_reference",
	"d.created_at",
	"p.name AS project_name",
	"p.category AS project_category",
	"p.finance_goal::text AS project_finance_goal",
}

type DonationRepository struct {
	pool *pgxpool.Pool
}

func NewDonationRepository(pool *pgxpool.Pool) *DonationRepository {
	return &DonationRepository{pool: pool}
}

func donationRowsQuery() sq.SelectBuilder {
	return psql().
		Select(donationRowColumns...).
		From(donationTableName + " d").
		LeftJoin(projectTableName + " p ON p.id = d.project_id")
}

// DonationsByUser returns every donation of the user, newest first.
func (r *DonationRepository) DonationsByUser(ctx context.Context, userID string) ([]*types.DonationRow, error) {
	query, args, err := donationRowsQuery().
		Where(sq.Eq{"d.user_id": userID}).
		OrderBy("d.created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate donations by user query: %w", err)
	}

	var rows = make([]*types.DonationRow, 0)
	err = pgxscan.Select(ctx, r.pool, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch donations for user %s: %w", userID, err)
	}

	return rows, nil
}

func (r *DonationRepository) DonationByPaymentReference(ctx context.Context, reference string) (*types.DonationRow, error) {
	query, args, err := donationRowsQuery().
		Where(sq.Eq{"d.payment_reference": reference}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate donation by reference query: %w", err)
	}

	var row = new(types.DonationRow)
	err = pgxscan.Get(ctx, r.pool, row, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrDonationNotFound
		}
		return nil, fmt.Errorf("failed to fetch donation by reference: %w", err)
	}

	return row, nil
}

// CreateDonation stores a new pending donation. Amount is written as
// numeric.
func (r *DonationRepository) CreateDonation(ctx context.Context, donation *types.Donation) error {
	now := time.Now()
	donation.ID = utils.NanoID()
	donation.CreatedAt = now
	if donation.Status == "" {
		donation.Status = types.DonationStatusPending
	}

	query, args, err := psql().
		Insert(donationTableName).
		Columns("id", "user_id", "project_id", "amount", "status", "payment_reference", "created_at", "updated_at").
		Values(donation.ID, donation.UserID, donation.ProjectID, donation.Amount, donation.Status, donation.PaymentReference, now, now).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert donation query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create donation")
}

func (r *DonationRepository) SetPaymentReference(ctx context.Context, donationID, reference string) error {
	query, args, err := psql().
		Update(donationTableName).
		Set("payment_reference", reference).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": donationID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate payment reference update for donation %s: %w", donationID, err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to set donation payment reference")
}

// UpdateStatus moves a donation out of its current state. Approved
// donations are immutable and are never matched; the returned bool reports
// whether a row changed.
func (r *DonationRepository) UpdateStatus(ctx context.Context, donationID string, status types.DonationStatus) (bool, error) {
	query, args, err := psql().
		Update(donationTableName).
		Set("status", status).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": donationID}).
		Where(sq.NotEq{"status": types.DonationStatusApproved}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to generate status update for donation %s: %w", donationID, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update donation status: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ProjectRaisedTotal sums approved donations to the project from all donors.
func (r *DonationRepository) ProjectRaisedTotal(ctx context.Context, projectID string) (float64, error) {
	query, args, err := psql().
		Select("COALESCE(SUM(amount), 0)::float8").
		From(donationTableName).
		Where(sq.Eq{"project_id": projectID, "status": types.DonationStatusApproved}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to generate project raised total query: %w", err)
	}

	var total float64
	err = r.pool.QueryRow(ctx, query, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch raised total for project %s: %w", projectID, err)
	}

	return total, nil
}

type projectTotal struct {
	ProjectID string  `db:"project_id"`
	Total     float64 `db:"total"`
}

// RaisedTotalsByProjects is the batched form of ProjectRaisedTotal used by
// listings. Projects without approved donations are absent.
func (r *DonationRepository) RaisedTotalsByProjects(ctx context.Context, projectIDs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(projectIDs))
	if len(projectIDs) == 0 {
		return out, nil
	}

	query, args, err := psql().
		Select("project_id", "SUM(amount)::float8 AS total").
		From(donationTableName).
		Where(sq.Eq{"project_id": projectIDs, "status": types.DonationStatusApproved}).
		GroupBy("project_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate raised totals query: %w", err)
	}

	var totals []*projectTotal
	err = pgxscan.Select(ctx, r.pool, &totals, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch raised totals: %w", err)
	}

	for _, t := range totals {
		out[t.ProjectID] = t.Total
	}

	return out, nil
}
