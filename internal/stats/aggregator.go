// Package stats builds the donor dashboard summary from a donor's donation
// history and the project-wide figures held in the store.
package stats

import (
	"context"
	"fmt"
	"math"
	"sort"

	"fundacion/pkg/types"

	"golang.org/x/sync/errgroup"
)

const recentDonationsLimit = 3

// RaisedTotaler reports the approved amount raised by a project across all
// donors.
type RaisedTotaler interface {
	ProjectRaisedTotal(ctx context.Context, projectID string) (float64, error)
}

// BeneficiaryLookup lists the beneficiaries linked to any of the projects.
// Duplicates are allowed.
type BeneficiaryLookup interface {
	BeneficiaryIDsByProjects(ctx context.Context, projectIDs []string) ([]string, error)
}

type Aggregator struct {
	raised  RaisedTotaler
	members BeneficiaryLookup
}

func NewAggregator(raised RaisedTotaler, members BeneficiaryLookup) *Aggregator {
	return &Aggregator{raised: raised, members: members}
}

type projectGroup struct {
	ref   types.ProjectRef
	total float64
}

// ComputeRows parses rows read from the store and computes their stats.
func (a *Aggregator) ComputeRows(ctx context.Context, rows []*types.DonationRow) (*types.DonationStats, error) {
	donations, err := ParseDonations(rows)
	if err != nil {
		return nil, err
	}

	return a.Compute(ctx, donations)
}

// Compute aggregates the approved donations. donations is expected newest
// first; the recent list keeps that order. Any lookup failure fails the
// whole computation.
func (a *Aggregator) Compute(ctx context.Context, donations []*types.Donation) (*types.DonationStats, error) {
	approved := make([]*types.Donation, 0, len(donations))
	for _, d := range donations {
		if d != nil && d.Status == types.DonationStatusApproved {
			approved = append(approved, d)
		}
	}

	out := &types.DonationStats{
		RecentDonations:   append([]*types.Donation{}, approved[:min(recentDonationsLimit, len(approved))]...),
		SupportedProjects: make([]*types.ProjectSummary, 0),
	}

	groups := make(map[string]*projectGroup)
	order := make([]string, 0)
	for _, d := range approved {
		out.TotalDonated += d.Amount

		if d.ProjectID == nil || *d.ProjectID == "" {
			continue
		}

		id := *d.ProjectID
		group, ok := groups[id]
		if !ok {
			group = &projectGroup{ref: types.ProjectRef{ID: id}}
			if d.Project != nil {
				group.ref = *d.Project
				group.ref.ID = id
			}
			groups[id] = group
			order = append(order, id)
		}
		group.total += d.Amount
	}

	out.ProjectsSupported = len(order)
	if len(order) == 0 {
		return out, nil
	}

	raised := make([]float64, len(order))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range order {
		g.Go(func() error {
			total, err := a.raised.ProjectRaisedTotal(gctx, id)
			if err != nil {
				return fmt.Errorf("failed to fetch raised total for project %s: %w", id, err)
			}
			raised[i] = total
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	beneficiaryIDs, err := a.members.BeneficiaryIDsByProjects(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project beneficiaries: %w", err)
	}

	impacted := make(map[string]struct{}, len(beneficiaryIDs))
	for _, id := range beneficiaryIDs {
		impacted[id] = struct{}{}
	}
	out.BeneficiariesImpacted = len(impacted)

	for i, id := range order {
		group := groups[id]
		out.SupportedProjects = append(out.SupportedProjects, &types.ProjectSummary{
			ProjectID:    id,
			ProjectName:  group.ref.Name,
			Category:     group.ref.Category,
			TotalDonated: group.total,
			Progress:     Progress(raised[i], group.ref.FinanceGoal),
			FinanceGoal:  group.ref.FinanceGoal,
			HasGoal:      group.ref.FinanceGoal > 0,
		})
	}

	sort.SliceStable(out.SupportedProjects, func(i, j int) bool {
		return out.SupportedProjects[i].TotalDonated > out.SupportedProjects[j].TotalDonated
	})

	return out, nil
}

// Progress is the percentage of goal covered by raised, rounded and clamped
// to [0,100]. A zero or negative goal is treated as 1.
func Progress(raised, goal float64) int {
	if goal <= 0 {
		goal = 1
	}

	pct := raised / goal * 100
	if pct > 100 {
		pct = 100
	}
	if pct < 0 || math.IsNaN(pct) {
		pct = 0
	}

	return int(math.Round(pct))
}
