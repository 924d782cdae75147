package stats

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fundacion/internal/utils"
	"fundacion/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu sync.Mutex

	raised        map[string]float64
	raisedErr     map[string]error
	members       map[string][]string
	membersErr    error
	raisedCalls   []string
	membersCalls  int
	membersLookup []string
}

func (f *fakeStore) ProjectRaisedTotal(_ context.Context, projectID string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.raisedCalls = append(f.raisedCalls, projectID)
	if err := f.raisedErr[projectID]; err != nil {
		return 0, err
	}
	return f.raised[projectID], nil
}

func (f *fakeStore) BeneficiaryIDsByProjects(_ context.Context, projectIDs []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.membersCalls++
	f.membersLookup = append([]string{}, projectIDs...)
	if f.membersErr != nil {
		return nil, f.membersErr
	}

	out := make([]string, 0)
	for _, id := range projectIDs {
		out = append(out, f.members[id]...)
	}
	return out, nil
}

func donation(id string, amount float64, status types.DonationStatus, project *types.ProjectRef) *types.Donation {
	d := &types.Donation{
		ID:        id,
		UserID:    "donor-1",
		Amount:    amount,
		Status:    status,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if project != nil {
		d.ProjectID = utils.StringPtr(project.ID)
		d.Project = project
	}
	return d
}

var (
	projectA = &types.ProjectRef{ID: "A", Name: "Escuela de fútbol", Category: "sport", FinanceGoal: 500000}
	projectB = &types.ProjectRef{ID: "B", Name: "Nutrición", Category: "health", FinanceGoal: 1000000}
)

func TestComputePendingExcluded(t *testing.T) {
	store := &fakeStore{
		raised:  map[string]float64{"A": 250000, "B": 75000},
		members: map[string][]string{"A": {"b1", "b2"}},
	}
	agg := NewAggregator(store, store)

	got, err := agg.Compute(context.Background(), []*types.Donation{
		donation("d1", 100000, types.DonationStatusApproved, projectA),
		donation("d2", 50000, types.DonationStatusApproved, projectA),
		donation("d3", 75000, types.DonationStatusPending, projectB),
	})
	require.NoError(t, err)

	assert.Equal(t, 150000.0, got.TotalDonated)
	assert.Equal(t, 1, got.ProjectsSupported)
	assert.Equal(t, 2, got.BeneficiariesImpacted)
	require.Len(t, got.SupportedProjects, 1)

	summary := got.SupportedProjects[0]
	assert.Equal(t, "A", summary.ProjectID)
	assert.Equal(t, "Escuela de fútbol", summary.ProjectName)
	assert.Equal(t, "sport", summary.Category)
	assert.Equal(t, 150000.0, summary.TotalDonated)
	assert.Equal(t, 50, summary.Progress)
	assert.Equal(t, 500000.0, summary.FinanceGoal)
	assert.True(t, summary.HasGoal)

	assert.Equal(t, []string{"A"}, store.raisedCalls)
}

func TestComputeFreeFundDonation(t *testing.T) {
	store := &fakeStore{raised: map[string]float64{"A": 10}}
	agg := NewAggregator(store, store)

	got, err := agg.Compute(context.Background(), []*types.Donation{
		donation("d1", 20000, types.DonationStatusApproved, nil),
		donation("d2", 5000, types.DonationStatusApproved, projectA),
	})
	require.NoError(t, err)

	assert.Equal(t, 25000.0, got.TotalDonated)
	assert.Equal(t, 1, got.ProjectsSupported)
	require.Len(t, got.SupportedProjects, 1)
	assert.Equal(t, "A", got.SupportedProjects[0].ProjectID)
	assert.Len(t, got.RecentDonations, 2)
}

func TestComputeOnlyFreeFundSkipsLookups(t *testing.T) {
	store := &fakeStore{}
	agg := NewAggregator(store, store)

	got, err := agg.Compute(context.Background(), []*types.Donation{
		donation("d1", 20000, types.DonationStatusApproved, nil),
	})
	require.NoError(t, err)

	assert.Equal(t, 20000.0, got.TotalDonated)
	assert.Zero(t, got.ProjectsSupported)
	assert.Zero(t, got.BeneficiariesImpacted)
	assert.Empty(t, got.SupportedProjects)
	assert.NotNil(t, got.SupportedProjects)
	assert.Empty(t, store.raisedCalls)
	assert.Zero(t, store.membersCalls)
}

func TestComputeEmpty(t *testing.T) {
	store := &fakeStore{}
	got, err := NewAggregator(store, store).Compute(context.Background(), nil)
	require.NoError(t, err)

	assert.Zero(t, got.TotalDonated)
	assert.Empty(t, got.RecentDonations)
	assert.NotNil(t, got.RecentDonations)
}

func TestComputeSumInvariantAndOrdering(t *testing.T) {
	projectC := &types.ProjectRef{ID: "C", Name: "Uniformes", Category: "equipment", FinanceGoal: 300}
	store := &fakeStore{raised: map[string]float64{"A": 1, "B": 1, "C": 1}}
	agg := NewAggregator(store, store)

	got, err := agg.Compute(context.Background(), []*types.Donation{
		donation("d1", 10, types.DonationStatusApproved, projectA),
		donation("d2", 40, types.DonationStatusApproved, projectB),
		donation("d3", 25, types.DonationStatusApproved, projectC),
		donation("d4", 5, types.DonationStatusRejected, projectA),
		donation("d5", 12.5, types.DonationStatusApproved, projectA),
		donation("d6", 7, types.DonationStatusFailed, projectC),
	})
	require.NoError(t, err)

	var sum float64
	for _, p := range got.SupportedProjects {
		sum += p.TotalDonated
	}
	assert.InDelta(t, got.TotalDonated, sum, 1e-9)
	assert.Equal(t, 87.5, got.TotalDonated)
	assert.Equal(t, 3, got.ProjectsSupported)

	ids := make([]string, 0)
	for _, p := range got.SupportedProjects {
		ids = append(ids, p.ProjectID)
	}
	assert.Equal(t, []string{"B", "C", "A"}, ids)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, store.membersLookup)
	assert.Equal(t, 1, store.membersCalls)
}

func TestComputeRecentDonations(t *testing.T) {
	store := &fakeStore{}
	agg := NewAggregator(store, store)

	for n := 0; n <= 5; n++ {
		donations := make([]*types.Donation, 0, n+1)
		donations = append(donations, donation("pending", 1, types.DonationStatusPending, nil))
		for i := 0; i < n; i++ {
			donations = append(donations, donation(utils.NanoIDSize(8), float64(i+1), types.DonationStatusApproved, nil))
		}

		got, err := agg.Compute(context.Background(), donations)
		require.NoError(t, err)
		require.Len(t, got.RecentDonations, min(3, n))

		for i, d := range got.RecentDonations {
			assert.Same(t, donations[i+1], d, "recent donations keep input order")
		}
	}
}

func TestComputeProgressClamped(t *testing.T) {
	store := &fakeStore{raised: map[string]float64{"B": 2000000}}
	agg := NewAggregator(store, store)

	got, err := agg.Compute(context.Background(), []*types.Donation{
		donation("d1", 100, types.DonationStatusApproved, projectB),
	})
	require.NoError(t, err)
	assert.Equal(t, 100, got.SupportedProjects[0].Progress)
}

func TestComputeMissingGoal(t *testing.T) {
	noGoal := &types.ProjectRef{ID: "N", Name: "Sin meta", Category: "misc"}
	store := &fakeStore{raised: map[string]float64{"N": 3}}
	agg := NewAggregator(store, store)

	got, err := agg.Compute(context.Background(), []*types.Donation{
		donation("d1", 3, types.DonationStatusApproved, noGoal),
	})
	require.NoError(t, err)

	summary := got.SupportedProjects[0]
	assert.Equal(t, 100, summary.Progress)
	assert.False(t, summary.HasGoal)
	assert.Zero(t, summary.FinanceGoal)
}

func TestComputeBeneficiariesDeduplicated(t *testing.T) {
	store := &fakeStore{
		raised: map[string]float64{"A": 1, "B": 1},
		members: map[string][]string{
			"A": {"b1", "b2", "b3"},
			"B": {"b2", "b3", "b4"},
		},
	}
	agg := NewAggregator(store, store)

	got, err := agg.Compute(context.Background(), []*types.Donation{
		donation("d1", 1, types.DonationStatusApproved, projectA),
		donation("d2", 1, types.DonationStatusApproved, projectB),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, got.BeneficiariesImpacted)
}

func TestComputeLookupFailures(t *testing.T) {
	boom := errors.New("connection reset")

	t.Run("raised total", func(t *testing.T) {
		store := &fakeStore{
			raised:    map[string]float64{"A": 1},
			raisedErr: map[string]error{"B": boom},
		}
		got, err := NewAggregator(store, store).Compute(context.Background(), []*types.Donation{
			donation("d1", 1, types.DonationStatusApproved, projectA),
			donation("d2", 1, types.DonationStatusApproved, projectB),
		})
		require.ErrorIs(t, err, boom)
		assert.Nil(t, got)
	})

	t.Run("beneficiaries", func(t *testing.T) {
		store := &fakeStore{membersErr: boom}
		got, err := NewAggregator(store, store).Compute(context.Background(), []*types.Donation{
			donation("d1", 1, types.DonationStatusApproved, projectA),
		})
		require.ErrorIs(t, err, boom)
		assert.Nil(t, got)
	})
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name   string
		raised float64
		goal   float64
		want   int
	}{
		{name: "half", raised: 250000, goal: 500000, want: 50},
		{name: "over goal clamps", raised: 2000000, goal: 1000000, want: 100},
		{name: "rounds", raised: 1, goal: 3, want: 33},
		{name: "rounds half up", raised: 1, goal: 200, want: 1},
		{name: "zero goal", raised: 0.5, goal: 0, want: 50},
		{name: "zero goal large raised", raised: 10, goal: 0, want: 100},
		{name: "nothing raised", raised: 0, goal: 100, want: 0},
		{name: "negative raised", raised: -5, goal: 100, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Progress(tt.raised, tt.goal))
		})
	}
}

func TestComputeRows(t *testing.T) {
	store := &fakeStore{
		raised:  map[string]float64{"A": 250000},
		members: map[string][]string{"A": {"b1"}},
	}
	agg := NewAggregator(store, store)

	got, err := agg.ComputeRows(context.Background(), []*types.DonationRow{
		{
			ID:                 "d1",
			ProjectID:          utils.StringPtr("A"),
			Amount:             "100000.00",
			Status:             types.DonationStatusApproved,
			ProjectName:        utils.StringPtr("Escuela"),
			ProjectCategory:    utils.StringPtr("sport"),
			ProjectFinanceGoal: utils.StringPtr("500000"),
		},
		{ID: "d2", Amount: "50000", Status: types.DonationStatusApproved},
	})
	require.NoError(t, err)
	assert.Equal(t, 150000.0, got.TotalDonated)
	assert.Equal(t, 50, got.SupportedProjects[0].Progress)

	_, err = agg.ComputeRows(context.Background(), []*types.DonationRow{
		{ID: "bad", Amount: "12,50", Status: types.DonationStatusApproved},
	})
	require.ErrorIs(t, err, types.ErrInvalidAmount)
}
