package server

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"fundacion/internal/payments"
	"fundacion/internal/utils"
	"fundacion/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	cognitotypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

// memStore backs every store interface the service needs.
type memStore struct {
	mu sync.Mutex

	users         map[string]*types.User
	headquarters  []*types.Headquarter
	beneficiaries map[string]*types.Beneficiary
	evaluations   []*types.Evaluation
	projects      map[string]*types.Project
	members       map[string][]string
	donations     []*types.DonationRow

	latestCalls int
	raisedErr   error

	uploads      map[string][]byte
	deletedKeys  []string
	checkoutErr  error
	cognitoErr   error
	sessionCount int
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[string]*types.User{},
		beneficiaries: map[string]*types.Beneficiary{},
		projects:      map[string]*types.Project{},
		members:       map[string][]string{},
		uploads:       map[string][]byte{},
	}
}

func (m *memStore) User(_ context.Context, userID string) (*types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, types.ErrUserNotFound
	}
	return u, nil
}

func (m *memStore) UsersByRole(_ context.Context, roles ...types.UserRole) ([]*types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*types.User{}
	for _, u := range m.users {
		for _, r := range roles {
			if u.Role == r {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

func (m *memStore) UpsertIdentity(_ context.Context, userID, email, givenName, familyName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		u.Email = utils.StringPtr(email)
		return nil
	}
	m.users[userID] = &types.User{
		ID:         userID,
		Role:       types.UserRoleDonator,
		Email:      utils.StringPtr(email),
		GivenName:  utils.StringPtr(givenName),
		FamilyName: utils.StringPtr(familyName),
	}
	return nil
}

func (m *memStore) AllHeadquarters(_ context.Context) ([]*types.Headquarter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*types.Headquarter{}, m.headquarters...), nil
}

func (m *memStore) CreateHeadquarter(_ context.Context, hq *types.Headquarter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	hq.ID = "hq-" + strconv.Itoa(len(m.headquarters)+1)
	m.headquarters = append(m.headquarters, hq)
	return nil
}

func (m *memStore) Beneficiary(_ context.Context, id string) (*types.Beneficiary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.beneficiaries[id]
	if !ok {
		return nil, types.ErrBeneficiaryNotFound
	}
	clone := *b
	return &clone, nil
}

func (m *memStore) Beneficiaries(_ context.Context, headquarterID string, limit, offset uint64) ([]*types.Beneficiary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*types.Beneficiary{}
	for _, b := range m.beneficiaries {
		if headquarterID == "" || b.HeadquarterID == headquarterID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastName < out[j].LastName })
	if offset >= uint64(len(out)) {
		return []*types.Beneficiary{}, nil
	}
	out = out[offset:]
	if limit > 0 && uint64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) CreateBeneficiary(_ context.Context, b *types.Beneficiary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID == "" {
		b.ID = "ben-" + strconv.Itoa(len(m.beneficiaries)+1)
	}
	m.beneficiaries[b.ID] = b
	return nil
}

func (m *memStore) UpdateBeneficiary(_ context.Context, id string, b *types.Beneficiary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = id
	m.beneficiaries[id] = b
	return nil
}

func (m *memStore) SetPhotoKey(_ context.Context, id, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.beneficiaries[id].PhotoKey = utils.StringPtr(key)
	return nil
}

func (m *memStore) DeleteBeneficiary(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.beneficiaries, id)
	return nil
}

func (m *memStore) CreateEvaluation(_ context.Context, e *types.Evaluation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = "eval-" + strconv.Itoa(len(m.evaluations)+1)
	e.EvaluatedAt = time.Now()
	m.evaluations = append(m.evaluations, e)
	return nil
}

func (m *memStore) EvaluationsByBeneficiary(_ context.Context, beneficiaryID string) ([]*types.Evaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*types.Evaluation{}
	for _, e := range m.evaluations {
		if e.BeneficiaryID == beneficiaryID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) LatestByBeneficiaryIDs(_ context.Context, ids []string) (map[string]*types.Evaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latestCalls++
	out := map[string]*types.Evaluation{}
	for _, id := range ids {
		for _, e := range m.evaluations {
			if e.BeneficiaryID == id && (out[id] == nil || e.EvaluatedAt.After(out[id].EvaluatedAt)) {
				out[id] = e
			}
		}
	}
	return out, nil
}

func (m *memStore) Project(_ context.Context, id string) (*types.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, types.ErrProjectNotFound
	}
	return p, nil
}

func (m *memStore) Projects(_ context.Context, statuses ...types.ProjectStatus) ([]*types.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*types.Project{}
	for _, p := range m.projects {
		if len(statuses) == 0 {
			out = append(out, p)
			continue
		}
		for _, s := range statuses {
			if p.Status == s {
				out = append(out, p)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) CreateProject(_ context.Context, p *types.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = "proj-" + strconv.Itoa(len(m.projects)+1)
	m.projects[p.ID] = p
	return nil
}

func (m *memStore) SetProjectStatus(_ context.Context, id string, status types.ProjectStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[id].Status = status
	return nil
}

func (m *memStore) LinkBeneficiary(_ context.Context, projectID, beneficiaryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.members[projectID] {
		if id == beneficiaryID {
			return nil
		}
	}
	m.members[projectID] = append(m.members[projectID], beneficiaryID)
	return nil
}

func (m *memStore) BeneficiaryIDsByProjects(_ context.Context, projectIDs []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []string{}
	for _, p := range projectIDs {
		out = append(out, m.members[p]...)
	}
	return out, nil
}

func (m *memStore) CountsByProject(_ context.Context, projectIDs []string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]int{}
	for _, p := range projectIDs {
		if n := len(m.members[p]); n > 0 {
			out[p] = n
		}
	}
	return out, nil
}

func (m *memStore) DonationsByUser(_ context.Context, userID string) ([]*types.DonationRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*types.DonationRow{}
	for _, d := range m.donations {
		if d.UserID != userID {
			continue
		}
		row := *d
		if d.ProjectID != nil {
			if p, ok := m.projects[*d.ProjectID]; ok {
				row.ProjectName = utils.StringPtr(p.Name)
				row.ProjectCategory = utils.StringPtr(p.Category)
				row.ProjectFinanceGoal = utils.StringPtr(strconv.FormatFloat(p.FinanceGoal, 'f', -1, 64))
			}
		}
		out = append(out, &row)
	}
	return out, nil
}

func (m *memStore) DonationByPaymentReference(_ context.Context, reference string) (*types.DonationRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.donations {
		if d.PaymentReference != nil && *d.PaymentReference == reference {
			return d, nil
		}
	}
	return nil, types.ErrDonationNotFound
}

func (m *memStore) CreateDonation(_ context.Context, d *types.Donation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = "don-" + strconv.Itoa(len(m.donations)+1)
	d.CreatedAt = time.Now()
	m.donations = append(m.donations, &types.DonationRow{
		ID:        d.ID,
		UserID:    d.UserID,
		ProjectID: d.ProjectID,
		Amount:    strconv.FormatFloat(d.Amount, 'f', -1, 64),
		Status:    d.Status,
		CreatedAt: d.CreatedAt,
	})
	return nil
}

func (m *memStore) donation(id string) *types.DonationRow {
	for _, d := range m.donations {
		if d.ID == id {
			return d
		}
	}
	return nil
}

func (m *memStore) SetPaymentReference(_ context.Context, donationID, reference string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.donation(donationID).PaymentReference = utils.StringPtr(reference)
	return nil
}

func (m *memStore) UpdateStatus(_ context.Context, donationID string, status types.DonationStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.donation(donationID)
	if d == nil || d.Status == types.DonationStatusApproved {
		return false, nil
	}
	d.Status = status
	return true, nil
}

func (m *memStore) ProjectRaisedTotal(_ context.Context, projectID string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.raisedErr != nil {
		return 0, m.raisedErr
	}
	var total float64
	for _, d := range m.donations {
		if d.ProjectID != nil && *d.ProjectID == projectID && d.Status == types.DonationStatusApproved {
			amount, _ := strconv.ParseFloat(d.Amount, 64)
			total += amount
		}
	}
	return total, nil
}

func (m *memStore) RaisedTotalsByProjects(ctx context.Context, projectIDs []string) (map[string]float64, error) {
	out := map[string]float64{}
	for _, id := range projectIDs {
		total, err := m.ProjectRaisedTotal(ctx, id)
		if err != nil {
			return nil, err
		}
		if total > 0 {
			out[id] = total
		}
	}
	return out, nil
}

func (m *memStore) Upload(_ context.Context, beneficiaryID string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := "beneficiaries/" + beneficiaryID + "/photo-" + strconv.Itoa(len(m.uploads)+1) + ".png"
	m.uploads[key] = data
	return key, nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletedKeys = append(m.deletedKeys, key)
	return nil
}

func (m *memStore) URL(_ context.Context, key string) (string, error) {
	return "https://photos.example/" + key + "?signed", nil
}

func (m *memStore) CreateSession(_ context.Context, d *types.Donation, _ string) (*payments.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.checkoutErr != nil {
		return nil, m.checkoutErr
	}
	m.sessionCount++
	id := "cs_test_" + d.ID
	return &payments.Session{ID: id, URL: "https://checkout.stripe.com/c/pay/" + id}, nil
}

func (m *memStore) InitiateAuth(_ context.Context, params *cognitoidentityprovider.InitiateAuthInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error) {
	if m.cognitoErr != nil {
		return nil, m.cognitoErr
	}
	if params.AuthParameters["PASSWORD"] != "correct-horse" {
		return nil, errors.New("NotAuthorizedException: Incorrect username or password")
	}
	return &cognitoidentityprovider.InitiateAuthOutput{
		AuthenticationResult: &cognitotypes.AuthenticationResultType{
			AccessToken: aws.String("access:" + params.AuthParameters["USERNAME"]),
			IdToken:     aws.String("id:" + params.AuthParameters["USERNAME"]),
			ExpiresIn:   3600,
		},
	}, nil
}

// fakeTokens accepts tokens registered in the map.
type fakeTokens map[string]*Identity

func (f fakeTokens) Verify(_ context.Context, token string) (*Identity, error) {
	identity, ok := f[token]
	if !ok {
		return nil, errors.New("token rejected")
	}
	clone := *identity
	return &clone, nil
}
