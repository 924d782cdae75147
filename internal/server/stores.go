package server

import (
	"context"

	"fundacion/internal/payments"
	"fundacion/pkg/types"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
)

// The store interfaces below are satisfied by the repositories in
// internal/store and narrowed to what the handlers call.

type UserStore interface {
	User(ctx context.Context, userID string) (*types.User, error)
	UsersByRole(ctx context.Context, roles ...types.UserRole) ([]*types.User, error)
	UpsertIdentity(ctx context.Context, userID, email, givenName, familyName string) error
}

type HeadquarterStore interface {
	AllHeadquarters(ctx context.Context) ([]*types.Headquarter, error)
	CreateHeadquarter(ctx context.Context, hq *types.Headquarter) error
}

type BeneficiaryStore interface {
	Beneficiary(ctx context.Context, id string) (*types.Beneficiary, error)
	Beneficiaries(ctx context.Context, headquarterID string, limit, offset uint64) ([]*types.Beneficiary, error)
	CreateBeneficiary(ctx context.Context, beneficiary *types.Beneficiary) error
	UpdateBeneficiary(ctx context.Context, id string, beneficiary *types.Beneficiary) error
	SetPhotoKey(ctx context.Context, id, key string) error
	DeleteBeneficiary(ctx context.Context, id string) error
}

type EvaluationStore interface {
	CreateEvaluation(ctx context.Context, evaluation *types.Evaluation) error
	EvaluationsByBeneficiary(ctx context.Context, beneficiaryID string) ([]*types.Evaluation, error)
	LatestByBeneficiaryIDs(ctx context.Context, beneficiaryIDs []string) (map[string]*types.Evaluation, error)
}

type ProjectStore interface {
	Project(ctx context.Context, id string) (*types.Project, error)
	Projects(ctx context.Context, statuses ...types.ProjectStatus) ([]*types.Project, error)
	CreateProject(ctx context.Context, project *types.Project) error
	SetProjectStatus(ctx context.Context, id string, status types.ProjectStatus) error
}

type MemberStore interface {
	LinkBeneficiary(ctx context.Context, projectID, beneficiaryID string) error
	BeneficiaryIDsByProjects(ctx context.Context, projectIDs []string) ([]string, error)
	CountsByProject(ctx context.Context, projectIDs []string) (map[string]int, error)
}

type DonationStore interface {
	DonationsByUser(ctx context.Context, userID string) ([]*types.DonationRow, error)
	DonationByPaymentReference(ctx context.Context, reference string) (*types.DonationRow, error)
	CreateDonation(ctx context.Context, donation *types.Donation) error
	SetPaymentReference(ctx context.Context, donationID, reference string) error
	UpdateStatus(ctx context.Context, donationID string, status types.DonationStatus) (bool, error)
	ProjectRaisedTotal(ctx context.Context, projectID string) (float64, error)
	RaisedTotalsByProjects(ctx context.Context, projectIDs []string) (map[string]float64, error)
}

type PhotoStore interface {
	Upload(ctx context.Context, beneficiaryID string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
	URL(ctx context.Context, key string) (string, error)
}

type CheckoutService interface {
	CreateSession(ctx context.Context, donation *types.Donation, description string) (*payments.Session, error)
}

type CognitoAuth interface {
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
}
