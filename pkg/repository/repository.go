package repository

import (
	"context"

	"github.com/garnizeh/jobboard/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.

type JobRepo interface {
	CreateJob(ctx context.Context, in *models.JobInput) (*models.Job, error)
	ListJobs(ctx context.Context, f models.JobFilter) ([]models.Job, error)
	GetJob(ctx context.Context, id string) (*models.Job, error)
	UpdateJob(ctx context.Context, id string, p *models.JobPatch) (*models.Job, error)
	// ModifyJob applies fn to the stored job and writes the result in the
	// same critical section. If fn fails nothing is written.
	ModifyJob(ctx context.Context, id string, fn func(j *models.Job) error) (*models.Job, error)
}

type ProfileRepo interface {
	CreateProfile(ctx context.Context, p *models.Profile) (*models.Profile, error)
	ListProfiles(ctx context.Context) ([]models.Profile, error)
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error)
	// SeedProfiles writes ps only when no profile exists yet and reports
	// whether it did.
	SeedProfiles(ctx context.Context, ps []models.Profile) (bool, error)
}

type VerificationRepo interface {
	// UpsertSubmission stores s as the contractor's pending submission and
	// returns the one it replaced, if any.
	UpsertSubmission(ctx context.Context, s *models.VerificationSubmission) (saved, replaced *models.VerificationSubmission, err error)
	GetSubmission(ctx context.Context, contractorID string) (*models.VerificationSubmission, error)
	ReviewSubmission(ctx context.Context, contractorID, status string) (*models.VerificationSubmission, error)
}

type AgreementRepo interface {
	SignAgreement(ctx context.Context, s *models.AgreementSignature) (*models.AgreementSignature, error)
	ListSignatures(ctx context.Context, contractorID string) ([]models.AgreementSignature, error)
}
