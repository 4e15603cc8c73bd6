package mock

import (
	"context"
	"fmt"

	"github.com/garnizeh/jobboard/pkg/models"
	"github.com/garnizeh/jobboard/pkg/repository"
)

// Test helpers and mocks. Each repo keeps what it was given in exported
// fields and returns the configured error, if any, before touching them.
type Mocks struct {
	JobRepo          *mockJobRepo
	ProfRepo         *mockProfileRepo
	VerificationRepo *mockVerificationRepo
	AgreementRepo    *mockAgreementRepo
}

func NewMocks() *Mocks {
	return &Mocks{
		JobRepo:          &mockJobRepo{},
		ProfRepo:         &mockProfileRepo{},
		VerificationRepo: &mockVerificationRepo{},
		AgreementRepo:    &mockAgreementRepo{},
	}
}

var _ repository.JobRepo = (*mockJobRepo)(nil)
var _ repository.ProfileRepo = (*mockProfileRepo)(nil)
var _ repository.VerificationRepo = (*mockVerificationRepo)(nil)
var _ repository.AgreementRepo = (*mockAgreementRepo)(nil)

type mockJobRepo struct {
	Stored     []models.Job
	LastFilter models.JobFilter
	LastPatch  *models.JobPatch
	CreateErr  error
	ListErr    error
	UpdateErr  error
}

func (m *mockJobRepo) CreateJob(ctx context.Context, in *models.JobInput) (*models.Job, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	j := models.Job{
		JobID:                fmt.Sprintf("job-%d", len(m.Stored)+1),
		ProfileID:            in.ProfileID,
		JobName:              in.JobName,
		PropertyAddress:      in.PropertyAddress,
		City:                 in.City,
		CustomerName:         in.CustomerName,
		CustomerEmail:        in.CustomerEmail,
		Trade:                in.Trade,
		EstimatedPay:         in.EstimatedPay,
		Description:          in.Description,
		AssignedContractorID: in.AssignedContractorID,
		Status:               models.StatusOpen,
	}
	m.Stored = append(m.Stored, j)
	return &j, nil
}

func (m *mockJobRepo) ListJobs(ctx context.Context, f models.JobFilter) ([]models.Job, error) {
	m.LastFilter = f
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	out := []models.Job{}
	for _, j := range m.Stored {
		if f.Match(j) {
			out = append(out, j)
		}
	}
	return out, nil
}

func (m *mockJobRepo) GetJob(ctx context.Context, id string) (*models.Job, error) {
	for _, j := range m.Stored {
		if j.JobID == id {
			return &j, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockJobRepo) UpdateJob(ctx context.Context, id string, p *models.JobPatch) (*models.Job, error) {
	m.LastPatch = p
	return m.ModifyJob(ctx, id, func(j *models.Job) error {
		if p.City != nil {
			j.City = *p.City
		}
		if p.Status != nil {
			j.Status = *p.Status
		}
		return nil
	})
}

func (m *mockJobRepo) ModifyJob(ctx context.Context, id string, fn func(j *models.Job) error) (*models.Job, error) {
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	for i := range m.Stored {
		if m.Stored[i].JobID != id {
			continue
		}
		j := m.Stored[i]
		if err := fn(&j); err != nil {
			return nil, err
		}
		m.Stored[i] = j
		return &j, nil
	}
	return nil, repository.ErrNotFound
}

type mockProfileRepo struct {
	Stored    []models.Profile
	CreateErr error
	ListErr   error
}

func (m *mockProfileRepo) CreateProfile(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	for _, s := range m.Stored {
		if s.Email == p.Email {
			return nil, repository.ErrDuplicateKey
		}
	}
	out := *p
	if out.ProfileID == "" {
		out.ProfileID = fmt.Sprintf("profile-%d", len(m.Stored)+1)
	}
	m.Stored = append(m.Stored, out)
	return &out, nil
}

func (m *mockProfileRepo) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return append([]models.Profile{}, m.Stored...), nil
}

func (m *mockProfileRepo) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	for _, p := range m.Stored {
		if p.ProfileID == id {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockProfileRepo) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	for _, p := range m.Stored {
		if p.Email == email {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockProfileRepo) SeedProfiles(ctx context.Context, ps []models.Profile) (bool, error) {
	if m.CreateErr != nil {
		return false, m.CreateErr
	}
	if len(m.Stored) > 0 {
		return false, nil
	}
	m.Stored = append(m.Stored, ps...)
	return true, nil
}

type mockVerificationRepo struct {
	Stored    map[string]models.VerificationSubmission
	UpsertErr error
}

func (m *mockVerificationRepo) UpsertSubmission(ctx context.Context, s *models.VerificationSubmission) (*models.VerificationSubmission, *models.VerificationSubmission, error) {
	if m.UpsertErr != nil {
		return nil, nil, m.UpsertErr
	}
	if m.Stored == nil {
		m.Stored = map[string]models.VerificationSubmission{}
	}
	var replaced *models.VerificationSubmission
	if prev, ok := m.Stored[s.ContractorID]; ok {
		replaced = &prev
	}
	out := *s
	out.Status = models.VerificationPending
	out.SubmittedAt = "2024-05-01T12:00:00Z"
	if replaced != nil {
		out.VerifiedAt = replaced.VerifiedAt
	}
	m.Stored[s.ContractorID] = out
	return &out, replaced, nil
}

func (m *mockVerificationRepo) GetSubmission(ctx context.Context, contractorID string) (*models.VerificationSubmission, error) {
	s, ok := m.Stored[contractorID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (m *mockVerificationRepo) ReviewSubmission(ctx context.Context, contractorID, status string) (*models.VerificationSubmission, error) {
	s, ok := m.Stored[contractorID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	s.Status = status
	s.VerifiedAt = "2024-05-02T12:00:00Z"
	m.Stored[contractorID] = s
	return &s, nil
}

type mockAgreementRepo struct {
	Stored  []models.AgreementSignature
	SignErr error
}

func (m *mockAgreementRepo) SignAgreement(ctx context.Context, s *models.AgreementSignature) (*models.AgreementSignature, error) {
	if m.SignErr != nil {
		return nil, m.SignErr
	}
	out := *s
	out.SignedAt = "2024-05-01T12:00:00Z"
	for i, st := range m.Stored {
		if st.ContractorID == s.ContractorID && st.AgreementID == s.AgreementID {
			m.Stored[i] = out
			return &out, nil
		}
	}
	m.Stored = append(m.Stored, out)
	return &out, nil
}

func (m *mockAgreementRepo) ListSignatures(ctx context.Context, contractorID string) ([]models.AgreementSignature, error) {
	out := []models.AgreementSignature{}
	for _, s := range m.Stored {
		if s.ContractorID == contractorID {
			out = append(out, s)
		}
	}
	return out, nil
}
