package tabular

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/garnizeh/jobboard/internal/recordstore"
	"github.com/garnizeh/jobboard/pkg/models"
	"github.com/garnizeh/jobboard/pkg/repository"
)

func verificationRecord(s *models.VerificationSubmission) recordstore.Record {
	return recordstore.Record{
		"contractorId": s.ContractorID,
		"idPhotoUrl":   s.IDPhotoURL,
		"selfieUrl":    s.SelfieURL,
		"status":       s.Status,
		"submittedAt":  s.SubmittedAt,
		"verifiedAt":   s.VerifiedAt,
	}
}

func recordVerification(rec recordstore.Record) models.VerificationSubmission {
	return models.VerificationSubmission{
		ContractorID: rec["contractorId"],
		IDPhotoURL:   rec["idPhotoUrl"],
		SelfieURL:    rec["selfieUrl"],
		Status:       rec["status"],
		SubmittedAt:  rec["submittedAt"],
		VerifiedAt:   rec["verifiedAt"],
	}
}

// UpsertSubmission records a new pending submission for the contractor,
// replacing any earlier one. An earlier verifiedAt is kept. The replaced
// submission, read under the same lock as the write, is returned so its
// photos can be released.
func (r *Repo) UpsertSubmission(ctx context.Context, s *models.VerificationSubmission) (saved, replaced *models.VerificationSubmission, err error) {
	if s == nil {
		s = &models.VerificationSubmission{}
	}
	if err := repository.MissingFields([]string{"contractorId", "idPhotoUrl", "selfieUrl"}, map[string]string{
		"contractorId": s.ContractorID,
		"idPhotoUrl":   s.IDPhotoURL,
		"selfieUrl":    s.SelfieURL,
	}); err != nil {
		return nil, nil, err
	}

	out := models.VerificationSubmission{
		ContractorID: s.ContractorID,
		IDPhotoURL:   s.IDPhotoURL,
		SelfieURL:    s.SelfieURL,
		Status:       models.VerificationPending,
		SubmittedAt:  models.Timestamp(r.now()),
	}
	err = r.verifications.Update(ctx, func(recs []recordstore.Record) ([]recordstore.Record, error) {
		replaced = nil
		for i, rec := range recs {
			if rec["contractorId"] == out.ContractorID {
				prev := recordVerification(rec)
				replaced = &prev
				out.VerifiedAt = rec["verifiedAt"]
				recs[i] = verificationRecord(&out)
				return recs, nil
			}
		}
		return append(recs, verificationRecord(&out)), nil
	})
	if err != nil {
		return nil, nil, err
	}
	r.logger.Info("verification submitted", slog.String("contractor_id", out.ContractorID))
	return &out, replaced, nil
}

func (r *Repo) GetSubmission(ctx context.Context, contractorID string) (*models.VerificationSubmission, error) {
	rec, ok, err := r.verifications.Lookup(ctx, contractorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("verification submission", contractorID)
	}
	s := recordVerification(rec)
	return &s, nil
}

// ReviewSubmission moves a submission to a terminal status and stamps
// verifiedAt.
func (r *Repo) ReviewSubmission(ctx context.Context, contractorID, status string) (*models.VerificationSubmission, error) {
	if contractorID == "" {
		return nil, repository.Invalid("contractorId", "contractor id is required")
	}
	if status != models.VerificationVerified && status != models.VerificationRejected {
		return nil, repository.Invalid("status", fmt.Sprintf("status must be %q or %q", models.VerificationVerified, models.VerificationRejected))
	}

	var out models.VerificationSubmission
	err := r.verifications.Update(ctx, func(recs []recordstore.Record) ([]recordstore.Record, error) {
		for i, rec := range recs {
			if rec["contractorId"] != contractorID {
				continue
			}
			out = recordVerification(rec)
			out.Status = status
			out.VerifiedAt = models.Timestamp(r.now())
			recs[i] = verificationRecord(&out)
			return recs, nil
		}
		return nil, notFound("verification submission", contractorID)
	})
	if err != nil {
		return nil, err
	}
	r.logger.Info("verification reviewed", slog.String("contractor_id", contractorID), slog.String("status", status))
	return &out, nil
}
